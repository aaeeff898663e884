package screening

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Salad109/satellite-conjunction-api/internal/conjunction"
)

func TestSummarize_EmptyInput(t *testing.T) {
	stats := Summarize(nil)
	assert.Equal(t, RunStats{}, stats)
}

func TestSummarize_SingleConjunctionYieldsZeroStdDev(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	conjunctions := []*conjunction.Conjunction{
		conjunction.New(1, 2, 3, now, 7500),
	}

	stats := Summarize(conjunctions)
	assert.Equal(t, 1, stats.Count)
	assert.InDelta(t, 3, stats.MeanMissKM, 1e-9)
	assert.Equal(t, 0.0, stats.StdDevMissKM)
	assert.InDelta(t, 7500, stats.MeanRelativeSpeedMPS, 1e-9)
	assert.Equal(t, 0.0, stats.StdDevRelativeSpeed)
}

func TestSummarize_ComputesMeanAndStdDev(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	conjunctions := []*conjunction.Conjunction{
		conjunction.New(1, 2, 2, now, 7000),
		conjunction.New(1, 3, 4, now, 7000),
		conjunction.New(1, 4, 6, now, 7000),
	}

	stats := Summarize(conjunctions)
	assert.Equal(t, 3, stats.Count)
	assert.InDelta(t, 4, stats.MeanMissKM, 1e-9)
	assert.Greater(t, stats.StdDevMissKM, 0.0)
	assert.InDelta(t, 7000, stats.MeanRelativeSpeedMPS, 1e-9)
	assert.Equal(t, 0.0, stats.StdDevRelativeSpeed)
}
