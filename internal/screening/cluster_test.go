package screening

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func det(pair SatellitePair, offset time.Duration) CoarseDetection {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return CoarseDetection{Pair: pair, SampleTime: base.Add(offset), DistanceKM: 1}
}

func TestCluster_SplitsOnGapExceedingThreeSteps(t *testing.T) {
	step := 10 * time.Second
	pair := NewPair(1, 2)
	detections := []CoarseDetection{
		det(pair, 0),
		det(pair, 10*time.Second),
		det(pair, 20*time.Second),
		// gap of 40s > 3*step (30s): starts a new event
		det(pair, 60*time.Second),
		det(pair, 70*time.Second),
	}

	byPair := Cluster(detections, step)
	events := byPair[pair]
	if assert.Len(t, events, 2) {
		assert.Len(t, events[0].Detections, 3)
		assert.Len(t, events[1].Detections, 2)
	}
}

func TestCluster_ToleratesOneDroppedSample(t *testing.T) {
	step := 10 * time.Second
	pair := NewPair(1, 2)
	// gap of 30s == 3*step: still one contiguous event.
	detections := []CoarseDetection{
		det(pair, 0),
		det(pair, 30*time.Second),
	}

	byPair := Cluster(detections, step)
	assert.Len(t, byPair[pair], 1)
	assert.Len(t, byPair[pair][0].Detections, 2)
}

func TestCluster_SeparatesByPair(t *testing.T) {
	step := 10 * time.Second
	pairA := NewPair(1, 2)
	pairB := NewPair(3, 4)
	detections := []CoarseDetection{det(pairA, 0), det(pairB, 0)}

	byPair := Cluster(detections, step)
	assert.Len(t, byPair, 2)
	assert.Len(t, byPair[pairA], 1)
	assert.Len(t, byPair[pairB], 1)
}

func TestEvent_StartAndEnd(t *testing.T) {
	pair := NewPair(1, 2)
	e := Event{Pair: pair, Detections: []CoarseDetection{det(pair, 0), det(pair, 5*time.Second)}}
	assert.True(t, e.Start().Before(e.End()))
}

func TestFlatten_CollapsesAllPairs(t *testing.T) {
	pairA := NewPair(1, 2)
	pairB := NewPair(3, 4)
	byPair := map[SatellitePair][]Event{
		pairA: {{Pair: pairA, Detections: []CoarseDetection{det(pairA, 0)}}},
		pairB: {
			{Pair: pairB, Detections: []CoarseDetection{det(pairB, 0)}},
			{Pair: pairB, Detections: []CoarseDetection{det(pairB, time.Minute)}},
		},
	}

	flat := Flatten(byPair)
	assert.Len(t, flat, 3)
}
