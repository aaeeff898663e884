package screening

import (
	"gonum.org/v1/gonum/stat"

	"github.com/Salad109/satellite-conjunction-api/internal/conjunction"
)

// RunStats summarizes one screening run's conjunctions. It is carried in
// the Summary returned by the manual screening trigger, to give operators
// a sense of how close this run's closest approaches were, beyond a bare
// count.
type RunStats struct {
	Count                int
	MeanMissKM           float64
	StdDevMissKM         float64
	MeanRelativeSpeedMPS float64
	StdDevRelativeSpeed  float64
}

// Summarize computes descriptive statistics over a batch of conjunctions
// using gonum/stat. An empty input yields a zero-value RunStats.
func Summarize(conjunctions []*conjunction.Conjunction) RunStats {
	if len(conjunctions) == 0 {
		return RunStats{}
	}

	missKM := make([]float64, len(conjunctions))
	relSpeed := make([]float64, len(conjunctions))
	for i, c := range conjunctions {
		missKM[i] = c.MissDistanceKM
		relSpeed[i] = c.RelativeSpeedMPS
	}

	meanMiss, stdMiss := meanStdDev(missKM)
	meanSpeed, stdSpeed := meanStdDev(relSpeed)

	return RunStats{
		Count:                len(conjunctions),
		MeanMissKM:           meanMiss,
		StdDevMissKM:         stdMiss,
		MeanRelativeSpeedMPS: meanSpeed,
		StdDevRelativeSpeed:  stdSpeed,
	}
}

// meanStdDev wraps stat.MeanStdDev, guarding the n=1 case: the sample
// standard deviation divides by n-1, so gonum returns NaN for a single
// value, and encoding/json refuses to marshal NaN. A run with exactly one
// conjunction has no spread to report, so StdDev is reported as 0.
func meanStdDev(values []float64) (mean, stdDev float64) {
	if len(values) < 2 {
		mean, _ = stat.MeanStdDev(values, nil)
		return mean, 0
	}
	return stat.MeanStdDev(values, nil)
}
