package screening

import (
	"log"
	"math"
	"time"

	"github.com/Salad109/satellite-conjunction-api/internal/conjunction"
	"github.com/Salad109/satellite-conjunction-api/internal/propagation"
)

// tcaAbsoluteTolerance is the minimizer's required absolute time
// tolerance, per spec.md §4.5 ("absolute time tolerance of 100 ms").
const tcaAbsoluteTolerance = 100 * time.Millisecond

// ErrEventUnrefinable is returned when every probe within an event's
// bracket fails to propagate, per spec.md §4.5/§7 ("if the best sample
// itself fails, the conjunction is dropped").
var ErrEventUnrefinable = refineError("screening: event could not be refined, all propagations failed")

type refineError string

func (e refineError) Error() string { return string(e) }

// Refine locates an event's time of closest approach via 1-D minimization
// over the event's bracket (first/last sample time, inflated by one step
// on each side), computes relative speed at the refined TCA, and returns
// a Conjunction. It does not apply the final threshold filter — per
// spec.md §4.5, "the refiner itself does not filter".
//
// Propagation failures inside the bracket are treated as +Inf distance
// (the sentinel causes the minimizer to walk away from that time); a
// failure is logged at most once per event, per spec.md §4.5/§7.
func Refine(event Event, cache *propagation.Cache, step time.Duration) (*conjunction.Conjunction, error) {
	propA := cache.Get(event.Pair.A)
	propB := cache.Get(event.Pair.B)
	if propA == nil || propB == nil {
		return nil, ErrEventUnrefinable
	}

	bracketStart := event.Start().Add(-step)
	bracketEnd := event.End().Add(step)
	loSeconds := 0.0
	hiSeconds := bracketEnd.Sub(bracketStart).Seconds()

	warnedOnce := false
	distanceAt := func(offsetSeconds float64) float64 {
		t := bracketStart.Add(time.Duration(offsetSeconds * float64(time.Second)))
		pa, errA := propA.At(t)
		pb, errB := propB.At(t)
		if errA != nil || errB != nil {
			if !warnedOnce {
				log.Printf("screening: propagation failed while refining pair (%d,%d) near %s: a=%v b=%v",
					event.Pair.A, event.Pair.B, t.UTC().Format(time.RFC3339), errA, errB)
				warnedOnce = true
			}
			return math.Inf(1)
		}
		return distanceMeters(pa.Position, pb.Position)
	}

	absTolSeconds := tcaAbsoluteTolerance.Seconds()
	xMin, fMin := minimizeBrent(distanceAt, loSeconds, hiSeconds, absTolSeconds)
	if math.IsInf(fMin, 1) {
		return nil, ErrEventUnrefinable
	}

	tca := bracketStart.Add(time.Duration(xMin * float64(time.Second)))
	pa, errA := propA.At(tca)
	pb, errB := propB.At(tca)
	if errA != nil || errB != nil {
		return nil, ErrEventUnrefinable
	}

	relSpeed := speedMetersPerSecond(pa.Velocity, pb.Velocity)

	return conjunction.New(event.Pair.A, event.Pair.B, fMin/1000.0, tca, relSpeed), nil
}

func distanceMeters(a, b [3]float64) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	dz := a[2] - b[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

func speedMetersPerSecond(a, b [3]float64) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	dz := a[2] - b[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
