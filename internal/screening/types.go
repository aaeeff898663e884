// Package screening implements the three-stage conjunction screening
// pipeline: pair reduction, coarse sweep, and event clustering/refinement,
// per spec.md §4.
package screening

import "time"

// SatellitePair is an ordered pair (A, B) with A's catalog number strictly
// less than B's, per spec.md §3. Two pairs with the same unordered members
// compare equal since construction always normalizes order.
type SatellitePair struct {
	A, B int
}

// NewPair normalizes catalog numbers x and y into a SatellitePair with
// A < B. Panics if x == y: pairs are antireflexive by construction.
func NewPair(x, y int) SatellitePair {
	if x == y {
		panic("screening: cannot form a pair from a satellite and itself")
	}
	if x < y {
		return SatellitePair{A: x, B: y}
	}
	return SatellitePair{A: y, B: x}
}

// CoarseDetection is a single below-tolerance sample produced by the
// coarse sweep, per spec.md §3.
type CoarseDetection struct {
	Pair       SatellitePair
	SampleTime time.Time
	DistanceKM float64
}

// Event is a non-empty, time-sorted, contiguous run of CoarseDetections
// for one pair, per spec.md §3/§4.4.
type Event struct {
	Pair       SatellitePair
	Detections []CoarseDetection
}

// Start returns the event's first sample time.
func (e Event) Start() time.Time { return e.Detections[0].SampleTime }

// End returns the event's last sample time.
func (e Event) End() time.Time { return e.Detections[len(e.Detections)-1].SampleTime }
