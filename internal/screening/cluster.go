package screening

import (
	"sort"
	"time"
)

// Cluster groups coarse detections by pair and splits each pair's
// time-sorted detections into contiguous events, per spec.md §4.4. Two
// consecutive detections belong to the same event iff the gap between
// their sample times is at most 3*step (tolerating one dropped sample
// inside an encounter without splitting it).
func Cluster(detections []CoarseDetection, step time.Duration) map[SatellitePair][]Event {
	byPair := make(map[SatellitePair][]CoarseDetection)
	for _, d := range detections {
		byPair[d.Pair] = append(byPair[d.Pair], d)
	}

	maxGap := 3 * step
	out := make(map[SatellitePair][]Event, len(byPair))
	for pair, ds := range byPair {
		sort.Slice(ds, func(i, j int) bool { return ds[i].SampleTime.Before(ds[j].SampleTime) })

		var events []Event
		var current []CoarseDetection
		for i, d := range ds {
			if i == 0 {
				current = []CoarseDetection{d}
				continue
			}
			gap := d.SampleTime.Sub(ds[i-1].SampleTime)
			if gap > maxGap {
				events = append(events, Event{Pair: pair, Detections: current})
				current = nil
			}
			current = append(current, d)
		}
		if len(current) > 0 {
			events = append(events, Event{Pair: pair, Detections: current})
		}
		out[pair] = events
	}
	return out
}

// Flatten collapses a per-pair event map into a single slice, the shape
// the orchestrator refines over (spec.md §4.6 step 5: "flattened across
// pairs").
func Flatten(byPair map[SatellitePair][]Event) []Event {
	total := 0
	for _, events := range byPair {
		total += len(events)
	}
	out := make([]Event, 0, total)
	for _, events := range byPair {
		out = append(out, events...)
	}
	return out
}
