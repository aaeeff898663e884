package screening

import (
	"context"
	"log"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Salad109/satellite-conjunction-api/internal/catalog"
	"github.com/Salad109/satellite-conjunction-api/internal/conjunction"
	"github.com/Salad109/satellite-conjunction-api/internal/propagation"
)

// Params bundles the tuning knobs a Run needs, per spec.md §4.6/§6.
// Callers typically derive these from a config.ScreeningConfig.
type Params struct {
	ToleranceKM float64
	ThresholdKM float64
	Lookahead   time.Duration
	Step        time.Duration
}

// Summary reports what one Run did, returned as the response body of the
// manual screening trigger.
type Summary struct {
	CatalogSize      int
	SkippedCatalog   int
	CandidatePairs   int
	CoarseDetections int
	Events           int
	Refined          int
	Unrefinable      int
	Stored           int
	Stats            RunStats
}

// Run executes the full three-stage pipeline once: load the catalog,
// reduce candidate pairs, sweep coarsely, cluster into events, refine
// each event in parallel, filter by threshold, dedup to one closest
// conjunction per pair, and upsert. It implements spec.md §4.6 exactly.
func Run(ctx context.Context, catalogStore catalog.Store, conjunctionStore conjunction.Store, params Params, start time.Time) (*Summary, error) {
	satellites, err := catalogStore.All(ctx)
	if err != nil {
		return nil, err
	}

	summary := &Summary{CatalogSize: len(satellites)}

	cache, skipped := propagation.Build(satellites)
	summary.SkippedCatalog = skipped

	pairs, err := Reduce(ctx, satellites, params.ToleranceKM)
	if err != nil {
		return nil, err
	}
	summary.CandidatePairs = len(pairs)

	detections, err := Sweep(ctx, pairs, cache, start, params.ToleranceKM, params.Step, params.Lookahead)
	if err != nil {
		return nil, err
	}
	summary.CoarseDetections = len(detections)

	// Zero events after sweep is not an error: the catalog may simply hold
	// no close approaches within the look-ahead window, per spec.md §7.
	if len(detections) == 0 {
		log.Printf("screening: no coarse detections in %d candidate pairs, nothing to refine", len(pairs))
		return summary, nil
	}

	events := Flatten(Cluster(detections, params.Step))
	summary.Events = len(events)

	refined, err := refineAll(ctx, events, cache, params.Step)
	if err != nil {
		return nil, err
	}
	summary.Refined = len(refined)
	summary.Unrefinable = len(events) - len(refined)

	kept := make([]*conjunction.Conjunction, 0, len(refined))
	for _, c := range refined {
		if withinThreshold(c, params.ThresholdKM) {
			kept = append(kept, c)
		}
	}

	deduped := dedupClosest(kept)
	summary.Stored = len(deduped)
	summary.Stats = Summarize(deduped)

	if len(deduped) > 0 {
		if err := conjunctionStore.BatchUpsertIfCloser(ctx, deduped); err != nil {
			return nil, err
		}
	}

	return summary, nil
}

// refineAll runs Refine over every event concurrently, sharded across
// GOMAXPROCS(0) goroutines, dropping events that turn out unrefinable
// rather than failing the whole run (spec.md §4.5/§7).
func refineAll(ctx context.Context, events []Event, cache *propagation.Cache, step time.Duration) ([]*conjunction.Conjunction, error) {
	shardCount := runtime.GOMAXPROCS(0)
	if shardCount > len(events) {
		shardCount = len(events)
	}
	if shardCount < 1 {
		shardCount = 1
	}

	results := make([][]*conjunction.Conjunction, shardCount)
	g, gctx := errgroup.WithContext(ctx)

	for shard := 0; shard < shardCount; shard++ {
		shard := shard
		g.Go(func() error {
			var local []*conjunction.Conjunction
			for i := shard; i < len(events); i += shardCount {
				if err := gctx.Err(); err != nil {
					return err
				}
				c, err := Refine(events[i], cache, step)
				if err != nil {
					if err == ErrEventUnrefinable {
						continue
					}
					return err
				}
				local = append(local, c)
			}
			results[shard] = local
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []*conjunction.Conjunction
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

// dedupClosest keeps, per unordered pair, the conjunction with the
// smallest miss distance; ties break on the earlier TCA, so a rerun
// over the same inputs is deterministic (spec.md §8's idempotence
// property).
func dedupClosest(conjunctions []*conjunction.Conjunction) []*conjunction.Conjunction {
	best := make(map[[2]int]*conjunction.Conjunction, len(conjunctions))
	for _, c := range conjunctions {
		key := c.PairKey()
		existing, ok := best[key]
		if !ok || isCloser(c, existing) {
			best[key] = c
		}
	}

	out := make([]*conjunction.Conjunction, 0, len(best))
	for _, c := range best {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CatA != out[j].CatA {
			return out[i].CatA < out[j].CatA
		}
		return out[i].CatB < out[j].CatB
	})
	return out
}

// withinThreshold reports whether a refined conjunction survives the
// final filter, per spec.md §4.6 step 7 / §4.5 ("dropped iff miss_km >
// threshold_km"): a miss distance exactly at the threshold is kept.
func withinThreshold(c *conjunction.Conjunction, thresholdKM float64) bool {
	return c.MissDistanceKM <= thresholdKM
}

func isCloser(candidate, existing *conjunction.Conjunction) bool {
	if candidate.MissDistanceKM != existing.MissDistanceKM {
		return candidate.MissDistanceKM < existing.MissDistanceKM
	}
	return candidate.TCA.Before(existing.TCA)
}
