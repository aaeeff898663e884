package screening

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/Salad109/satellite-conjunction-api/internal/catalog"
)

// Reduce returns every pair of satellites whose orbital shells (perigee to
// apogee altitude, inflated by toleranceKM on each side) overlap, per
// spec.md §4.2. This is a necessary, not sufficient, condition: it can
// only be used to exclude pairs, never to confirm a conjunction.
//
// Complexity is O(N^2) in the catalog size, parallelized over the outer
// index; for each i only pairs (i, j) with j > i are considered, which by
// construction yields unordered-unique output.
func Reduce(ctx context.Context, satellites []*catalog.Satellite, toleranceKM float64) ([]SatellitePair, error) {
	return reduceSharded(ctx, satellites, toleranceKM, runtime.GOMAXPROCS(0))
}

func reduceSharded(ctx context.Context, satellites []*catalog.Satellite, toleranceKM float64, shardCount int) ([]SatellitePair, error) {
	n := len(satellites)
	if n < 2 {
		return nil, nil
	}
	if shardCount < 1 {
		shardCount = 1
	}

	shardPairs := make([][]SatellitePair, shardCount)
	g, ctx := errgroup.WithContext(ctx)

	chunk := (n + shardCount - 1) / shardCount
	if chunk < 1 {
		chunk = 1
	}

	for shard := 0; shard < shardCount; shard++ {
		shard := shard
		start := shard * chunk
		if start >= n {
			break
		}
		end := start + chunk
		if end > n {
			end = n
		}
		g.Go(func() error {
			var local []SatellitePair
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				a := satellites[i]
				for j := i + 1; j < n; j++ {
					b := satellites[j]
					if shellsOverlap(a, b, toleranceKM) {
						local = append(local, NewPair(a.CatalogNumber, b.CatalogNumber))
					}
				}
			}
			shardPairs[shard] = local
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, s := range shardPairs {
		total += len(s)
	}
	pairs := make([]SatellitePair, 0, total)
	for _, s := range shardPairs {
		pairs = append(pairs, s...)
	}
	return pairs, nil
}

// shellsOverlap implements spec.md §4.2's inflated shell-overlap rule:
// max(pA, pB) - tolerance <= min(aA, aB) + tolerance.
func shellsOverlap(a, b *catalog.Satellite, toleranceKM float64) bool {
	maxPerigee := a.PerigeeAltitudeKM
	if b.PerigeeAltitudeKM > maxPerigee {
		maxPerigee = b.PerigeeAltitudeKM
	}
	minApogee := a.ApogeeAltitudeKM
	if b.ApogeeAltitudeKM < minApogee {
		minApogee = b.ApogeeAltitudeKM
	}
	return maxPerigee-toleranceKM <= minApogee+toleranceKM
}
