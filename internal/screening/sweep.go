package screening

import (
	"context"
	"log"
	"math"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Salad109/satellite-conjunction-api/internal/propagation"
)

// Sweep performs the time-stepped coarse screening pass described in
// spec.md §4.3: for each step in the look-ahead window, every cached
// propagator is evaluated once (batched, not once per pair), and every
// candidate pair is checked against the coarse tolerance.
//
// ctx is checked once per time step (spec.md §5: "cancellation... honored
// at the top of each time step", no finer-grained cancellation points).
func Sweep(
	ctx context.Context,
	pairs []SatellitePair,
	cache *propagation.Cache,
	start time.Time,
	toleranceKM float64,
	step time.Duration,
	lookahead time.Duration,
) ([]CoarseDetection, error) {
	if step <= 0 {
		return nil, errInvalidStep
	}
	numSteps := int(lookahead / step)

	var detections []CoarseDetection
	logEvery := numSteps / 10
	if logEvery < 1 {
		logEvery = 1
	}

	for k := 0; k <= numSteps; k++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		t := start.Add(time.Duration(k) * step)
		snapshot := cache.PropagateAll(ctx, t)

		stepDetections, err := checkPairsSharded(ctx, pairs, snapshot, t, toleranceKM, runtime.GOMAXPROCS(0))
		if err != nil {
			return nil, err
		}
		detections = append(detections, stepDetections...)

		if k%logEvery == 0 {
			log.Printf("screening: coarse sweep step %d/%d (%.0f%%), %d detections so far",
				k, numSteps, 100*float64(k)/float64(numSteps+1), len(detections))
		}
	}

	return detections, nil
}

var errInvalidStep = stepError("screening: step_seconds must be positive")

type stepError string

func (e stepError) Error() string { return string(e) }

// checkPairsSharded checks every pair against one propagated snapshot in
// parallel, emitting a CoarseDetection for any pair whose distance falls
// below toleranceKM. Pairs with a missing position on either side are
// dropped for this step, per spec.md §4.1/§4.3.
func checkPairsSharded(
	ctx context.Context,
	pairs []SatellitePair,
	snapshot map[int]propagation.PV,
	t time.Time,
	toleranceKM float64,
	shardCount int,
) ([]CoarseDetection, error) {
	n := len(pairs)
	if n == 0 {
		return nil, nil
	}
	if shardCount < 1 {
		shardCount = 1
	}

	shardOut := make([][]CoarseDetection, shardCount)
	g, ctx := errgroup.WithContext(ctx)

	chunk := (n + shardCount - 1) / shardCount
	if chunk < 1 {
		chunk = 1
	}

	for shard := 0; shard < shardCount; shard++ {
		shard := shard
		lo := shard * chunk
		if lo >= n {
			break
		}
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var local []CoarseDetection
			for _, pair := range pairs[lo:hi] {
				pa, ok := snapshot[pair.A]
				if !ok {
					continue
				}
				pb, ok := snapshot[pair.B]
				if !ok {
					continue
				}
				d := distanceKM(pa.Position, pb.Position)
				if d < toleranceKM {
					local = append(local, CoarseDetection{Pair: pair, SampleTime: t, DistanceKM: d})
				}
			}
			shardOut[shard] = local
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, s := range shardOut {
		total += len(s)
	}
	out := make([]CoarseDetection, 0, total)
	for _, s := range shardOut {
		out = append(out, s...)
	}
	return out, nil
}

// distanceKM computes the Euclidean distance between two metre-frame
// positions, converting to kilometres first to stay in a numerically
// comfortable range per spec.md §4.1.
func distanceKM(a, b [3]float64) float64 {
	const metersPerKM = 1000.0
	dx := (a[0] - b[0]) / metersPerKM
	dy := (a[1] - b[1]) / metersPerKM
	dz := (a[2] - b[2]) / metersPerKM
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
