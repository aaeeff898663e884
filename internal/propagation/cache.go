// Package propagation builds and evaluates SGP4/SDP4 propagators for
// catalog objects, per spec.md §4.1.
package propagation

import (
	"context"
	"fmt"
	"log"
	"math"
	"runtime"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
	"golang.org/x/sync/errgroup"

	"github.com/Salad109/satellite-conjunction-api/internal/catalog"
)

// metersPerKM converts the go-satellite library's km/km-per-second outputs
// into the metre/metre-per-second units spec.md §3 specifies for Propagator.
const metersPerKM = 1000.0

// PV is a position/velocity sample in an inertial (TEME) frame, in metres
// and metres per second.
type PV struct {
	Position [3]float64
	Velocity [3]float64
}

// Propagator wraps a single catalog object's SGP4/SDP4 state. It is safe
// for concurrent read-only use across goroutines: go-satellite's Propagate
// takes the parsed elements by value and does not mutate shared state.
type Propagator struct {
	CatalogNumber int
	sat           satellite.Satellite
}

// At evaluates the propagator at instant t, returning position and
// velocity in metres and metres/second. An error indicates a numerical
// failure (e.g. decaying orbit, epoch far outside validity) that the
// caller must treat as "no sample" per spec.md §4.1/§7.
//
// go-satellite's Propagate only accepts whole seconds, which would pin
// every sample to a 1-second grid and defeat the refiner's 100 ms
// bracket tolerance (spec.md §4.5). At interpolates linearly between
// the whole seconds bracketing t: SGP4 state varies smoothly enough
// over a single second that linear interpolation is accurate well
// below the 100 ms tolerance the refiner requires.
func (p *Propagator) At(t time.Time) (PV, error) {
	t = t.UTC()
	base := t.Truncate(time.Second)
	frac := t.Sub(base).Seconds()

	start, err := p.atWholeSecond(base)
	if err != nil {
		return PV{}, err
	}
	if frac == 0 {
		return start, nil
	}

	end, err := p.atWholeSecond(base.Add(time.Second))
	if err != nil {
		return PV{}, err
	}
	return lerpPV(start, end, frac), nil
}

// atWholeSecond calls the underlying library at an integer-second instant
// and validates the result: go-satellite signals a propagation failure
// not with an error return but with NaN-filled vectors (its Satellite.Error
// field, set during TLEToSat, only catches failures detectable at parse
// time; per-call numerical blowups only show up as NaN here).
func (p *Propagator) atWholeSecond(t time.Time) (PV, error) {
	pos, vel := satellite.Propagate(p.sat, t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
	if hasNaN(pos) || hasNaN(vel) {
		return PV{}, fmt.Errorf("propagation: catalog number %d produced a non-finite state at %s",
			p.CatalogNumber, t.Format(time.RFC3339))
	}
	return PV{
		Position: [3]float64{pos.X * metersPerKM, pos.Y * metersPerKM, pos.Z * metersPerKM},
		Velocity: [3]float64{vel.X * metersPerKM, vel.Y * metersPerKM, vel.Z * metersPerKM},
	}, nil
}

func hasNaN(v satellite.Vector3) bool {
	return math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsNaN(v.Z)
}

// lerpPV linearly interpolates between two samples one second apart, at
// fraction frac (in [0,1)) past start.
func lerpPV(start, end PV, frac float64) PV {
	return PV{
		Position: lerpVec(start.Position, end.Position, frac),
		Velocity: lerpVec(start.Velocity, end.Velocity, frac),
	}
}

func lerpVec(a, b [3]float64, frac float64) [3]float64 {
	return [3]float64{
		a[0] + (b[0]-a[0])*frac,
		a[1] + (b[1]-a[1])*frac,
		a[2] + (b[2]-a[2])*frac,
	}
}

// Cache holds one Propagator per catalog object for the lifetime of a
// single screening run, per spec.md §3's Propagator lifecycle.
type Cache struct {
	propagators map[int]*Propagator
}

// Build constructs a Cache from the full satellite list. It rejects any
// satellite with eccentricity >= 1 and catches (without panicking) any
// satellite whose TLE fails to parse into an SGP4 element set, per
// spec.md §4.1. The number of rejected satellites is logged and returned.
func Build(satellites []*catalog.Satellite) (*Cache, int) {
	propagators := make(map[int]*Propagator, len(satellites))
	skipped := 0

	for _, s := range satellites {
		if s.Eccentricity >= 1 {
			skipped++
			continue
		}
		parsed, err := parseSat(s)
		if err != nil {
			skipped++
			continue
		}
		propagators[s.CatalogNumber] = &Propagator{CatalogNumber: s.CatalogNumber, sat: parsed}
	}

	if skipped > 0 {
		log.Printf("propagation: skipped %d of %d catalog objects building propagator cache", skipped, len(satellites))
	}

	return &Cache{propagators: propagators}, skipped
}

// parseSat recovers from go-satellite panicking on malformed TLE input;
// the upstream library does not always return an error for garbage lines.
// It also rejects elements that sgp4init flagged during construction
// (TLEToSat sets Satellite.Error to a nonzero SGP4 error code, e.g. for
// a decayed or otherwise invalid orbit at epoch).
func parseSat(s *catalog.Satellite) (sat satellite.Satellite, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("propagation: failed to construct SGP4 element set for catalog number %d: %v", s.CatalogNumber, r)
		}
	}()
	sat = satellite.TLEToSat(s.Line1, s.Line2, satellite.GravityWGS84)
	if sat.Error != 0 {
		return satellite.Satellite{}, fmt.Errorf("propagation: catalog number %d rejected by SGP4 init, error code %d", s.CatalogNumber, sat.Error)
	}
	return sat, nil
}

// Len returns the number of successfully cached propagators.
func (c *Cache) Len() int {
	return len(c.propagators)
}

// Get returns the propagator for a catalog number, or nil if it was
// rejected or never present.
func (c *Cache) Get(catalogNumber int) *Propagator {
	return c.propagators[catalogNumber]
}

// PropagateAll evaluates every cached propagator at instant t in parallel
// and returns a snapshot keyed by catalog number. A propagator whose
// evaluation fails is simply absent from the returned map — per spec.md
// §4.1, "a missing entry downstream means no sample at this step".
func (c *Cache) PropagateAll(ctx context.Context, t time.Time) map[int]PV {
	return c.propagateAll(ctx, t, runtime.GOMAXPROCS(0))
}

func (c *Cache) propagateAll(ctx context.Context, t time.Time, shardCount int) map[int]PV {
	ids := make([]int, 0, len(c.propagators))
	for id := range c.propagators {
		ids = append(ids, id)
	}
	if shardCount < 1 {
		shardCount = 1
	}

	type partial struct {
		id int
		pv PV
	}
	shardResults := make([][]partial, shardCount)

	g, _ := errgroup.WithContext(ctx)
	chunk := (len(ids) + shardCount - 1) / shardCount
	if chunk < 1 {
		chunk = 1
	}
	for shard := 0; shard < shardCount; shard++ {
		shard := shard
		start := shard * chunk
		if start >= len(ids) {
			break
		}
		end := start + chunk
		if end > len(ids) {
			end = len(ids)
		}
		g.Go(func() error {
			local := make([]partial, 0, end-start)
			for _, id := range ids[start:end] {
				p := c.propagators[id]
				pv, err := p.At(t)
				if err != nil {
					continue
				}
				local = append(local, partial{id: id, pv: pv})
			}
			shardResults[shard] = local
			return nil
		})
	}
	_ = g.Wait() // no shard goroutine returns an error; per-item failures are dropped instead

	out := make(map[int]PV, len(ids))
	for _, shard := range shardResults {
		for _, p := range shard {
			out[p.id] = p.pv
		}
	}
	return out
}
