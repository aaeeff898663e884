package screening

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Salad109/satellite-conjunction-api/internal/catalog"
	"github.com/Salad109/satellite-conjunction-api/internal/conjunction"
)

type fakeCatalogStore struct {
	satellites []*catalog.Satellite
}

func (f *fakeCatalogStore) All(ctx context.Context) ([]*catalog.Satellite, error) {
	return f.satellites, nil
}

func (f *fakeCatalogStore) Count(ctx context.Context) (int64, error) {
	return int64(len(f.satellites)), nil
}

func (f *fakeCatalogStore) Find(ctx context.Context, catalogNumber int) (*catalog.Satellite, error) {
	for _, s := range f.satellites {
		if s.CatalogNumber == catalogNumber {
			return s, nil
		}
	}
	return nil, nil
}

type fakeConjunctionStore struct {
	byPair map[[2]int]*conjunction.Conjunction
}

func newFakeConjunctionStore() *fakeConjunctionStore {
	return &fakeConjunctionStore{byPair: make(map[[2]int]*conjunction.Conjunction)}
}

func (f *fakeConjunctionStore) BatchUpsertIfCloser(ctx context.Context, conjunctions []*conjunction.Conjunction) error {
	for _, c := range conjunctions {
		key := c.PairKey()
		existing, ok := f.byPair[key]
		if !ok || c.MissDistanceKM < existing.MissDistanceKM {
			f.byPair[key] = c
		}
	}
	return nil
}

func (f *fakeConjunctionStore) GetConjunctions(ctx context.Context, pageNumber, pageSize int, withFormations bool) (conjunction.Page, error) {
	var items []*conjunction.Conjunction
	for _, c := range f.byPair {
		items = append(items, c)
	}
	return conjunction.Page{Items: items, PageNumber: pageNumber, PageSize: pageSize, TotalCount: int64(len(items))}, nil
}

func twinSatellites(t *testing.T) ([]*catalog.Satellite, time.Time) {
	t.Helper()
	satA, err := catalog.ParseTLE(1, "TWIN-A", issLine1, issLine2)
	require.NoError(t, err)
	satB, err := catalog.ParseTLE(2, "TWIN-B", issLine1, issLine2)
	require.NoError(t, err)
	return []*catalog.Satellite{satA, satB}, satA.Epoch
}

func TestRun_TwinSatellitesProduceOneStoredConjunction(t *testing.T) {
	satellites, epoch := twinSatellites(t)
	catStore := &fakeCatalogStore{satellites: satellites}
	conjStore := newFakeConjunctionStore()

	params := Params{ToleranceKM: 50, ThresholdKM: 5, Lookahead: time.Minute, Step: 10 * time.Second}

	summary, err := Run(context.Background(), catStore, conjStore, params, epoch)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.CatalogSize)
	assert.Equal(t, 1, summary.CandidatePairs)
	assert.Greater(t, summary.CoarseDetections, 0)
	assert.Equal(t, 1, summary.Stored)
	assert.Len(t, conjStore.byPair, 1)

	stored := conjStore.byPair[[2]int{1, 2}]
	require.NotNil(t, stored)
	assert.InDelta(t, 0, stored.MissDistanceKM, 1e-6)
}

func TestRun_EmptyCatalogProducesEmptySummary(t *testing.T) {
	catStore := &fakeCatalogStore{}
	conjStore := newFakeConjunctionStore()
	params := Params{ToleranceKM: 50, ThresholdKM: 5, Lookahead: time.Minute, Step: 10 * time.Second}

	summary, err := Run(context.Background(), catStore, conjStore, params, time.Now().UTC().Truncate(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 0, summary.CatalogSize)
	assert.Equal(t, 0, summary.Stored)
	assert.Empty(t, conjStore.byPair)
}

func TestRun_FarApartShellsYieldNoDetections(t *testing.T) {
	satA, err := catalog.ParseTLE(1, "A", issLine1, issLine2)
	require.NoError(t, err)
	satB, err := catalog.ParseTLE(2, "B", issLine1, issLine2)
	require.NoError(t, err)
	satB.PerigeeAltitudeKM = 35786 // geostationary-altitude shell, no overlap with ISS
	satB.ApogeeAltitudeKM = 35800

	catStore := &fakeCatalogStore{satellites: []*catalog.Satellite{satA, satB}}
	conjStore := newFakeConjunctionStore()
	params := Params{ToleranceKM: 50, ThresholdKM: 5, Lookahead: time.Minute, Step: 10 * time.Second}

	summary, err := Run(context.Background(), catStore, conjStore, params, satA.Epoch)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.CandidatePairs)
	assert.Equal(t, 0, summary.Stored)
}

func TestRun_RerunIsIdempotent(t *testing.T) {
	satellites, epoch := twinSatellites(t)
	catStore := &fakeCatalogStore{satellites: satellites}
	conjStore := newFakeConjunctionStore()
	params := Params{ToleranceKM: 50, ThresholdKM: 5, Lookahead: time.Minute, Step: 10 * time.Second}

	_, err := Run(context.Background(), catStore, conjStore, params, epoch)
	require.NoError(t, err)
	firstMiss := conjStore.byPair[[2]int{1, 2}].MissDistanceKM

	_, err = Run(context.Background(), catStore, conjStore, params, epoch)
	require.NoError(t, err)
	secondMiss := conjStore.byPair[[2]int{1, 2}].MissDistanceKM

	assert.Len(t, conjStore.byPair, 1)
	assert.InDelta(t, firstMiss, secondMiss, 1e-6)
}

func TestWithinThreshold_KeepsExactThresholdMatch(t *testing.T) {
	c := conjunction.New(1, 2, 5.0, time.Now(), 1000)
	assert.True(t, withinThreshold(c, 5.0))
}

func TestWithinThreshold_DropsAboveThreshold(t *testing.T) {
	c := conjunction.New(1, 2, 5.0001, time.Now(), 1000)
	assert.False(t, withinThreshold(c, 5.0))
}

func TestWithinThreshold_KeepsBelowThreshold(t *testing.T) {
	c := conjunction.New(1, 2, 4.9, time.Now(), 1000)
	assert.True(t, withinThreshold(c, 5.0))
}

func TestDedupClosest_KeepsSmallestMissPerPair(t *testing.T) {
	pair := [2]int{1, 2}
	tca1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tca2 := tca1.Add(time.Minute)

	far := conjunction.New(pair[0], pair[1], 10, tca1, 1000)
	near := conjunction.New(pair[0], pair[1], 2, tca2, 1000)

	out := dedupClosest([]*conjunction.Conjunction{far, near})
	require.Len(t, out, 1)
	assert.Equal(t, 2.0, out[0].MissDistanceKM)
}

func TestDedupClosest_TiesBreakOnEarlierTCA(t *testing.T) {
	pair := [2]int{1, 2}
	earlier := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	later := earlier.Add(time.Minute)

	a := conjunction.New(pair[0], pair[1], 5, later, 1000)
	b := conjunction.New(pair[0], pair[1], 5, earlier, 1000)

	out := dedupClosest([]*conjunction.Conjunction{a, b})
	require.Len(t, out, 1)
	assert.True(t, out[0].TCA.Equal(earlier))
}
