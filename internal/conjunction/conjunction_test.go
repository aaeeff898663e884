package conjunction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew_NormalizesCatalogOrder(t *testing.T) {
	tca := time.Now()
	c := New(300, 100, 1.2, tca, 7500)

	assert.Equal(t, 100, c.CatA)
	assert.Equal(t, 300, c.CatB)
	assert.NotEmpty(t, c.ID)
}

func TestNew_LeavesAlreadyOrderedPairsUnchanged(t *testing.T) {
	c := New(100, 300, 1.2, time.Now(), 7500)

	assert.Equal(t, 100, c.CatA)
	assert.Equal(t, 300, c.CatB)
}

func TestPairKey_IsOrderIndependent(t *testing.T) {
	a := New(100, 300, 1.2, time.Now(), 7500)
	b := New(300, 100, 0.4, time.Now(), 7400)

	assert.Equal(t, a.PairKey(), b.PairKey())
}

func TestNew_AssignsDistinctIDs(t *testing.T) {
	a := New(1, 2, 1.0, time.Now(), 1.0)
	b := New(1, 2, 1.0, time.Now(), 1.0)

	assert.NotEqual(t, a.ID, b.ID)
}
