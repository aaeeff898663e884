// Package conjunction models persisted close-approach events and the
// store that keeps the closest-observed miss distance per pair.
package conjunction

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Conjunction is the persisted outcome of refining one event, per
// spec.md §3/§6. CatA is always strictly less than CatB.
type Conjunction struct {
	ID               string
	CatA, CatB       int
	MissDistanceKM   float64
	TCA              time.Time
	RelativeSpeedMPS float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// New constructs a Conjunction with catalog numbers normalized so CatA <
// CatB, per spec.md §3's invariant. catA and catB may be supplied in
// either order.
func New(catA, catB int, missKM float64, tca time.Time, relSpeedMPS float64) *Conjunction {
	if catA > catB {
		catA, catB = catB, catA
	}
	return &Conjunction{
		ID:               uuid.NewString(),
		CatA:             catA,
		CatB:             catB,
		MissDistanceKM:   missKM,
		TCA:              tca,
		RelativeSpeedMPS: relSpeedMPS,
	}
}

// PairKey identifies the unordered pair this conjunction belongs to, for
// dedup and closest-so-far upserts.
func (c *Conjunction) PairKey() [2]int {
	return [2]int{c.CatA, c.CatB}
}

// Page is a single page of conjunction results, per spec.md §6's
// get_conjunctions(page, with_formations) contract. Formations are not
// defined by the core (spec.md §9, Open Question iii) and are always
// omitted here.
type Page struct {
	Items      []*Conjunction
	PageNumber int
	PageSize   int
	TotalCount int64
}

// Store is the conjunction persistence contract, per spec.md §6.
type Store interface {
	// BatchUpsertIfCloser upserts each conjunction iff its miss distance
	// is strictly smaller than what is already stored for that pair; the
	// stored miss distance is monotonically non-increasing across calls.
	BatchUpsertIfCloser(ctx context.Context, conjunctions []*Conjunction) error
	// GetConjunctions returns one page of results. withFormations is
	// accepted for interface compatibility with spec.md §6 but has no
	// effect: formations are a downstream concern, out of scope here.
	GetConjunctions(ctx context.Context, pageNumber, pageSize int, withFormations bool) (Page, error)
}
