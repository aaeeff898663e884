package screening

import (
	"context"
	"time"

	"github.com/Salad109/satellite-conjunction-api/internal/catalog"
	"github.com/Salad109/satellite-conjunction-api/internal/conjunction"
)

// Runner bundles Run's dependencies so a single on-demand trigger (the
// manual HTTP endpoint, or a scheduled cron job) doesn't need to know
// about catalog/conjunction stores directly, per spec.md §6.
type Runner struct {
	CatalogStore     catalog.Store
	ConjunctionStore conjunction.Store
	Params           Params
}

// Run starts a screening pass from the current wall-clock time.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	return Run(ctx, r.CatalogStore, r.ConjunctionStore, r.Params, time.Now().UTC())
}
