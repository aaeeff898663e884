package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/Salad109/satellite-conjunction-api/internal/conjunction"
)

// ConjunctionStore is the sqlite-backed conjunction.Store implementation.
// Its upsert enforces the closest-so-far invariant directly in SQL via an
// ON CONFLICT ... WHERE guard, per spec.md §6.
type ConjunctionStore struct {
	db *DB
}

var _ conjunction.Store = (*ConjunctionStore)(nil)

// NewConjunctionStore wraps db as a conjunction.Store.
func NewConjunctionStore(db *DB) *ConjunctionStore {
	return &ConjunctionStore{db: db}
}

// BatchUpsertIfCloser upserts each conjunction in one transaction. The
// ON CONFLICT guard means a row is only overwritten when the new miss
// distance is strictly smaller than what is stored, so repeated runs over
// the same window converge to the closest observed approach rather than
// oscillating with whatever ran last.
func (s *ConjunctionStore) BatchUpsertIfCloser(ctx context.Context, conjunctions []*conjunction.Conjunction) error {
	if len(conjunctions) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin conjunction upsert transaction: %w", err)
	}
	defer tx.Rollback()

	now := float64(time.Now().UTC().Unix())
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO conjunction (id, cat_a, cat_b, miss_km, tca_unix, relative_speed_mps, created_at_unix, updated_at_unix)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(cat_a, cat_b) DO UPDATE SET
			id = excluded.id,
			miss_km = excluded.miss_km,
			tca_unix = excluded.tca_unix,
			relative_speed_mps = excluded.relative_speed_mps,
			updated_at_unix = excluded.updated_at_unix
		WHERE excluded.miss_km < conjunction.miss_km`)
	if err != nil {
		return fmt.Errorf("sqlite: prepare conjunction upsert: %w", err)
	}
	defer stmt.Close()

	for _, c := range conjunctions {
		_, err := stmt.ExecContext(ctx, c.ID, c.CatA, c.CatB, c.MissDistanceKM, float64(c.TCA.Unix()), c.RelativeSpeedMPS, now, now)
		if err != nil {
			return fmt.Errorf("sqlite: upsert conjunction (%d,%d): %w", c.CatA, c.CatB, err)
		}
	}

	return tx.Commit()
}

// GetConjunctions returns one page of conjunctions ordered by time of
// closest approach. withFormations is accepted for interface
// compatibility but ignored (conjunction.Store's doc comment explains why).
func (s *ConjunctionStore) GetConjunctions(ctx context.Context, pageNumber, pageSize int, withFormations bool) (conjunction.Page, error) {
	if pageNumber < 1 {
		pageNumber = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}
	offset := (pageNumber - 1) * pageSize

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM conjunction`).Scan(&total); err != nil {
		return conjunction.Page{}, fmt.Errorf("sqlite: count conjunctions: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, cat_a, cat_b, miss_km, tca_unix, relative_speed_mps, created_at_unix, updated_at_unix
		FROM conjunction ORDER BY tca_unix ASC LIMIT ? OFFSET ?`, pageSize, offset)
	if err != nil {
		return conjunction.Page{}, fmt.Errorf("sqlite: list conjunctions: %w", err)
	}
	defer rows.Close()

	var items []*conjunction.Conjunction
	for rows.Next() {
		var c conjunction.Conjunction
		var tcaUnix, createdUnix, updatedUnix float64
		if err := rows.Scan(&c.ID, &c.CatA, &c.CatB, &c.MissDistanceKM, &tcaUnix, &c.RelativeSpeedMPS, &createdUnix, &updatedUnix); err != nil {
			return conjunction.Page{}, fmt.Errorf("sqlite: scan conjunction: %w", err)
		}
		c.TCA = time.Unix(int64(tcaUnix), 0).UTC()
		c.CreatedAt = time.Unix(int64(createdUnix), 0).UTC()
		c.UpdatedAt = time.Unix(int64(updatedUnix), 0).UTC()
		items = append(items, &c)
	}
	if err := rows.Err(); err != nil {
		return conjunction.Page{}, err
	}

	return conjunction.Page{Items: items, PageNumber: pageNumber, PageSize: pageSize, TotalCount: total}, nil
}
