package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Salad109/satellite-conjunction-api/internal/catalog"
)

// CatalogStore is the sqlite-backed catalog.Store/catalog.WriteStore
// implementation.
type CatalogStore struct {
	db *DB
}

var (
	_ catalog.Store      = (*CatalogStore)(nil)
	_ catalog.WriteStore = (*CatalogStore)(nil)
)

// NewCatalogStore wraps db as a catalog.Store/catalog.WriteStore.
func NewCatalogStore(db *DB) *CatalogStore {
	return &CatalogStore{db: db}
}

func (s *CatalogStore) All(ctx context.Context) ([]*catalog.Satellite, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT catalog_number, name, line1, line2, mean_motion_rev_per_day, eccentricity,
		       inclination_deg, raan_deg, arg_perigee_deg, mean_anomaly_deg, bstar,
		       perigee_altitude_km, apogee_altitude_km, epoch_unix, created_at_unix, updated_at_unix
		FROM satellite ORDER BY catalog_number`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list satellites: %w", err)
	}
	defer rows.Close()

	var out []*catalog.Satellite
	for rows.Next() {
		s, err := scanSatellite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (s *CatalogStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM satellite`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: count satellites: %w", err)
	}
	return n, nil
}

func (s *CatalogStore) Find(ctx context.Context, catalogNumber int) (*catalog.Satellite, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT catalog_number, name, line1, line2, mean_motion_rev_per_day, eccentricity,
		       inclination_deg, raan_deg, arg_perigee_deg, mean_anomaly_deg, bstar,
		       perigee_altitude_km, apogee_altitude_km, epoch_unix, created_at_unix, updated_at_unix
		FROM satellite WHERE catalog_number = ?`, catalogNumber)

	sat, err := scanSatellite(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: find satellite %d: %w", catalogNumber, err)
	}
	return sat, nil
}

// SaveAll upserts every satellite in one transaction, keyed by catalog
// number, per spec.md §6's bulk-ingest contract.
func (s *CatalogStore) SaveAll(ctx context.Context, satellites []*catalog.Satellite) error {
	if len(satellites) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin save-all transaction: %w", err)
	}
	defer tx.Rollback()

	now := float64(time.Now().UTC().Unix())
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO satellite (
			catalog_number, name, line1, line2, mean_motion_rev_per_day, eccentricity,
			inclination_deg, raan_deg, arg_perigee_deg, mean_anomaly_deg, bstar,
			perigee_altitude_km, apogee_altitude_km, epoch_unix, created_at_unix, updated_at_unix
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(catalog_number) DO UPDATE SET
			name = excluded.name,
			line1 = excluded.line1,
			line2 = excluded.line2,
			mean_motion_rev_per_day = excluded.mean_motion_rev_per_day,
			eccentricity = excluded.eccentricity,
			inclination_deg = excluded.inclination_deg,
			raan_deg = excluded.raan_deg,
			arg_perigee_deg = excluded.arg_perigee_deg,
			mean_anomaly_deg = excluded.mean_anomaly_deg,
			bstar = excluded.bstar,
			perigee_altitude_km = excluded.perigee_altitude_km,
			apogee_altitude_km = excluded.apogee_altitude_km,
			epoch_unix = excluded.epoch_unix,
			updated_at_unix = excluded.updated_at_unix`)
	if err != nil {
		return fmt.Errorf("sqlite: prepare save-all: %w", err)
	}
	defer stmt.Close()

	for _, sat := range satellites {
		_, err := stmt.ExecContext(ctx,
			sat.CatalogNumber, sat.Name, sat.Line1, sat.Line2, sat.MeanMotionRevPerDay, sat.Eccentricity,
			sat.InclinationDeg, sat.RAANDeg, sat.ArgPerigeeDeg, sat.MeanAnomalyDeg, sat.BStar,
			sat.PerigeeAltitudeKM, sat.ApogeeAltitudeKM, float64(sat.Epoch.Unix()), now, now)
		if err != nil {
			return fmt.Errorf("sqlite: upsert satellite %d: %w", sat.CatalogNumber, err)
		}
	}

	return tx.Commit()
}

// DeleteByCatIDNotIn removes every satellite whose catalog number is not in
// keep, reconciling the store against the latest fetched catalog. Returns
// the number of rows deleted.
func (s *CatalogStore) DeleteByCatIDNotIn(ctx context.Context, keep []int) (int, error) {
	if len(keep) == 0 {
		res, err := s.db.ExecContext(ctx, `DELETE FROM satellite`)
		if err != nil {
			return 0, fmt.Errorf("sqlite: delete all satellites: %w", err)
		}
		n, _ := res.RowsAffected()
		return int(n), nil
	}

	placeholders := make([]byte, 0, len(keep)*2)
	args := make([]interface{}, len(keep))
	for i, id := range keep {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
		args[i] = id
	}

	query := fmt.Sprintf(`DELETE FROM satellite WHERE catalog_number NOT IN (%s)`, string(placeholders))
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("sqlite: delete stale satellites: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSatellite(row rowScanner) (*catalog.Satellite, error) {
	var s catalog.Satellite
	var epochUnix, createdUnix, updatedUnix float64
	err := row.Scan(
		&s.CatalogNumber, &s.Name, &s.Line1, &s.Line2, &s.MeanMotionRevPerDay, &s.Eccentricity,
		&s.InclinationDeg, &s.RAANDeg, &s.ArgPerigeeDeg, &s.MeanAnomalyDeg, &s.BStar,
		&s.PerigeeAltitudeKM, &s.ApogeeAltitudeKM, &epochUnix, &createdUnix, &updatedUnix)
	if err != nil {
		return nil, err
	}
	s.Epoch = time.Unix(int64(epochUnix), 0).UTC()
	s.CreatedAt = time.Unix(int64(createdUnix), 0).UTC()
	s.UpdatedAt = time.Unix(int64(updatedUnix), 0).UTC()
	return &s, nil
}
