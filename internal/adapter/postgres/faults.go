package postgres

import (
	"context"
	"fmt"

	"github.com/seismoview/quake-context-service/internal/domain"
)

// FaultsIntersecting returns faults whose bounding box overlaps the given
// box. This is the coarse filter; callers compute exact trace distance.
func (s *Store) FaultsIntersecting(ctx context.Context, box domain.BoundingBox) ([]domain.Fault, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, movement, slip_type, activity_level,
		       COALESCE(slip_rate_mm_yr, 0), COALESCE(length_km, 0),
		       COALESCE(trace, 'null'::jsonb),
		       min_lat, max_lat, min_lon, max_lon
		FROM faults
		WHERE min_lat <= $1 AND max_lat >= $2
		  AND min_lon <= $3 AND max_lon >= $4
	`, box.MaxLat, box.MinLat, box.MaxLon, box.MinLon)
	if err != nil {
		return nil, fmt.Errorf("query faults in box: %w", err)
	}
	defer rows.Close()

	var faults []domain.Fault
	for rows.Next() {
		var f domain.Fault
		if err := rows.Scan(
			&f.ID, &f.Name, &f.Movement, &f.SlipType, &f.ActivityLevel,
			&f.SlipRateMmYr, &f.LengthKm, &f.Trace,
			&f.BBox.MinLat, &f.BBox.MaxLat, &f.BBox.MinLon, &f.BBox.MaxLon,
		); err != nil {
			return nil, fmt.Errorf("scan fault: %w", err)
		}
		faults = append(faults, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate faults: %w", err)
	}
	return faults, nil
}

// UpsertFault replaces the full fault row by identifier. Reference data is
// loaded by the seed command and read-only afterwards.
func (s *Store) UpsertFault(ctx context.Context, f domain.Fault) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO faults (id, name, movement, slip_type, activity_level,
		                    slip_rate_mm_yr, length_km, trace,
		                    min_lat, max_lat, min_lon, max_lon)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			movement = EXCLUDED.movement,
			slip_type = EXCLUDED.slip_type,
			activity_level = EXCLUDED.activity_level,
			slip_rate_mm_yr = EXCLUDED.slip_rate_mm_yr,
			length_km = EXCLUDED.length_km,
			trace = EXCLUDED.trace,
			min_lat = EXCLUDED.min_lat,
			max_lat = EXCLUDED.max_lat,
			min_lon = EXCLUDED.min_lon,
			max_lon = EXCLUDED.max_lon
	`, f.ID, f.Name, f.Movement, f.SlipType, f.ActivityLevel,
		f.SlipRateMmYr, f.LengthKm, f.Trace,
		f.BBox.MinLat, f.BBox.MaxLat, f.BBox.MinLon, f.BBox.MaxLon)
	if err != nil {
		return fmt.Errorf("upsert fault %s: %w", f.ID, err)
	}
	return nil
}
