package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/seismoview/quake-context-service/internal/domain"
)

// UpsertClusterDefinition replaces the full definition row by identifier
// and returns the resulting version. First write gets version 1; every
// replacement bumps it, so the version is monotonic per identifier.
func (s *Store) UpsertClusterDefinition(ctx context.Context, def domain.ClusterDefinition) (int, error) {
	members, err := json.Marshal(def.MemberEventIDs)
	if err != nil {
		return 0, fmt.Errorf("encode member ids: %w", err)
	}

	var version int
	err = s.pool.QueryRow(ctx, `
		INSERT INTO cluster_definitions
			(id, slug, strongest_event_id, member_event_ids, title, description,
			 location_name, max_magnitude, mean_magnitude, min_magnitude,
			 min_depth_km, max_depth_km, centroid_lat, centroid_lon, radius_km,
			 start_time, end_time, duration_seconds, quake_count, significance,
			 version, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		        $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, 1, $21)
		ON CONFLICT (id) DO UPDATE SET
			slug = EXCLUDED.slug,
			strongest_event_id = EXCLUDED.strongest_event_id,
			member_event_ids = EXCLUDED.member_event_ids,
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			location_name = EXCLUDED.location_name,
			max_magnitude = EXCLUDED.max_magnitude,
			mean_magnitude = EXCLUDED.mean_magnitude,
			min_magnitude = EXCLUDED.min_magnitude,
			min_depth_km = EXCLUDED.min_depth_km,
			max_depth_km = EXCLUDED.max_depth_km,
			centroid_lat = EXCLUDED.centroid_lat,
			centroid_lon = EXCLUDED.centroid_lon,
			radius_km = EXCLUDED.radius_km,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			duration_seconds = EXCLUDED.duration_seconds,
			quake_count = EXCLUDED.quake_count,
			significance = EXCLUDED.significance,
			version = cluster_definitions.version + 1,
			updated_at = EXCLUDED.updated_at
		RETURNING version
	`, def.ID, def.Slug, def.StrongestEventID, members, def.Title, def.Description,
		def.LocationName, def.MaxMagnitude, def.MeanMagnitude, def.MinMagnitude,
		def.MinDepthKm, def.MaxDepthKm, def.CentroidLat, def.CentroidLon, def.RadiusKm,
		def.StartTime, def.EndTime, def.DurationSeconds, def.QuakeCount, def.Significance,
		def.UpdatedAt).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("upsert cluster definition %s: %w", def.ID, err)
	}
	return version, nil
}

// GetClusterDefinition looks up a definition by identifier, deserializing
// the member list back into an ordered slice.
// Returns domain.ErrNotFound for unknown IDs.
func (s *Store) GetClusterDefinition(ctx context.Context, id string) (domain.ClusterDefinition, error) {
	var def domain.ClusterDefinition
	var members []byte

	err := s.pool.QueryRow(ctx, `
		SELECT id, slug, strongest_event_id, member_event_ids, title, description,
		       location_name, max_magnitude, mean_magnitude, min_magnitude,
		       min_depth_km, max_depth_km, centroid_lat, centroid_lon, radius_km,
		       start_time, end_time, duration_seconds, quake_count, significance,
		       version, updated_at
		FROM cluster_definitions
		WHERE id = $1
	`, id).Scan(
		&def.ID, &def.Slug, &def.StrongestEventID, &members, &def.Title, &def.Description,
		&def.LocationName, &def.MaxMagnitude, &def.MeanMagnitude, &def.MinMagnitude,
		&def.MinDepthKm, &def.MaxDepthKm, &def.CentroidLat, &def.CentroidLon, &def.RadiusKm,
		&def.StartTime, &def.EndTime, &def.DurationSeconds, &def.QuakeCount, &def.Significance,
		&def.Version, &def.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ClusterDefinition{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.ClusterDefinition{}, fmt.Errorf("get cluster definition %s: %w", id, err)
	}

	if err := json.Unmarshal(members, &def.MemberEventIDs); err != nil {
		return domain.ClusterDefinition{}, fmt.Errorf("decode member ids for %s: %w", id, err)
	}
	return def, nil
}
