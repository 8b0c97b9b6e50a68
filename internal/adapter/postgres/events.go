package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/seismoview/quake-context-service/internal/domain"
)

// GetEvent fetches a single event by identifier.
// Returns domain.ErrNotFound for unknown IDs.
func (s *Store) GetEvent(ctx context.Context, id string) (domain.Event, error) {
	var e domain.Event
	err := s.pool.QueryRow(ctx, `
		SELECT id, lat, lon, magnitude, place, depth_km, time
		FROM events
		WHERE id = $1
	`, id).Scan(&e.ID, &e.Lat, &e.Lon, &e.Magnitude, &e.Place, &e.DepthKm, &e.Time)

	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Event{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Event{}, fmt.Errorf("get event %s: %w", id, err)
	}
	return e, nil
}

// GetEventsByIDs fetches the given events, preserving the requested order.
// IDs that do not exist are silently skipped.
func (s *Store) GetEventsByIDs(ctx context.Context, ids []string) ([]domain.Event, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, lat, lon, magnitude, place, depth_km, time
		FROM events
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("get events by ids: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]domain.Event, len(ids))
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.Lat, &e.Lon, &e.Magnitude, &e.Place, &e.DepthKm, &e.Time); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		byID[e.ID] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	ordered := make([]domain.Event, 0, len(byID))
	for _, id := range ids {
		if e, ok := byID[id]; ok {
			ordered = append(ordered, e)
		}
	}
	return ordered, nil
}

// UpsertEvent replaces the full event row by identifier. Used by the seed
// command; the service itself treats events as read-only.
func (s *Store) UpsertEvent(ctx context.Context, e domain.Event) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO events (id, lat, lon, magnitude, place, depth_km, time)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			lat = EXCLUDED.lat,
			lon = EXCLUDED.lon,
			magnitude = EXCLUDED.magnitude,
			place = EXCLUDED.place,
			depth_km = EXCLUDED.depth_km,
			time = EXCLUDED.time
	`, e.ID, e.Lat, e.Lon, e.Magnitude, e.Place, e.DepthKm, e.Time)
	if err != nil {
		return fmt.Errorf("upsert event %s: %w", e.ID, err)
	}
	return nil
}
