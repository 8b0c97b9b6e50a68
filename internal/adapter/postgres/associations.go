package postgres

import (
	"context"
	"fmt"

	"github.com/seismoview/quake-context-service/internal/domain"
)

// UpsertAssociation replaces the association row keyed by
// (event_id, fault_id). Concurrent writers converge on the last write;
// since the score is a pure function of its inputs the rows are identical.
func (s *Store) UpsertAssociation(ctx context.Context, a domain.Association) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO event_fault_associations
			(event_id, fault_id, distance_km, relevance_score, association_type,
			 relationship_text, proximity_text, relevance_text)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (event_id, fault_id) DO UPDATE SET
			distance_km = EXCLUDED.distance_km,
			relevance_score = EXCLUDED.relevance_score,
			association_type = EXCLUDED.association_type,
			relationship_text = EXCLUDED.relationship_text,
			proximity_text = EXCLUDED.proximity_text,
			relevance_text = EXCLUDED.relevance_text
	`, a.EventID, a.FaultID, a.DistanceKm, a.RelevanceScore, string(a.Type),
		a.RelationshipText, a.ProximityText, a.RelevanceText)
	if err != nil {
		return fmt.Errorf("upsert association %s/%s: %w", a.EventID, a.FaultID, err)
	}
	return nil
}

// AssociationsForEvent returns the stored associations for an event
// joined with fault attributes, strongest first: relevance descending,
// then distance ascending. The join is a LEFT JOIN so an association
// survives even if its fault row was removed from the reference data.
func (s *Store) AssociationsForEvent(ctx context.Context, eventID string, limit int) ([]domain.FaultAssociation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT a.event_id, a.fault_id, a.distance_km, a.relevance_score, a.association_type,
		       a.relationship_text, a.proximity_text, a.relevance_text,
		       COALESCE(f.name, ''), COALESCE(f.movement, ''), COALESCE(f.slip_type, ''),
		       COALESCE(f.activity_level, ''), COALESCE(f.slip_rate_mm_yr, 0), COALESCE(f.length_km, 0)
		FROM event_fault_associations a
		LEFT JOIN faults f ON f.id = a.fault_id
		WHERE a.event_id = $1
		ORDER BY a.relevance_score DESC, a.distance_km ASC
		LIMIT $2
	`, eventID, limit)
	if err != nil {
		return nil, fmt.Errorf("query associations for %s: %w", eventID, err)
	}
	defer rows.Close()

	var out []domain.FaultAssociation
	for rows.Next() {
		var fa domain.FaultAssociation
		var typ string
		if err := rows.Scan(&fa.EventID, &fa.FaultID, &fa.DistanceKm, &fa.RelevanceScore,
			&typ, &fa.RelationshipText, &fa.ProximityText, &fa.RelevanceText,
			&fa.Fault.Name, &fa.Fault.Movement, &fa.Fault.SlipType,
			&fa.Fault.ActivityLevel, &fa.Fault.SlipRateMmYr, &fa.Fault.LengthKm); err != nil {
			return nil, fmt.Errorf("scan association: %w", err)
		}
		fa.Type = domain.AssociationType(typ)
		fa.Fault.ID = fa.FaultID
		out = append(out, fa)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate associations: %w", err)
	}
	return out, nil
}
