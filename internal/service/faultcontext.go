package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/seismoview/quake-context-service/internal/domain"
)

// EventGetter reads single event records.
type EventGetter interface {
	GetEvent(ctx context.Context, id string) (domain.Event, error)
}

// Data-source indicators carried in the fault-context response.
const (
	SourceStore    = "store"
	SourceBackfill = "backfill"
)

// FaultContextResponse is the composed payload for a fault-context query.
type FaultContextResponse struct {
	Event           domain.Event              `json:"event"`
	Associations    []domain.FaultAssociation `json:"associations"`
	RegionalSummary string                    `json:"regional_summary"`
	EducationalText string                    `json:"educational_text"`
	Source          string                    `json:"source"`
	RadiusKm        float64                   `json:"radius_km"`
	Limit           int                       `json:"limit"`
}

// FaultContextService answers "which faults relate to this event" with a
// cache-aside layer over the association store, backfilling derived rows
// on first request.
type FaultContextService struct {
	events     EventGetter
	assocs     AssociationStore
	backfiller *Backfiller
	cacheAside *CacheAside
	ttl        time.Duration
}

// NewFaultContextService wires the fault-context read path.
func NewFaultContextService(events EventGetter, assocs AssociationStore, backfiller *Backfiller, cacheAside *CacheAside, ttl time.Duration) *FaultContextService {
	return &FaultContextService{
		events:     events,
		assocs:     assocs,
		backfiller: backfiller,
		cacheAside: cacheAside,
		ttl:        ttl,
	}
}

// FaultContext returns the JSON payload for the event's fault context and
// whether it came from the cache. Unknown events yield domain.ErrNotFound.
func (s *FaultContextService) FaultContext(ctx context.Context, eventID string, radiusKm float64, limit int) ([]byte, bool, error) {
	if eventID == "" {
		return nil, false, &domain.ValidationError{Field: "event id", Reason: "must not be empty"}
	}
	if radiusKm <= 0 {
		return nil, false, &domain.ValidationError{Field: "radius_km", Reason: "must be positive"}
	}
	if limit <= 0 {
		return nil, false, &domain.ValidationError{Field: "limit", Reason: "must be positive"}
	}

	key := faultContextKey(eventID, radiusKm, limit)
	return s.cacheAside.Do(ctx, "fault_context", key, s.ttl, func(ctx context.Context) (any, error) {
		return s.compose(ctx, eventID, radiusKm, limit)
	})
}

// compose is the authoritative path: load the event, read its stored
// associations, backfill them if absent, and build the response.
func (s *FaultContextService) compose(ctx context.Context, eventID string, radiusKm float64, limit int) (FaultContextResponse, error) {
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return FaultContextResponse{}, err
	}

	assocs, err := s.assocs.AssociationsForEvent(ctx, eventID, limit)
	if err != nil {
		return FaultContextResponse{}, fmt.Errorf("read associations for %s: %w", eventID, err)
	}

	source := SourceStore
	if len(assocs) == 0 {
		if err := s.backfiller.Backfill(ctx, event, radiusKm); err != nil {
			return FaultContextResponse{}, err
		}
		// Re-query so the view is ranked and limited identically whether
		// or not backfill just ran.
		assocs, err = s.assocs.AssociationsForEvent(ctx, eventID, limit)
		if err != nil {
			return FaultContextResponse{}, fmt.Errorf("read associations for %s after backfill: %w", eventID, err)
		}
		source = SourceBackfill
	}

	// Keep the payload shape stable: no associations is [], not null.
	if assocs == nil {
		assocs = []domain.FaultAssociation{}
	}

	return FaultContextResponse{
		Event:           event,
		Associations:    assocs,
		RegionalSummary: regionalSummary(assocs, radiusKm),
		EducationalText: educationalText(assocs),
		Source:          source,
		RadiusKm:        radiusKm,
		Limit:           limit,
	}, nil
}

// regionalSummary condenses the association list into one sentence.
func regionalSummary(assocs []domain.FaultAssociation, radiusKm float64) string {
	if len(assocs) == 0 {
		return fmt.Sprintf("No mapped faults lie within %.0f km of this event.", radiusKm)
	}

	nearest := assocs[0]
	for _, a := range assocs[1:] {
		if a.DistanceKm < nearest.DistanceKm {
			nearest = a
		}
	}

	phrase := fmt.Sprintf("%d mapped faults lie", len(assocs))
	if len(assocs) == 1 {
		phrase = "1 mapped fault lies"
	}
	return fmt.Sprintf("%s within %.0f km of this event. The closest is the %s, about %d km away.",
		phrase, radiusKm, nearest.Fault.Name, int(math.Round(nearest.DistanceKm)))
}

// educationalText picks a templated explainer based on the strongest
// association's classification.
func educationalText(assocs []domain.FaultAssociation) string {
	const base = "Earthquakes release stress that accumulates along faults, " +
		"fractures in the Earth's crust where rock masses move past each other. " +
		"Proximity to a mapped fault does not prove causation, but it is the " +
		"strongest single indicator seismologists use to attribute an event."

	if len(assocs) == 0 {
		return base + " No mapped fault is close enough here to suggest a specific source; " +
			"many earthquakes occur on faults that have not yet been mapped."
	}

	switch assocs[0].Type {
	case domain.AssociationPrimary:
		return base + " The top-ranked fault below is close and active enough to be the likely source of this event."
	case domain.AssociationSecondary:
		return base + " The faults below are near enough to be plausibly related to this event."
	default:
		return base + " The faults below are too distant to be likely sources; they describe the regional tectonic setting."
	}
}
