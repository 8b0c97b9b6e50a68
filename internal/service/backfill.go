package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/seismoview/quake-context-service/internal/domain"
	"github.com/seismoview/quake-context-service/internal/observability"
)

// FaultFinder reads fault reference data by bounding box.
type FaultFinder interface {
	FaultsIntersecting(ctx context.Context, box domain.BoundingBox) ([]domain.Fault, error)
}

// AssociationStore reads and writes scored event-fault associations.
type AssociationStore interface {
	UpsertAssociation(ctx context.Context, a domain.Association) error
	AssociationsForEvent(ctx context.Context, eventID string, limit int) ([]domain.FaultAssociation, error)
}

// Backfiller computes and persists the fault associations for one event.
// It runs when a fault-context read finds no stored rows, and is
// idempotent: replaying it converges on identical rows.
type Backfiller struct {
	faults  FaultFinder
	assocs  AssociationStore
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewBackfiller creates a Backfiller over the given stores.
func NewBackfiller(faults FaultFinder, assocs AssociationStore, logger *slog.Logger, metrics *observability.Metrics) *Backfiller {
	return &Backfiller{faults: faults, assocs: assocs, logger: logger, metrics: metrics}
}

// Backfill scores every fault within radiusKm of the event and upserts
// the resulting associations. Faults with unparsable geometry are logged
// and skipped rather than failing the run.
func (b *Backfiller) Backfill(ctx context.Context, event domain.Event, radiusKm float64) error {
	b.metrics.BackfillRuns.Inc()

	epicenter := domain.LatLon{Lat: event.Lat, Lon: event.Lon}
	box := domain.BoundingBoxAround(epicenter, radiusKm)

	candidates, err := b.faults.FaultsIntersecting(ctx, box)
	if err != nil {
		return fmt.Errorf("find candidate faults for %s: %w", event.ID, err)
	}

	scored := 0
	for _, fault := range candidates {
		distanceKm := b.traceDistance(epicenter, fault)
		if distanceKm > radiusKm {
			// Bounding boxes over-approximate; exact distance decides.
			continue
		}

		assoc := domain.NewAssociation(event, fault, distanceKm)
		if err := b.assocs.UpsertAssociation(ctx, assoc); err != nil {
			return fmt.Errorf("persist association %s/%s: %w", event.ID, fault.ID, err)
		}
		b.metrics.AssociationsUpserted.Inc()
		scored++
	}

	b.metrics.BackfillFaultsScored.Observe(float64(scored))
	b.logger.Info("fault associations backfilled",
		"event_id", event.ID,
		"radius_km", radiusKm,
		"candidates", len(candidates),
		"scored", scored,
	)
	return nil
}

// traceDistance returns the exact distance to the fault trace, or the
// infinite sentinel when the geometry cannot be parsed.
func (b *Backfiller) traceDistance(p domain.LatLon, fault domain.Fault) float64 {
	trace, err := domain.ParseTrace(fault.Trace)
	if err != nil {
		b.logger.Warn("skipping fault with malformed trace", "fault_id", fault.ID, "error", err)
		return domain.InfiniteKm
	}
	return domain.DistanceToFaultKm(p, trace)
}
