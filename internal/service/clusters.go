package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/seismoview/quake-context-service/internal/domain"
	"github.com/seismoview/quake-context-service/internal/observability"
)

// EventBatchGetter reads multiple events, preserving request order.
type EventBatchGetter interface {
	GetEventsByIDs(ctx context.Context, ids []string) ([]domain.Event, error)
}

// DefinitionStore persists named cluster definitions.
type DefinitionStore interface {
	UpsertClusterDefinition(ctx context.Context, def domain.ClusterDefinition) (int, error)
	GetClusterDefinition(ctx context.Context, id string) (domain.ClusterDefinition, error)
}

// ClustersRequest is a batch clustering invocation.
type ClustersRequest struct {
	Events        []domain.Event `json:"events"`
	MaxDistanceKm float64        `json:"max_distance_km"`
	MinQuakes     int            `json:"min_quakes"`
}

// ClustersResponse is the computed grouping for one request.
type ClustersResponse struct {
	Clusters      []domain.Cluster `json:"clusters"`
	Count         int              `json:"count"`
	MaxDistanceKm float64          `json:"max_distance_km"`
	MinQuakes     int              `json:"min_quakes"`
}

// RegisterDefinitionRequest names a cluster for durable storage. Only ID
// and MemberEventIDs are required; summary statistics are derived from
// the member events on the server side.
type RegisterDefinitionRequest struct {
	ID               string   `json:"id"`
	MemberEventIDs   []string `json:"member_event_ids"`
	StrongestEventID string   `json:"strongest_event_id,omitempty"`
	Title            string   `json:"title,omitempty"`
	Description      string   `json:"description,omitempty"`
	LocationName     string   `json:"location_name,omitempty"`
}

// RegisterAck acknowledges a registration.
type RegisterAck struct {
	ID      string `json:"id"`
	Slug    string `json:"slug"`
	Version int    `json:"version"`
}

// ClusterService computes transient clusters and manages the durable
// cluster definition registry, both behind the cache-aside layer.
type ClusterService struct {
	events        EventBatchGetter
	defs          DefinitionStore
	cacheAside    *CacheAside
	clusterTTL    time.Duration
	definitionTTL time.Duration
	logger        *slog.Logger
	metrics       *observability.Metrics
}

// NewClusterService wires cluster computation and the definition registry.
func NewClusterService(events EventBatchGetter, defs DefinitionStore, cacheAside *CacheAside, clusterTTL, definitionTTL time.Duration, logger *slog.Logger, metrics *observability.Metrics) *ClusterService {
	return &ClusterService{
		events:        events,
		defs:          defs,
		cacheAside:    cacheAside,
		clusterTTL:    clusterTTL,
		definitionTTL: definitionTTL,
		logger:        logger,
		metrics:       metrics,
	}
}

// ComputeClusters groups the supplied batch and returns the JSON payload
// plus the cache-hit flag. The key covers the batch members and both
// parameters.
func (s *ClusterService) ComputeClusters(ctx context.Context, req ClustersRequest) ([]byte, bool, error) {
	if len(req.Events) == 0 {
		return nil, false, &domain.ValidationError{Field: "events", Reason: "must not be empty"}
	}
	if req.MaxDistanceKm <= 0 {
		return nil, false, &domain.ValidationError{Field: "max_distance_km", Reason: "must be positive"}
	}
	if req.MinQuakes < 1 {
		return nil, false, &domain.ValidationError{Field: "min_quakes", Reason: "must be at least 1"}
	}

	key := clustersKey(req.Events, req.MaxDistanceKm, req.MinQuakes)
	return s.cacheAside.Do(ctx, "clusters", key, s.clusterTTL, func(context.Context) (any, error) {
		s.metrics.ClusterBatchSize.Observe(float64(len(req.Events)))

		clusters := domain.FindClusters(req.Events, req.MaxDistanceKm, req.MinQuakes)
		s.metrics.ClustersFound.Observe(float64(len(clusters)))

		s.logger.Info("clusters computed",
			"events", len(req.Events),
			"max_distance_km", req.MaxDistanceKm,
			"min_quakes", req.MinQuakes,
			"clusters", len(clusters),
		)

		return ClustersResponse{
			Clusters:      clusters,
			Count:         len(clusters),
			MaxDistanceKm: req.MaxDistanceKm,
			MinQuakes:     req.MinQuakes,
		}, nil
	})
}

// RegisterDefinition validates the request, derives the summary fields
// from the member events, and upserts the definition. Replaying the same
// registration replaces the row and bumps its version.
func (s *ClusterService) RegisterDefinition(ctx context.Context, req RegisterDefinitionRequest) (RegisterAck, error) {
	if req.ID == "" {
		return RegisterAck{}, &domain.ValidationError{Field: "id", Reason: "must not be empty"}
	}
	if len(req.MemberEventIDs) == 0 {
		return RegisterAck{}, &domain.ValidationError{Field: "member_event_ids", Reason: "must not be empty"}
	}

	def, err := s.buildDefinition(ctx, req)
	if err != nil {
		return RegisterAck{}, err
	}

	version, err := s.defs.UpsertClusterDefinition(ctx, def)
	if err != nil {
		return RegisterAck{}, err
	}

	// A replaced definition must be visible to the next retrieval, not
	// after the cached read expires.
	s.cacheAside.Invalidate(ctx, "cluster_definition", definitionKey(def.ID))

	s.logger.Info("cluster definition registered", "id", def.ID, "slug", def.Slug, "version", version, "members", len(def.MemberEventIDs))
	return RegisterAck{ID: def.ID, Slug: def.Slug, Version: version}, nil
}

// GetDefinition retrieves a definition by identifier through the cache.
// Unknown identifiers yield domain.ErrNotFound; misses are never cached.
func (s *ClusterService) GetDefinition(ctx context.Context, id string) ([]byte, bool, error) {
	if id == "" {
		return nil, false, &domain.ValidationError{Field: "id", Reason: "must not be empty"}
	}

	return s.cacheAside.Do(ctx, "cluster_definition", definitionKey(id), s.definitionTTL, func(ctx context.Context) (any, error) {
		return s.defs.GetClusterDefinition(ctx, id)
	})
}

// buildDefinition derives the stored record from the request and the
// member events that still exist in the catalog.
func (s *ClusterService) buildDefinition(ctx context.Context, req RegisterDefinitionRequest) (domain.ClusterDefinition, error) {
	members, err := s.events.GetEventsByIDs(ctx, req.MemberEventIDs)
	if err != nil {
		return domain.ClusterDefinition{}, fmt.Errorf("load member events: %w", err)
	}

	// Every member must resolve, or the stored stats would describe a
	// different set of events than the member list claims.
	if len(members) != len(req.MemberEventIDs) {
		return domain.ClusterDefinition{}, &domain.ValidationError{
			Field:  "member_event_ids",
			Reason: fmt.Sprintf("%d of %d ids are unknown events", len(req.MemberEventIDs)-len(members), len(req.MemberEventIDs)),
		}
	}

	def := domain.ClusterDefinition{
		ID:               req.ID,
		Slug:             slugify(req.ID),
		StrongestEventID: req.StrongestEventID,
		MemberEventIDs:   req.MemberEventIDs,
		Title:            req.Title,
		Description:      req.Description,
		LocationName:     req.LocationName,
		QuakeCount:       len(members),
		UpdatedAt:        domain.Now(),
	}

	strongest := members[0]
	def.MaxMagnitude = members[0].Magnitude
	def.MinMagnitude = members[0].Magnitude
	def.MinDepthKm = members[0].DepthKm
	def.MaxDepthKm = members[0].DepthKm
	def.StartTime = members[0].Time
	def.EndTime = members[0].Time

	var magSum, latSum, lonSum float64
	for _, e := range members {
		magSum += e.Magnitude
		latSum += e.Lat
		lonSum += e.Lon

		if e.Magnitude > strongest.Magnitude {
			strongest = e
		}
		if e.Magnitude > def.MaxMagnitude {
			def.MaxMagnitude = e.Magnitude
		}
		if e.Magnitude < def.MinMagnitude {
			def.MinMagnitude = e.Magnitude
		}
		if e.DepthKm < def.MinDepthKm {
			def.MinDepthKm = e.DepthKm
		}
		if e.DepthKm > def.MaxDepthKm {
			def.MaxDepthKm = e.DepthKm
		}
		if e.Time.Before(def.StartTime) {
			def.StartTime = e.Time
		}
		if e.Time.After(def.EndTime) {
			def.EndTime = e.Time
		}
	}

	def.MeanMagnitude = magSum / float64(len(members))
	def.CentroidLat = latSum / float64(len(members))
	def.CentroidLon = lonSum / float64(len(members))
	def.DurationSeconds = int64(def.EndTime.Sub(def.StartTime).Seconds())
	def.Significance = domain.Significance(def.MaxMagnitude, def.QuakeCount)

	for _, e := range members {
		d := domain.HaversineKm(def.CentroidLat, def.CentroidLon, e.Lat, e.Lon)
		if d > def.RadiusKm {
			def.RadiusKm = d
		}
	}

	if def.StrongestEventID == "" {
		def.StrongestEventID = strongest.ID
	}
	if def.LocationName == "" {
		def.LocationName = strongest.Place
	}
	if def.Title == "" {
		def.Title = fmt.Sprintf("M%.1f cluster near %s", def.MaxMagnitude, def.LocationName)
	}

	return def, nil
}

// slugify turns an identifier into a URL-friendly slug: lowercase
// alphanumerics with single dashes.
func slugify(s string) string {
	var b strings.Builder
	lastDash := true // suppress a leading dash
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
