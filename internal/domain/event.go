package domain

import (
	"encoding/json"
	"time"
)

// LatLon is a WGS-84 coordinate pair in decimal degrees.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// BoundingBox is a latitude/longitude rectangle used for coarse spatial
// filtering before exact distance computation.
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

// Intersects reports whether two boxes overlap (closed intervals).
func (b BoundingBox) Intersects(o BoundingBox) bool {
	return b.MinLat <= o.MaxLat && b.MaxLat >= o.MinLat &&
		b.MinLon <= o.MaxLon && b.MaxLon >= o.MinLon
}

// Event is a seismic event record as received from the upstream catalog.
// Immutable once recorded; read-only to this service.
type Event struct {
	ID        string    `json:"id"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Magnitude float64   `json:"magnitude"`
	Place     string    `json:"place,omitempty"`
	DepthKm   float64   `json:"depth_km"`
	Time      time.Time `json:"time"`
}

// Fault is read-only reference data describing a mapped geological fault.
// Trace holds the raw polyline geometry exactly as stored; decode with
// ParseTrace before distance computation.
type Fault struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Movement      string          `json:"movement,omitempty"`
	SlipType      string          `json:"slip_type,omitempty"`
	ActivityLevel string          `json:"activity_level,omitempty"`
	SlipRateMmYr  float64         `json:"slip_rate_mm_yr,omitempty"`
	LengthKm      float64         `json:"length_km,omitempty"`
	Trace         json.RawMessage `json:"trace,omitempty"`
	BBox          BoundingBox     `json:"bbox"`
}

// AssociationType classifies how strongly an event relates to a fault.
// It is derived deterministically from (distance, relevance); see Classify.
type AssociationType string

const (
	AssociationPrimary         AssociationType = "primary"
	AssociationSecondary       AssociationType = "secondary"
	AssociationRegionalContext AssociationType = "regional_context"
)

// Association is the scored relationship between an event and a nearby
// fault, keyed by (EventID, FaultID). Rows are only ever replaced
// wholesale, never partially updated.
type Association struct {
	EventID          string          `json:"event_id"`
	FaultID          string          `json:"fault_id"`
	DistanceKm       float64         `json:"distance_km"`
	RelevanceScore   float64         `json:"relevance_score"`
	Type             AssociationType `json:"association_type"`
	RelationshipText string          `json:"relationship_text"`
	ProximityText    string          `json:"proximity_text"`
	RelevanceText    string          `json:"relevance_text"`
}

// FaultAssociation is an association joined with the attributes of its
// fault, the shape served to callers. The fault's trace and bounding box
// are omitted from reads; display only needs the descriptive attributes.
type FaultAssociation struct {
	Association
	Fault Fault `json:"fault"`
}

// Cluster is a transient, in-memory grouping of related events. It is
// recomputed on every clustering request and never persisted unless the
// caller explicitly registers a definition derived from it.
type Cluster struct {
	ID            string    `json:"id"`
	Events        []Event   `json:"events"`
	Strongest     Event     `json:"strongest"`
	CentroidLat   float64   `json:"centroid_lat"`
	CentroidLon   float64   `json:"centroid_lon"`
	LocationName  string    `json:"location_name,omitempty"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Count         int       `json:"count"`
	MaxMagnitude  float64   `json:"max_magnitude"`
	MeanMagnitude float64   `json:"mean_magnitude"`
	MinMagnitude  float64   `json:"min_magnitude"`
	MinDepthKm    float64   `json:"min_depth_km"`
	MaxDepthKm    float64   `json:"max_depth_km"`
	RadiusKm      float64   `json:"radius_km"`
	Significance  float64   `json:"significance"`
}

// ClusterDefinition is the durable, versioned record of a named cluster.
// MemberEventIDs keeps the caller-supplied order. Version increases
// monotonically on every replace-by-identifier upsert.
type ClusterDefinition struct {
	ID               string    `json:"id"`
	Slug             string    `json:"slug"`
	StrongestEventID string    `json:"strongest_event_id"`
	MemberEventIDs   []string  `json:"member_event_ids"`
	Title            string    `json:"title,omitempty"`
	Description      string    `json:"description,omitempty"`
	LocationName     string    `json:"location_name,omitempty"`
	MaxMagnitude     float64   `json:"max_magnitude"`
	MeanMagnitude    float64   `json:"mean_magnitude"`
	MinMagnitude     float64   `json:"min_magnitude"`
	MinDepthKm       float64   `json:"min_depth_km"`
	MaxDepthKm       float64   `json:"max_depth_km"`
	CentroidLat      float64   `json:"centroid_lat"`
	CentroidLon      float64   `json:"centroid_lon"`
	RadiusKm         float64   `json:"radius_km"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	DurationSeconds  int64     `json:"duration_seconds"`
	QuakeCount       int       `json:"quake_count"`
	Significance     float64   `json:"significance"`
	Version          int       `json:"version"`
	UpdatedAt        time.Time `json:"updated_at"`
}
