// Package domain models seismic events, geological faults, and the derived
// relationships between them.
//
// # Data Source
//
// Event records originate from the upstream seismic feed (USGS-style
// catalog rows) and are read-only here: identifier, epicenter, magnitude,
// depth, place name, and origin time. Fault reference data comes from a
// regional fault database: each fault carries a polyline trace (the surface
// rupture line), a precomputed bounding box for coarse spatial filtering,
// and descriptive attributes (slip type, slip rate, activity level, length).
//
// # Geometry Conventions
//
// Coordinates are WGS-84 decimal degrees. Fault traces are stored as JSON
// arrays of [lat, lon] vertex pairs; consecutive pairs form the segments
// used for point-to-fault distance. All distances are kilometers computed
// on a 6371 km sphere.
//
// # Derived Data
//
// Event-fault associations are computed lazily: distance to the fault
// trace, a weighted relevance score in [0,1], a classification
// (primary, secondary, regional_context), and natural-language description
// strings for display. The classification is a pure function of
// (distance, relevance) so stored rows can never disagree with the
// scoring rule.
//
// Clusters are transient groupings of events by great-circle proximity.
// They are only persisted when a caller explicitly registers a named
// cluster definition.
package domain
