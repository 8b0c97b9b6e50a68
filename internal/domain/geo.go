package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

const (
	earthRadiusKm = 6371.0

	// kmPerDegreeLat approximates one degree of latitude; longitude degrees
	// shrink with the cosine of latitude.
	kmPerDegreeLat = 111.0
)

// InfiniteKm is the sentinel distance for malformed or empty fault
// geometry. Callers filter it out instead of failing the whole request.
var InfiniteKm = math.Inf(1)

// HaversineKm returns the great-circle distance between two coordinates
// in kilometers. Zero for identical points, symmetric in its arguments.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// PointToSegmentKm returns the minimum distance in kilometers from p to
// the segment a-b. The projection is computed in a locally flattened
// plane (longitude scaled by the cosine of the mean latitude) and the
// projection parameter clamped to [0,1], so points projecting past an
// endpoint measure to that endpoint. A zero-length segment degrades to
// plain point distance.
func PointToSegmentKm(p, a, b LatLon) float64 {
	meanLat := radians((a.Lat + b.Lat) / 2)
	lonScale := math.Cos(meanLat)

	ax, ay := a.Lon*lonScale, a.Lat
	bx, by := b.Lon*lonScale, b.Lat
	px, py := p.Lon*lonScale, p.Lat

	dx, dy := bx-ax, by-ay
	segLenSq := dx*dx + dy*dy
	if segLenSq == 0 {
		return HaversineKm(p.Lat, p.Lon, a.Lat, a.Lon)
	}

	t := ((px-ax)*dx + (py-ay)*dy) / segLenSq
	t = math.Max(0, math.Min(1, t))

	nearLat := a.Lat + t*(b.Lat-a.Lat)
	nearLon := a.Lon + t*(b.Lon-a.Lon)

	return HaversineKm(p.Lat, p.Lon, nearLat, nearLon)
}

// DistanceToFaultKm returns the minimum distance from p to any segment of
// the fault trace. Traces with fewer than two vertices yield InfiniteKm.
func DistanceToFaultKm(p LatLon, trace []LatLon) float64 {
	if len(trace) < 2 {
		return InfiniteKm
	}

	minKm := InfiniteKm
	for i := 0; i < len(trace)-1; i++ {
		if d := PointToSegmentKm(p, trace[i], trace[i+1]); d < minKm {
			minKm = d
		}
	}
	return minKm
}

// ParseTrace decodes a fault geometry column: a JSON array of [lat, lon]
// vertex pairs. Rows that are not two-element numeric arrays are rejected.
func ParseTrace(raw []byte) ([]LatLon, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("parse trace: empty geometry")
	}

	var pairs [][]float64
	if err := json.Unmarshal(raw, &pairs); err != nil {
		return nil, fmt.Errorf("parse trace: %w", err)
	}

	trace := make([]LatLon, 0, len(pairs))
	for i, pair := range pairs {
		if len(pair) != 2 {
			return nil, fmt.Errorf("parse trace: vertex %d has %d elements, want 2", i, len(pair))
		}
		trace = append(trace, LatLon{Lat: pair[0], Lon: pair[1]})
	}
	return trace, nil
}

// BoundingBoxAround returns the lat/lon rectangle covering radiusKm around
// p, for coarse fault filtering before exact distance computation.
func BoundingBoxAround(p LatLon, radiusKm float64) BoundingBox {
	latDelta := radiusKm / kmPerDegreeLat

	// Longitude degrees collapse near the poles; cap the cosine so the box
	// stays finite rather than spanning the globe.
	cosLat := math.Cos(radians(p.Lat))
	if cosLat < 0.01 {
		cosLat = 0.01
	}
	lonDelta := radiusKm / (kmPerDegreeLat * cosLat)

	return BoundingBox{
		MinLat: p.Lat - latDelta,
		MaxLat: p.Lat + latDelta,
		MinLon: p.Lon - lonDelta,
		MaxLon: p.Lon + lonDelta,
	}
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
