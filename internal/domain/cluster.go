package domain

import (
	"math"
	"sort"

	"github.com/google/uuid"
)

// significanceMagnitudeWeight scales max magnitude into the significance
// score alongside the raw quake count.
const significanceMagnitudeWeight = 10.0

// Significance scores a cluster for ranking: magnitude dominates, with
// the raw quake count as a tiebreaker. Shared by transient clusters and
// registered definitions so the two never disagree.
func Significance(maxMagnitude float64, count int) float64 {
	return maxMagnitude*significanceMagnitudeWeight + float64(count)
}

// FindClusters groups events by great-circle proximity.
//
// Algorithm (single-pass, seed-greedy):
//  1. Sort events by magnitude descending, stable, so strong events
//     preferentially become seeds.
//  2. Each unassigned event in order seeds a new cluster; every other
//     unassigned event within maxDistanceKm of the seed joins it.
//  3. Clusters smaller than minQuakes are discarded wholesale; their
//     members stay assigned and are not reconsidered.
//
// Linking is distance-only. Member times are carried for display, but no
// temporal window is applied.
func FindClusters(events []Event, maxDistanceKm float64, minQuakes int) []Cluster {
	if minQuakes < 1 {
		minQuakes = 1
	}

	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Magnitude > sorted[j].Magnitude
	})

	assigned := make(map[string]bool, len(sorted))
	clusters := make([]Cluster, 0)

	for i, seed := range sorted {
		if assigned[seed.ID] {
			continue
		}
		assigned[seed.ID] = true
		members := []Event{seed}

		for _, other := range sorted[i+1:] {
			if assigned[other.ID] {
				continue
			}
			if HaversineKm(seed.Lat, seed.Lon, other.Lat, other.Lon) <= maxDistanceKm {
				assigned[other.ID] = true
				members = append(members, other)
			}
		}

		// Undersized clusters are dropped entirely; members are not
		// redistributed to later seeds.
		if len(members) < minQuakes {
			continue
		}
		clusters = append(clusters, summarizeCluster(members))
	}

	return clusters
}

// summarizeCluster derives the display attributes of a cluster from its
// members. The first member is the seed, which by construction has the
// highest magnitude.
func summarizeCluster(members []Event) Cluster {
	strongest := members[0]

	c := Cluster{
		ID:           uuid.New().String(),
		Events:       members,
		Strongest:    strongest,
		LocationName: strongest.Place,
		Count:        len(members),
		StartTime:    members[0].Time,
		EndTime:      members[0].Time,
		MaxMagnitude: members[0].Magnitude,
		MinMagnitude: members[0].Magnitude,
		MinDepthKm:   members[0].DepthKm,
		MaxDepthKm:   members[0].DepthKm,
	}

	var magSum, latSum, lonSum float64
	for _, e := range members {
		magSum += e.Magnitude
		latSum += e.Lat
		lonSum += e.Lon

		if e.Magnitude > c.MaxMagnitude {
			c.MaxMagnitude = e.Magnitude
		}
		if e.Magnitude < c.MinMagnitude {
			c.MinMagnitude = e.Magnitude
		}
		if e.DepthKm < c.MinDepthKm {
			c.MinDepthKm = e.DepthKm
		}
		if e.DepthKm > c.MaxDepthKm {
			c.MaxDepthKm = e.DepthKm
		}
		if e.Time.Before(c.StartTime) {
			c.StartTime = e.Time
		}
		if e.Time.After(c.EndTime) {
			c.EndTime = e.Time
		}
	}

	c.MeanMagnitude = magSum / float64(len(members))
	c.CentroidLat = latSum / float64(len(members))
	c.CentroidLon = lonSum / float64(len(members))

	for _, e := range members {
		d := HaversineKm(c.CentroidLat, c.CentroidLon, e.Lat, e.Lon)
		c.RadiusKm = math.Max(c.RadiusKm, d)
	}

	c.Significance = Significance(c.MaxMagnitude, c.Count)

	return c
}
