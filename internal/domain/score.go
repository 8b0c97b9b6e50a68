package domain

import (
	"fmt"
	"math"
)

// Scoring weights and normalization constants. Distance dominates, then
// fault activity, then fault size.
const (
	distanceWeight = 0.5
	activityWeight = 0.3
	sizeWeight     = 0.2

	distanceFalloffKm = 100.0 // score reaches 0 at this distance
	slipRateFullMmYr  = 50.0  // slip rate at which activity saturates
	lengthFullKm      = 100.0 // fault length at which size saturates
)

// Classification thresholds. Primary means "likely the causative fault",
// secondary "plausibly related", regional_context everything else.
const (
	primaryMaxKm          = 5.0
	primaryMinRelevance   = 0.7
	secondaryMaxKm        = 20.0
	secondaryMinRelevance = 0.5
	activeSlipRateMmYr    = 10.0
	moderateDistanceMaxKm = 50.0
	directOnFaultKm       = 1.0
)

// RelevanceScore combines proximity, fault activity, and fault size into a
// single score in [0,1]. Missing slip rate or length contribute zero.
func RelevanceScore(distanceKm float64, fault Fault) float64 {
	distanceScore := math.Max(0, 1-distanceKm/distanceFalloffKm)
	activityScore := math.Min(1, fault.SlipRateMmYr/slipRateFullMmYr)
	sizeScore := math.Min(1, fault.LengthKm/lengthFullKm)

	return distanceWeight*distanceScore + activityWeight*activityScore + sizeWeight*sizeScore
}

// Classify derives the association type from distance and relevance.
// It is the only place the classification rule lives, so stored rows can
// never disagree with it.
func Classify(distanceKm, relevance float64) AssociationType {
	switch {
	case distanceKm < primaryMaxKm && relevance > primaryMinRelevance:
		return AssociationPrimary
	case distanceKm < secondaryMaxKm && relevance > secondaryMinRelevance:
		return AssociationSecondary
	default:
		return AssociationRegionalContext
	}
}

// NewAssociation scores, classifies, and describes the relationship
// between an event and a fault at the given trace distance.
func NewAssociation(event Event, fault Fault, distanceKm float64) Association {
	relevance := RelevanceScore(distanceKm, fault)

	return Association{
		EventID:          event.ID,
		FaultID:          fault.ID,
		DistanceKm:       distanceKm,
		RelevanceScore:   relevance,
		Type:             Classify(distanceKm, relevance),
		RelationshipText: describeRelationship(distanceKm, fault),
		ProximityText:    describeProximity(distanceKm),
		RelevanceText:    describeRelevance(distanceKm, fault),
	}
}

// describeRelationship picks one of four canned sentences by distance.
func describeRelationship(distanceKm float64, fault Fault) string {
	switch {
	case distanceKm < directOnFaultKm:
		return fmt.Sprintf("This earthquake happened directly on the %s.", fault.Name)
	case distanceKm < primaryMaxKm:
		return fmt.Sprintf("This earthquake occurred very close to the %s.", fault.Name)
	case distanceKm < secondaryMaxKm:
		return fmt.Sprintf("This earthquake occurred near the %s.", fault.Name)
	default:
		return fmt.Sprintf("The %s lies in the broader region around this earthquake.", fault.Name)
	}
}

// describeProximity embeds the rounded distance, laddering out to "far".
func describeProximity(distanceKm float64) string {
	rounded := int(math.Round(distanceKm))
	switch {
	case distanceKm < directOnFaultKm:
		return "Right on the fault trace."
	case distanceKm < primaryMaxKm:
		return fmt.Sprintf("Very close: about %d km from the fault.", rounded)
	case distanceKm < secondaryMaxKm:
		return fmt.Sprintf("Nearby: about %d km from the fault.", rounded)
	case distanceKm < moderateDistanceMaxKm:
		return fmt.Sprintf("A moderate distance of about %d km from the fault.", rounded)
	default:
		return fmt.Sprintf("Far from the fault, about %d km away.", rounded)
	}
}

// describeRelevance crosses the distance ladder with slip-rate activity.
func describeRelevance(distanceKm float64, fault Fault) string {
	active := fault.SlipRateMmYr >= activeSlipRateMmYr
	switch {
	case distanceKm < primaryMaxKm && active:
		return "A highly active fault this close is very likely related to this earthquake."
	case distanceKm < primaryMaxKm:
		return "Even with a modest slip rate, a fault this close is a strong candidate source."
	case distanceKm < secondaryMaxKm && active:
		return "This active fault is near enough to be a plausible source."
	case distanceKm < secondaryMaxKm:
		return "This fault is near enough to matter, though its low slip rate makes a direct link less likely."
	default:
		return "At this distance the fault mainly provides regional tectonic context."
	}
}
