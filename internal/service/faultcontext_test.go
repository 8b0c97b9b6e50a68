package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seismoview/quake-context-service/internal/domain"
)

func TestFaultContextService_FaultContext(t *testing.T) {
	ctx := context.Background()

	event := domain.Event{
		ID:        "ev-1",
		Lat:       34.0,
		Lon:       -118.0,
		Magnitude: 4.8,
		Place:     "5km NE of Whittier, CA",
		DepthKm:   9.2,
		Time:      time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC),
	}

	onFault := domain.Fault{
		ID:           "flt-on",
		Name:         "Puente Hills fault",
		SlipRateMmYr: 20,
		LengthKm:     120,
		Trace:        trace([2]float64{33.9, -118.1}, [2]float64{34.1, -117.9}),
		BBox:         boxAround(34.0, -118.0, 0.2),
	}
	nearby := domain.Fault{
		ID:       "flt-near",
		Name:     "Whittier fault",
		LengthKm: 40,
		Trace:    trace([2]float64{34.1, -118.1}, [2]float64{34.1, -117.9}),
		BBox:     boxAround(34.1, -118.0, 0.15),
	}

	newService := func(assocs *fakeAssocStore, faults *fakeFaultStore, c *fakeCache) *FaultContextService {
		m := testMetrics()
		backfiller := NewBackfiller(faults, assocs, testLogger(), m)
		ca := NewCacheAside(c, testLogger(), m)
		events := &fakeEventStore{events: map[string]domain.Event{event.ID: event}}
		return NewFaultContextService(events, assocs, backfiller, ca, 15*time.Minute)
	}

	t.Run("first read backfills and reports source", func(t *testing.T) {
		assocs := newFakeAssocStore(onFault, nearby)
		svc := newService(assocs, &fakeFaultStore{faults: []domain.Fault{onFault, nearby}}, newFakeCache())

		payload, hit, err := svc.FaultContext(ctx, "ev-1", 100, 5)
		require.NoError(t, err)
		assert.False(t, hit)

		var resp FaultContextResponse
		require.NoError(t, json.Unmarshal(payload, &resp))
		assert.Equal(t, SourceBackfill, resp.Source)
		assert.Equal(t, "ev-1", resp.Event.ID)
		require.Len(t, resp.Associations, 2)
		assert.Equal(t, "flt-on", resp.Associations[0].FaultID)
		assert.Equal(t, domain.AssociationPrimary, resp.Associations[0].Type)
		assert.Equal(t, 2, assocs.rowCount("ev-1"))
	})

	t.Run("stored associations are served without backfilling", func(t *testing.T) {
		assocs := newFakeAssocStore(onFault)
		require.NoError(t, assocs.UpsertAssociation(ctx, domain.NewAssociation(event, onFault, 0.4)))
		// No candidate faults: a backfill here would find nothing.
		svc := newService(assocs, &fakeFaultStore{}, newFakeCache())

		payload, _, err := svc.FaultContext(ctx, "ev-1", 100, 5)
		require.NoError(t, err)

		var resp FaultContextResponse
		require.NoError(t, json.Unmarshal(payload, &resp))
		assert.Equal(t, SourceStore, resp.Source)
		require.Len(t, resp.Associations, 1)
		assert.Equal(t, "flt-on", resp.Associations[0].FaultID)
	})

	t.Run("repeat request is a byte-identical cache hit", func(t *testing.T) {
		assocs := newFakeAssocStore(onFault, nearby)
		c := newFakeCache()
		svc := newService(assocs, &fakeFaultStore{faults: []domain.Fault{onFault, nearby}}, c)

		first, hit, err := svc.FaultContext(ctx, "ev-1", 100, 5)
		require.NoError(t, err)
		require.False(t, hit)
		require.Eventually(t, func() bool { return c.setCount() > 0 }, time.Second, 5*time.Millisecond)

		second, hit, err := svc.FaultContext(ctx, "ev-1", 100, 5)
		require.NoError(t, err)
		assert.True(t, hit)
		assert.Equal(t, first, second)
	})

	t.Run("limit truncates after ranking", func(t *testing.T) {
		assocs := newFakeAssocStore(onFault, nearby)
		svc := newService(assocs, &fakeFaultStore{faults: []domain.Fault{onFault, nearby}}, newFakeCache())

		payload, _, err := svc.FaultContext(ctx, "ev-1", 100, 1)
		require.NoError(t, err)

		var resp FaultContextResponse
		require.NoError(t, json.Unmarshal(payload, &resp))
		require.Len(t, resp.Associations, 1)
		assert.Equal(t, "flt-on", resp.Associations[0].FaultID)
		// Both rows were still scored and stored.
		assert.Equal(t, 2, assocs.rowCount("ev-1"))
	})

	t.Run("no faults in radius yields an empty but well-formed response", func(t *testing.T) {
		svc := newService(newFakeAssocStore(), &fakeFaultStore{}, newFakeCache())

		payload, _, err := svc.FaultContext(ctx, "ev-1", 100, 5)
		require.NoError(t, err)

		// Clients get a stable shape: an empty array, never null.
		assert.Contains(t, string(payload), `"associations":[]`)

		var resp FaultContextResponse
		require.NoError(t, json.Unmarshal(payload, &resp))
		assert.Empty(t, resp.Associations)
		assert.Equal(t, SourceBackfill, resp.Source)
		assert.Contains(t, resp.RegionalSummary, "No mapped faults")
		assert.Contains(t, resp.EducationalText, "not yet been mapped")
	})

	t.Run("unknown event", func(t *testing.T) {
		svc := newService(newFakeAssocStore(), &fakeFaultStore{}, newFakeCache())

		_, _, err := svc.FaultContext(ctx, "ev-missing", 100, 5)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("parameter validation", func(t *testing.T) {
		svc := newService(newFakeAssocStore(), &fakeFaultStore{}, newFakeCache())

		_, _, err := svc.FaultContext(ctx, "", 100, 5)
		assert.True(t, domain.IsValidation(err))

		_, _, err = svc.FaultContext(ctx, "ev-1", -10, 5)
		assert.True(t, domain.IsValidation(err))

		_, _, err = svc.FaultContext(ctx, "ev-1", 100, 0)
		assert.True(t, domain.IsValidation(err))
	})
}

func TestRegionalSummary(t *testing.T) {
	t.Run("names the nearest fault", func(t *testing.T) {
		assocs := []domain.FaultAssociation{
			{Association: domain.Association{DistanceKm: 12.2}, Fault: domain.Fault{Name: "Far fault"}},
			{Association: domain.Association{DistanceKm: 3.4}, Fault: domain.Fault{Name: "Near fault"}},
		}
		got := regionalSummary(assocs, 100)
		assert.Contains(t, got, "2 mapped faults")
		assert.Contains(t, got, "Near fault")
		assert.Contains(t, got, "about 3 km away")
	})

	t.Run("singular form for one fault", func(t *testing.T) {
		assocs := []domain.FaultAssociation{
			{Association: domain.Association{DistanceKm: 8}, Fault: domain.Fault{Name: "Lone fault"}},
		}
		assert.Contains(t, regionalSummary(assocs, 50), "1 mapped fault lies")
	})
}
