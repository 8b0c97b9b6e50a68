package service

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/seismoview/quake-context-service/internal/domain"
	"github.com/seismoview/quake-context-service/internal/observability"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

// fakeCache is an in-memory Cache with injectable failures.
type fakeCache struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
	setErr error
	delErr error
	sets   int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string][]byte{}}
}

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *fakeCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	if c.setErr != nil {
		return c.setErr
	}
	c.data[key] = value
	return nil
}

func (c *fakeCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.delErr != nil {
		return c.delErr
	}
	delete(c.data, key)
	return nil
}

func (c *fakeCache) setCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sets
}

func (c *fakeCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

// fakeEventStore serves events from a map.
type fakeEventStore struct {
	events map[string]domain.Event
}

func (s *fakeEventStore) GetEvent(_ context.Context, id string) (domain.Event, error) {
	e, ok := s.events[id]
	if !ok {
		return domain.Event{}, domain.ErrNotFound
	}
	return e, nil
}

func (s *fakeEventStore) GetEventsByIDs(_ context.Context, ids []string) ([]domain.Event, error) {
	var out []domain.Event
	for _, id := range ids {
		if e, ok := s.events[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// fakeFaultStore returns a fixed candidate list, pre-filtered by bbox.
type fakeFaultStore struct {
	faults []domain.Fault
	err    error
}

func (s *fakeFaultStore) FaultsIntersecting(_ context.Context, box domain.BoundingBox) ([]domain.Fault, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []domain.Fault
	for _, f := range s.faults {
		if f.BBox.Intersects(box) {
			out = append(out, f)
		}
	}
	return out, nil
}

// fakeAssocStore mimics the ranked association read over upserted rows.
type fakeAssocStore struct {
	mu     sync.Mutex
	rows   map[string]map[string]domain.Association // eventID → faultID → row
	faults map[string]domain.Fault
}

func newFakeAssocStore(faults ...domain.Fault) *fakeAssocStore {
	byID := map[string]domain.Fault{}
	for _, f := range faults {
		byID[f.ID] = f
	}
	return &fakeAssocStore{rows: map[string]map[string]domain.Association{}, faults: byID}
}

func (s *fakeAssocStore) UpsertAssociation(_ context.Context, a domain.Association) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rows[a.EventID] == nil {
		s.rows[a.EventID] = map[string]domain.Association{}
	}
	s.rows[a.EventID][a.FaultID] = a
	return nil
}

func (s *fakeAssocStore) AssociationsForEvent(_ context.Context, eventID string, limit int) ([]domain.FaultAssociation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.FaultAssociation
	for _, a := range s.rows[eventID] {
		fa := domain.FaultAssociation{Association: a}
		if f, ok := s.faults[a.FaultID]; ok {
			f.Trace = nil
			fa.Fault = f
		} else {
			fa.Fault = domain.Fault{ID: a.FaultID}
		}
		out = append(out, fa)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RelevanceScore != out[j].RelevanceScore {
			return out[i].RelevanceScore > out[j].RelevanceScore
		}
		return out[i].DistanceKm < out[j].DistanceKm
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeAssocStore) rowCount(eventID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows[eventID])
}

// fakeDefStore persists definitions in memory with version bumps.
type fakeDefStore struct {
	mu    sync.Mutex
	defs  map[string]domain.ClusterDefinition
	calls int
}

func newFakeDefStore() *fakeDefStore {
	return &fakeDefStore{defs: map[string]domain.ClusterDefinition{}}
}

func (s *fakeDefStore) UpsertClusterDefinition(_ context.Context, def domain.ClusterDefinition) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	def.Version = 1
	if old, ok := s.defs[def.ID]; ok {
		def.Version = old.Version + 1
	}
	s.defs[def.ID] = def
	return def.Version, nil
}

func (s *fakeDefStore) GetClusterDefinition(_ context.Context, id string) (domain.ClusterDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	def, ok := s.defs[id]
	if !ok {
		return domain.ClusterDefinition{}, domain.ErrNotFound
	}
	return def, nil
}

func (s *fakeDefStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
