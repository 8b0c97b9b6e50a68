// Command seed loads fault reference data and event fixtures into the
// durable store. Fault traces come from a JSON file; events can come
// from a file or be generated as a reproducible demo swarm around a
// chosen epicenter.
//
// Usage:
//
//	go run ./cmd/seed \
//	  -db-url postgres://localhost:5432/quake_context \
//	  -faults data/faults.json \
//	  -events data/events.json
//
//	go run ./cmd/seed -db-url ... -faults data/faults.json -demo
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/seismoview/quake-context-service/internal/adapter/postgres"
	"github.com/seismoview/quake-context-service/internal/domain"
)

var demoEpoch = time.Date(2026, time.March, 14, 8, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	dbURL := flag.String("db-url", os.Getenv("DB_URL"), "postgres connection string")
	faultsPath := flag.String("faults", "", "path to fault reference JSON")
	eventsPath := flag.String("events", "", "path to event fixture JSON")
	demo := flag.Bool("demo", false, "generate a reproducible demo swarm instead of loading -events")
	demoLat := flag.Float64("demo-lat", 34.0, "demo swarm epicenter latitude")
	demoLon := flag.Float64("demo-lon", -118.0, "demo swarm epicenter longitude")
	demoCount := flag.Int("demo-count", 25, "demo swarm event count")
	flag.Parse()

	if *dbURL == "" {
		flag.Usage()
		return fmt.Errorf("missing -db-url (or DB_URL)")
	}
	if *faultsPath == "" && *eventsPath == "" && !*demo {
		flag.Usage()
		return fmt.Errorf("nothing to load: pass -faults, -events, or -demo")
	}

	// Demo timestamps come from the package clock; freezing it at the
	// epoch makes repeated runs upsert identical rows.
	domain.SetClock(clockwork.NewFakeClockAt(demoEpoch))
	defer domain.SetClock(nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store, err := postgres.New(ctx, *dbURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	if *faultsPath != "" {
		n, err := loadFaults(ctx, store, *faultsPath)
		if err != nil {
			return fmt.Errorf("loading faults: %w", err)
		}
		log.Printf("faults: %d upserted", n)
	}

	if *eventsPath != "" {
		n, err := loadEvents(ctx, store, *eventsPath)
		if err != nil {
			return fmt.Errorf("loading events: %w", err)
		}
		log.Printf("events: %d upserted", n)
	}

	if *demo {
		n, err := seedDemoSwarm(ctx, store, *demoLat, *demoLon, *demoCount)
		if err != nil {
			return fmt.Errorf("seeding demo swarm: %w", err)
		}
		log.Printf("demo swarm: %d events around (%g, %g)", n, *demoLat, *demoLon)
	}

	return nil
}

func loadFaults(ctx context.Context, store *postgres.Store, path string) (int, error) {
	var faults []domain.Fault
	if err := readJSON(path, &faults); err != nil {
		return 0, err
	}

	for i, f := range faults {
		if f.ID == "" {
			return i, fmt.Errorf("fault %d: missing id", i)
		}
		// Derive the bounding box from the trace when the file omits it.
		if f.BBox == (domain.BoundingBox{}) {
			box, err := traceBounds(f.Trace)
			if err != nil {
				return i, fmt.Errorf("fault %s: %w", f.ID, err)
			}
			f.BBox = box
		}
		if err := store.UpsertFault(ctx, f); err != nil {
			return i, fmt.Errorf("fault %s: %w", f.ID, err)
		}
	}
	return len(faults), nil
}

func loadEvents(ctx context.Context, store *postgres.Store, path string) (int, error) {
	var events []domain.Event
	if err := readJSON(path, &events); err != nil {
		return 0, err
	}

	for i, e := range events {
		if e.ID == "" {
			e.ID = uuid.New().String()
		}
		if err := store.UpsertEvent(ctx, e); err != nil {
			return i, fmt.Errorf("event %s: %w", e.ID, err)
		}
	}
	return len(events), nil
}

// seedDemoSwarm writes a mainshock plus a decaying aftershock sequence
// scattered within ~15 km of the epicenter. The RNG seed is fixed so
// repeated runs upsert identical rows.
func seedDemoSwarm(ctx context.Context, store *postgres.Store, lat, lon float64, count int) (int, error) {
	rng := rand.New(rand.NewSource(42))
	base := domain.Now()

	for i := 0; i < count; i++ {
		mag := 5.2 - 2.5*math.Log10(float64(i)+1)*rng.Float64()
		if mag < 1.0 {
			mag = 1.0 + rng.Float64()
		}

		e := domain.Event{
			ID:        fmt.Sprintf("demo-%03d", i),
			Lat:       lat + (rng.Float64()-0.5)*0.25,
			Lon:       lon + (rng.Float64()-0.5)*0.25,
			Magnitude: math.Round(mag*10) / 10,
			Place:     fmt.Sprintf("demo swarm near (%.2f, %.2f)", lat, lon),
			DepthKm:   3 + rng.Float64()*12,
			Time:      base.Add(time.Duration(i) * 17 * time.Minute),
		}
		if i == 0 {
			e.Lat, e.Lon, e.Magnitude = lat, lon, 5.2
		}

		if err := store.UpsertEvent(ctx, e); err != nil {
			return i, fmt.Errorf("event %s: %w", e.ID, err)
		}
	}
	return count, nil
}

// traceBounds computes the axis-aligned bounds of a fault trace.
func traceBounds(raw json.RawMessage) (domain.BoundingBox, error) {
	trace, err := domain.ParseTrace(raw)
	if err != nil {
		return domain.BoundingBox{}, err
	}
	if len(trace) == 0 {
		return domain.BoundingBox{}, fmt.Errorf("empty trace")
	}

	box := domain.BoundingBox{
		MinLat: trace[0].Lat, MaxLat: trace[0].Lat,
		MinLon: trace[0].Lon, MaxLon: trace[0].Lon,
	}
	for _, p := range trace[1:] {
		box.MinLat = math.Min(box.MinLat, p.Lat)
		box.MaxLat = math.Max(box.MaxLat, p.Lat)
		box.MinLon = math.Min(box.MinLon, p.Lon)
		box.MaxLon = math.Max(box.MaxLon, p.Lon)
	}
	return box, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
