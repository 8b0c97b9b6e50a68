package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for the service.
type Metrics struct {
	// Cache-aside metrics.
	CacheLookups       *prometheus.CounterVec // labels: operation, result={hit,miss,error}
	CacheWriteFailures prometheus.Counter

	// Fault association backfill metrics.
	BackfillRuns         prometheus.Counter
	BackfillFaultsScored prometheus.Histogram
	AssociationsUpserted prometheus.Counter

	// Clustering metrics.
	ClusterBatchSize prometheus.Histogram
	ClustersFound    prometheus.Histogram

	// HTTP metrics.
	RequestDuration *prometheus.HistogramVec // labels: endpoint
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.CacheLookups,
		m.CacheWriteFailures,
		m.BackfillRuns,
		m.BackfillFaultsScored,
		m.AssociationsUpserted,
		m.ClusterBatchSize,
		m.ClustersFound,
		m.RequestDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quake_context",
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by operation and result.",
		}, []string{"operation", "result"}),
		CacheWriteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_context",
			Name:      "cache_write_failures_total",
			Help:      "Background cache write-backs that failed.",
		}),
		BackfillRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_context",
			Name:      "backfill_runs_total",
			Help:      "Fault association backfills triggered by empty reads.",
		}),
		BackfillFaultsScored: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quake_context",
			Name:      "backfill_faults_scored",
			Help:      "Candidate faults scored per backfill run.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}),
		AssociationsUpserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quake_context",
			Name:      "associations_upserted_total",
			Help:      "Event-fault association rows written.",
		}),
		ClusterBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quake_context",
			Name:      "cluster_batch_size",
			Help:      "Events per clustering request.",
			Buckets:   []float64{1, 10, 50, 100, 250, 500, 1000, 2500},
		}),
		ClustersFound: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quake_context",
			Name:      "clusters_found",
			Help:      "Clusters returned per clustering request.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "quake_context",
			Name:      "request_duration_seconds",
			Help:      "API request duration by endpoint.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"endpoint"}),
	}
}
