// Package httpapi exposes the service over HTTP: the fault-context and
// clustering APIs under /api/v1, plus health, readiness, and metrics
// endpoints.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/seismoview/quake-context-service/internal/observability"
	"github.com/seismoview/quake-context-service/internal/service"
)

// FaultContextAPI serves fault-context reads.
type FaultContextAPI interface {
	FaultContext(ctx context.Context, eventID string, radiusKm float64, limit int) ([]byte, bool, error)
}

// ClusterAPI serves cluster computation and the definition registry.
type ClusterAPI interface {
	ComputeClusters(ctx context.Context, req service.ClustersRequest) ([]byte, bool, error)
	RegisterDefinition(ctx context.Context, req service.RegisterDefinitionRequest) (service.RegisterAck, error)
	GetDefinition(ctx context.Context, id string) ([]byte, bool, error)
}

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	Ping(ctx context.Context) error
}

// QueryDefaults fill in fault-context query parameters the caller omits.
type QueryDefaults struct {
	RadiusKm float64
	Limit    int
}

// Server exposes the service API over HTTP.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer builds the router and wraps it in an HTTP server.
func NewServer(addr string, faultCtx FaultContextAPI, clusters ClusterAPI, ready ReadinessChecker, defaults QueryDefaults, logger *slog.Logger, metrics *observability.Metrics) *Server {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())

	// Liveness: confirms the process is running.
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// Readiness: confirms the durable store is reachable.
	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := ready.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := &handlers{faultCtx: faultCtx, clusters: clusters, defaults: defaults, logger: logger}

	api := r.Group("/api/v1")
	api.Use(requestDuration(metrics))
	api.GET("/events/:id/fault-context", h.faultContext)
	api.POST("/clusters/compute", h.computeClusters)
	api.POST("/cluster-definitions", h.registerDefinition)
	api.GET("/cluster-definitions/:id", h.getDefinition)

	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// requestDuration observes per-endpoint latency. The route template is
// used as the label so path parameters do not explode cardinality.
func requestDuration(metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.RequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}
}
