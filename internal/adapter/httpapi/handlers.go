package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/seismoview/quake-context-service/internal/domain"
	"github.com/seismoview/quake-context-service/internal/service"
)

type handlers struct {
	faultCtx FaultContextAPI
	clusters ClusterAPI
	defaults QueryDefaults
	logger   *slog.Logger
}

// GET /api/v1/events/:id/fault-context?radius_km=&limit=
//
// Returns the event's scored fault associations with descriptive text.
// The X-Cache header reports HIT or MISS; cached and fresh payloads are
// byte-identical.
func (h *handlers) faultContext(c *gin.Context) {
	eventID := c.Param("id")

	radiusKm := h.defaults.RadiusKm
	if s := c.Query("radius_km"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "radius_km must be a number"})
			return
		}
		radiusKm = v
	}

	limit := h.defaults.Limit
	if s := c.Query("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
		limit = v
	}

	payload, hit, err := h.faultCtx.FaultContext(c.Request.Context(), eventID, radiusKm, limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	writeCached(c, http.StatusOK, payload, hit)
}

// POST /api/v1/clusters/compute
//
// Groups the posted event batch into transient clusters. Nothing is
// persisted; identical batches within the TTL are served from cache.
func (h *handlers) computeClusters(c *gin.Context) {
	var req service.ClustersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}

	payload, hit, err := h.clusters.ComputeClusters(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	writeCached(c, http.StatusOK, payload, hit)
}

// POST /api/v1/cluster-definitions
//
// Registers or replaces a named cluster definition. Success means the
// row is durably stored; the ack carries the monotonically increasing
// version.
func (h *handlers) registerDefinition(c *gin.Context) {
	var req service.RegisterDefinitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}

	ack, err := h.clusters.RegisterDefinition(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ack)
}

// GET /api/v1/cluster-definitions/:id
//
// Retrieves a stored definition; unknown identifiers yield 404.
func (h *handlers) getDefinition(c *gin.Context) {
	payload, hit, err := h.clusters.GetDefinition(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	writeCached(c, http.StatusOK, payload, hit)
}

// writeError maps service errors onto HTTP statuses. Validation problems
// and unknown resources are reported to the caller; anything else is
// logged with detail and answered generically.
func (h *handlers) writeError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		h.logger.Error("request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// writeCached sends a pre-encoded JSON payload and flags its origin.
func writeCached(c *gin.Context, status int, payload []byte, hit bool) {
	if hit {
		c.Header("X-Cache", "HIT")
	} else {
		c.Header("X-Cache", "MISS")
	}
	c.Data(status, "application/json", payload)
}
