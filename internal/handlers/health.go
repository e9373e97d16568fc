package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	serviceName    = "gst-billing-service"
	serviceVersion = "1.0.0"
)

// CheckFunc reports whether a dependency is reachable
type CheckFunc func(ctx context.Context) error

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	checks map[string]CheckFunc
}

// NewHealthHandler creates a health handler. checks run on every readiness
// probe, keyed by dependency name.
func NewHealthHandler(checks map[string]CheckFunc) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// HealthCheck provides a health check endpoint
// @Summary Health check
// @Description Check if the service is healthy
// @Tags health
// @Produce json
// @Success 200 {object} gin.H
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   serviceName,
		"version":   serviceVersion,
		"timestamp": time.Now().UTC(),
	})
}

// Livez handles GET /livez
func (h *HealthHandler) Livez(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ReadinessCheck provides a readiness check endpoint
// @Summary Readiness check
// @Description Check if the database and cache are reachable
// @Tags health
// @Produce json
// @Success 200 {object} gin.H
// @Failure 503 {object} gin.H
// @Router /readyz [get]
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	results := gin.H{}
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[name] = err.Error()
			continue
		}
		results[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not ready"
	}
	c.JSON(status, gin.H{
		"status":    state,
		"service":   serviceName,
		"checks":    results,
		"timestamp": time.Now().UTC(),
	})
}
