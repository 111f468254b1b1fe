package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chetan-01-source/Crowdera-ecommerce/pkg/database"
	"github.com/chetan-01-source/Crowdera-ecommerce/pkg/redis"
)

// HealthHandler exposes liveness and readiness probes
type HealthHandler struct {
	db      *database.PostgresDB
	redis   *redis.Client
	version string
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db *database.PostgresDB, redis *redis.Client, version string) *HealthHandler {
	return &HealthHandler{db: db, redis: redis, version: version}
}

// Health is the liveness probe; it answers as long as the process runs
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": h.version,
	})
}

// Ready is the readiness probe; it checks the backing stores
// GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx := c.Request.Context()
	checks := gin.H{}
	healthy := true

	if err := h.db.HealthCheck(ctx); err != nil {
		checks["postgres"] = err.Error()
		healthy = false
	} else {
		checks["postgres"] = "ok"
	}

	if err := h.redis.HealthCheck(ctx); err != nil {
		checks["redis"] = err.Error()
		healthy = false
	} else {
		checks["redis"] = "ok"
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "checks": checks})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "checks": checks})
}
