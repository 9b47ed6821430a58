package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/shopscout/catalog-api/internal/cache"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

var startTime = time.Now()

// HealthHandler provides the health endpoint.
type HealthHandler struct {
	db    *sqlx.DB
	cache cache.Cache
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db *sqlx.DB, c cache.Cache) *HealthHandler {
	return &HealthHandler{db: db, cache: c}
}

// GetHealth responds with service, storage, and cache status.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	ctx := c.Request.Context()

	c.JSON(200, gin.H{
		"status":           "healthy",
		"storageConnected": h.db.PingContext(ctx) == nil,
		"cacheConnected":   h.cache.Healthy(ctx),
		"uptime":           int(time.Since(startTime).Seconds()),
		"version":          Version,
	})
}
