package handlers

import (
	"net/http"
	"time"

	"rentgrid/internal/caching"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

type HealthHandlers struct {
	pool  *pgxpool.Pool
	cache caching.CacheService
}

func NewHealthHandlers(pool *pgxpool.Pool, cache caching.CacheService) *HealthHandlers {
	return &HealthHandlers{pool: pool, cache: cache}
}

// Health reports process liveness only.
func (h *HealthHandlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

// Ready verifies the backing dependencies are reachable.
func (h *HealthHandlers) Ready(c echo.Context) error {
	ctx := c.Request().Context()
	checks := map[string]string{
		"database": "ok",
		"cache":    "ok",
	}
	status := http.StatusOK

	if err := h.pool.Ping(ctx); err != nil {
		checks["database"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	if err := h.cache.Ping(ctx); err != nil {
		checks["cache"] = err.Error()
		status = http.StatusServiceUnavailable
	}

	overall := "ready"
	if status != http.StatusOK {
		overall = "degraded"
	}

	return c.JSON(status, map[string]interface{}{
		"status":    overall,
		"checks":    checks,
		"timestamp": time.Now().UTC(),
	})
}
