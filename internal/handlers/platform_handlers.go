package handlers

import (
	"net/http"

	"rentgrid/internal/common"
	"rentgrid/internal/services"

	"github.com/labstack/echo/v4"
)

// PlatformHandlers exposes platform-wide aggregates and announcements
type PlatformHandlers struct {
	statsService services.StatsService
	syncService  services.ConfigSyncService
}

func NewPlatformHandlers(statsService services.StatsService, syncService services.ConfigSyncService) *PlatformHandlers {
	return &PlatformHandlers{
		statsService: statsService,
		syncService:  syncService,
	}
}

func (h *PlatformHandlers) GetStats(c echo.Context) error {
	stats, err := h.statsService.GetPlatformStats(c.Request().Context())
	if err != nil {
		return common.SendServerError(c, "Failed to compute platform stats")
	}

	return c.JSON(http.StatusOK, stats)
}

// BroadcastRequest is a free-form platform-wide announcement
type BroadcastRequest map[string]interface{}

// Broadcast sends a message to every open push channel across all tenants
func (h *PlatformHandlers) Broadcast(c echo.Context) error {
	var req BroadcastRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if len(req) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Message body is required")
	}

	sent, err := h.syncService.Broadcast(req)
	if err != nil {
		return common.SendServerError(c, "Broadcast failed")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"delivered_to": sent,
	})
}
