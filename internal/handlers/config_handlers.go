package handlers

import (
	"errors"
	"log"
	"net/http"

	"rentgrid/internal/common"
	"rentgrid/internal/models"
	"rentgrid/internal/services"

	"github.com/labstack/echo/v4"
)

// ConfigHandlers handles tenant configuration reads, updates, and manual syncs
type ConfigHandlers struct {
	configService services.ConfigService
	syncService   services.ConfigSyncService
	auditService  services.AuditLogsService
}

func NewConfigHandlers(configService services.ConfigService, syncService services.ConfigSyncService, auditService services.AuditLogsService) *ConfigHandlers {
	return &ConfigHandlers{
		configService: configService,
		syncService:   syncService,
		auditService:  auditService,
	}
}

func (h *ConfigHandlers) GetConfig(c echo.Context) error {
	tenantID, err := common.ValidateUUID(c.Param("id"), "tenant ID")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	config, err := h.configService.GetConfig(c.Request().Context(), tenantID)
	if err != nil {
		return common.SendNotFoundError(c, "Tenant configuration")
	}

	return c.JSON(http.StatusOK, config)
}

// UpdateConfig mutates the configuration; the update itself triggers a sync
// attempt toward the tenant's running instances.
func (h *ConfigHandlers) UpdateConfig(c echo.Context) error {
	tenantID, err := common.ValidateUUID(c.Param("id"), "tenant ID")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var req services.UpdateConfigRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	config, err := h.configService.UpdateConfig(c.Request().Context(), tenantID, &req, actorFromContext(c))
	if err != nil {
		return common.SendNotFoundError(c, "Tenant configuration")
	}

	return c.JSON(http.StatusOK, config)
}

// SyncConfig triggers a manual sync for one tenant
func (h *ConfigHandlers) SyncConfig(c echo.Context) error {
	tenantID, err := common.ValidateUUID(c.Param("id"), "tenant ID")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.syncService.SyncConfig(c.Request().Context(), tenantID); err != nil {
		if errors.Is(err, services.ErrServiceNotFound) {
			return c.JSON(http.StatusConflict, common.CreateErrorResponse("SERVICE_NOT_FOUND",
				"Tenant has no open push channel and no registered backend instance", nil))
		}
		return common.SendServerError(c, "Config sync failed")
	}

	err = h.auditService.LogActivity(c.Request().Context(),
		models.ActionConfigSync, models.ResourceTenantConfig, tenantID.String(),
		models.ActorPlatformUser, actorFromContext(c), nil, nil, nil)
	if err != nil {
		log.Printf("Failed to audit manual config sync for tenant %s: %v", tenantID, err)
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Configuration synchronized",
	})
}

// SyncAll triggers a sync for every active tenant and reports counts
func (h *ConfigHandlers) SyncAll(c echo.Context) error {
	report, err := h.syncService.SyncAllTenants(c.Request().Context())
	if err != nil {
		return common.SendServerError(c, "Sync-all failed")
	}

	err = h.auditService.LogActivity(c.Request().Context(),
		models.ActionConfigSync, models.ResourceTenantConfig, "all",
		models.ActorPlatformUser, actorFromContext(c), nil, nil,
		models.JSONB{"succeeded": report.Succeeded, "failed": report.Failed})
	if err != nil {
		log.Printf("Failed to audit sync-all: %v", err)
	}

	return c.JSON(http.StatusOK, report)
}
