package handlers

import (
	"net/http"

	"rentgrid/internal/common"
	"rentgrid/internal/models"
	"rentgrid/internal/repositories"
	"rentgrid/internal/services"

	"github.com/labstack/echo/v4"
)

// ServiceHandlers exposes the service instance registry and manual checks
type ServiceHandlers struct {
	instanceRepo  repositories.ServiceInstanceRepository
	healthService services.HealthService
}

func NewServiceHandlers(instanceRepo repositories.ServiceInstanceRepository, healthService services.HealthService) *ServiceHandlers {
	return &ServiceHandlers{
		instanceRepo:  instanceRepo,
		healthService: healthService,
	}
}

// ListServices lists all registered instances, optionally scoped to a tenant
func (h *ServiceHandlers) ListServices(c echo.Context) error {
	tenantIDStr := c.QueryParam("tenant_id")
	if tenantIDStr != "" {
		tenantID, err := common.ValidateUUID(tenantIDStr, "tenant ID")
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		instances, err := h.instanceRepo.ListByTenant(c.Request().Context(), tenantID)
		if err != nil {
			return common.SendServerError(c, "Failed to list services")
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"services": instances})
	}

	instances, err := h.instanceRepo.ListAll(c.Request().Context())
	if err != nil {
		return common.SendServerError(c, "Failed to list services")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"services": instances})
}

func (h *ServiceHandlers) GetService(c echo.Context) error {
	serviceID, err := common.ValidateUUID(c.Param("id"), "service ID")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	instance, err := h.instanceRepo.GetByID(c.Request().Context(), serviceID)
	if err != nil {
		return common.SendNotFoundError(c, "Service instance")
	}

	return c.JSON(http.StatusOK, instance)
}

// UpdateServiceRequest carries the administratively editable fields
type UpdateServiceRequest struct {
	Version  *string      `json:"version"`
	Metadata models.JSONB `json:"metadata"`
}

func (h *ServiceHandlers) UpdateService(c echo.Context) error {
	serviceID, err := common.ValidateUUID(c.Param("id"), "service ID")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var req UpdateServiceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	instance, err := h.instanceRepo.GetByID(c.Request().Context(), serviceID)
	if err != nil {
		return common.SendNotFoundError(c, "Service instance")
	}

	if req.Version != nil {
		instance.Version = req.Version
	}
	if req.Metadata != nil {
		instance.Metadata = req.Metadata
	}

	if err := h.instanceRepo.Update(c.Request().Context(), instance); err != nil {
		return common.SendServerError(c, "Failed to update service instance")
	}

	return c.JSON(http.StatusOK, instance)
}

// CheckService triggers a synchronous on-demand health check
func (h *ServiceHandlers) CheckService(c echo.Context) error {
	serviceID, err := common.ValidateUUID(c.Param("id"), "service ID")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	instance, err := h.healthService.CheckService(c.Request().Context(), serviceID)
	if err != nil {
		return common.SendNotFoundError(c, "Service instance")
	}

	return c.JSON(http.StatusOK, instance)
}

// HealthSummary returns instance counts by status, grouped by tenant
func (h *ServiceHandlers) HealthSummary(c echo.Context) error {
	summary, err := h.healthService.GetHealthSummary(c.Request().Context())
	if err != nil {
		return common.SendServerError(c, "Failed to compute health summary")
	}

	return c.JSON(http.StatusOK, summary)
}
