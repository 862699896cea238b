package handlers

import (
	"errors"
	"net/http"

	"rentgrid/internal/caching"
	"rentgrid/internal/common"
	"rentgrid/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// TenantHandlers handles tenant registry HTTP requests
type TenantHandlers struct {
	tenantService    services.TenantService
	discoveryService services.DiscoveryService
	cacheService     caching.CacheService
}

func NewTenantHandlers(tenantService services.TenantService, discoveryService services.DiscoveryService, cacheService caching.CacheService) *TenantHandlers {
	return &TenantHandlers{
		tenantService:    tenantService,
		discoveryService: discoveryService,
		cacheService:     cacheService,
	}
}

// ListTenantsRequest represents query parameters for listing tenants
type ListTenantsRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

func (h *TenantHandlers) ListTenants(c echo.Context) error {
	var req ListTenantsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid query parameters")
	}

	limit, offset, err := common.ValidatePaginationParams(req.Limit, req.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tenants, err := h.tenantService.List(c.Request().Context(), limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list tenants")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"tenants": tenants,
		"limit":   limit,
		"offset":  offset,
	})
}

func (h *TenantHandlers) GetTenant(c echo.Context) error {
	tenantID, err := common.ValidateUUID(c.Param("id"), "tenant ID")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tenant, err := h.tenantService.GetByID(c.Request().Context(), tenantID)
	if err != nil {
		return common.SendNotFoundError(c, "Tenant")
	}

	// Last-seen comes from push-channel heartbeats; absent means the tenant
	// instance has not connected recently (or redis lost the key).
	lastSeen, err := h.cacheService.GetTenantLastSeen(c.Request().Context(), tenantID)
	if err != nil {
		lastSeen = nil
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"tenant":       tenant,
		"last_seen_at": lastSeen,
	})
}

// CreateTenantRequest represents the tenant creation request payload
type CreateTenantRequest struct {
	Name   string `json:"name" validate:"required"`
	Slug   string `json:"slug" validate:"required"`
	Domain string `json:"domain" validate:"required"`
	Plan   string `json:"plan"`
}

func (h *TenantHandlers) CreateTenant(c echo.Context) error {
	var req CreateTenantRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if req.Name == "" || req.Slug == "" || req.Domain == "" {
		return common.SendValidationError(c, "tenant", "Name, slug, and domain are required")
	}
	if len(req.Slug) < 3 {
		return common.SendValidationError(c, "slug", "Slug must be at least 3 characters long")
	}

	actorID := actorFromContext(c)
	tenant, err := h.tenantService.Create(c.Request().Context(), &services.CreateTenantRequest{
		Name:   req.Name,
		Slug:   req.Slug,
		Domain: req.Domain,
		Plan:   req.Plan,
	}, actorID)
	if err != nil {
		if errors.Is(err, services.ErrSlugTaken) {
			return echo.NewHTTPError(http.StatusConflict, "Tenant slug is already taken")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create tenant")
	}

	return c.JSON(http.StatusCreated, tenant)
}

// UpdateTenantRequest represents the tenant update request payload
type UpdateTenantRequest struct {
	Name   *string `json:"name"`
	Domain *string `json:"domain"`
	Status *string `json:"status"`
	Plan   *string `json:"plan"`
}

func (h *TenantHandlers) UpdateTenant(c echo.Context) error {
	tenantID, err := common.ValidateUUID(c.Param("id"), "tenant ID")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var req UpdateTenantRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	updateReq := &services.UpdateTenantRequest{ID: tenantID}
	if req.Name != nil {
		updateReq.Name = *req.Name
	}
	if req.Domain != nil {
		updateReq.Domain = *req.Domain
	}
	if req.Status != nil {
		updateReq.Status = *req.Status
	}
	if req.Plan != nil {
		updateReq.Plan = *req.Plan
	}

	actorID := actorFromContext(c)
	tenant, err := h.tenantService.Update(c.Request().Context(), updateReq, actorID)
	if err != nil {
		if errors.Is(err, services.ErrTenantDeleted) {
			return echo.NewHTTPError(http.StatusConflict, "Tenant is deleted")
		}
		return common.SendNotFoundError(c, "Tenant")
	}

	return c.JSON(http.StatusOK, tenant)
}

// DeleteTenant soft-deletes a tenant; the record itself is kept
func (h *TenantHandlers) DeleteTenant(c echo.Context) error {
	tenantID, err := common.ValidateUUID(c.Param("id"), "tenant ID")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	actorID := actorFromContext(c)
	if err := h.tenantService.Delete(c.Request().Context(), tenantID, actorID); err != nil {
		if errors.Is(err, services.ErrTenantDeleted) {
			return echo.NewHTTPError(http.StatusConflict, "Tenant is already deleted")
		}
		return common.SendNotFoundError(c, "Tenant")
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Tenant deleted successfully",
	})
}

// DiscoverTenant triggers on-demand discovery for one tenant
func (h *TenantHandlers) DiscoverTenant(c echo.Context) error {
	tenantID, err := common.ValidateUUID(c.Param("id"), "tenant ID")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.discoveryService.DiscoverTenant(c.Request().Context(), tenantID); err != nil {
		if errors.Is(err, services.ErrTenantNotActive) {
			return echo.NewHTTPError(http.StatusConflict, "Tenant is not active")
		}
		return common.SendNotFoundError(c, "Tenant")
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Discovery completed",
	})
}

// actorFromContext returns the authenticated operator ID, or nil when the
// request context carries none (system paths).
func actorFromContext(c echo.Context) *uuid.UUID {
	userID, ok := common.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return nil
	}
	return &userID
}
