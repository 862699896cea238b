package handlers

import (
	"net/http"
	"time"

	"rentgrid/internal/common"
	"rentgrid/internal/models"
	"rentgrid/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// AuditLogsHandlers exposes the audit trail to operators
type AuditLogsHandlers struct {
	auditService services.AuditLogsService
}

func NewAuditLogsHandlers(auditService services.AuditLogsService) *AuditLogsHandlers {
	return &AuditLogsHandlers{auditService: auditService}
}

// ListAuditLogsRequest represents query parameters for listing audit logs
type ListAuditLogsRequest struct {
	Action       string `query:"action"`
	ResourceType string `query:"resource_type"`
	ResourceID   string `query:"resource_id"`
	ActorType    string `query:"actor_type"`
	ActorID      string `query:"actor_id"`
	StartDate    string `query:"start_date"`
	EndDate      string `query:"end_date"`
	Limit        int    `query:"limit"`
	Offset       int    `query:"offset"`
}

func (h *AuditLogsHandlers) ListAuditLogs(c echo.Context) error {
	var req ListAuditLogsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid query parameters")
	}

	filters := &models.AuditLogFilters{
		Limit:  req.Limit,
		Offset: req.Offset,
	}
	if req.Action != "" {
		filters.Action = &req.Action
	}
	if req.ResourceType != "" {
		filters.ResourceType = &req.ResourceType
	}
	if req.ResourceID != "" {
		filters.ResourceID = &req.ResourceID
	}
	if req.ActorType != "" {
		filters.ActorType = &req.ActorType
	}
	if req.ActorID != "" {
		actorID, err := uuid.Parse(req.ActorID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid actor_id format")
		}
		filters.ActorID = &actorID
	}
	if req.StartDate != "" {
		start, err := time.Parse(time.RFC3339, req.StartDate)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "start_date must be RFC3339")
		}
		filters.StartDate = &start
	}
	if req.EndDate != "" {
		end, err := time.Parse(time.RFC3339, req.EndDate)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "end_date must be RFC3339")
		}
		filters.EndDate = &end
	}

	logs, err := h.auditService.ListAuditLogs(c.Request().Context(), filters)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"audit_logs": logs,
		"limit":      filters.Limit,
		"offset":     filters.Offset,
	})
}

func (h *AuditLogsHandlers) GetAuditLog(c echo.Context) error {
	auditLogID, err := common.ValidateUUID(c.Param("id"), "audit log ID")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	entry, err := h.auditService.GetAuditLog(c.Request().Context(), auditLogID)
	if err != nil {
		return common.SendNotFoundError(c, "Audit log entry")
	}

	return c.JSON(http.StatusOK, entry)
}
