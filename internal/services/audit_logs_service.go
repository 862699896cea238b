package services

import (
	"context"
	"errors"

	"rentgrid/internal/common"
	"rentgrid/internal/models"
	"rentgrid/internal/repositories"

	"github.com/google/uuid"
)

type AuditLogsService interface {
	// LogActivity appends an audit log entry
	LogActivity(ctx context.Context, action, resourceType, resourceID, actorType string, actorID *uuid.UUID, oldValues, newValues, metadata models.JSONB) error

	// Query audit logs
	GetAuditLog(ctx context.Context, id uuid.UUID) (*models.AuditLog, error)
	ListAuditLogs(ctx context.Context, filters *models.AuditLogFilters) ([]*models.AuditLog, error)

	// Helper methods for the two actor kinds
	LogSystemEvent(ctx context.Context, action, resourceType, resourceID string, oldValues, newValues, metadata models.JSONB) error
	LogUserAction(ctx context.Context, userID uuid.UUID, action, resourceType, resourceID string, oldValues, newValues models.JSONB) error

	ValidateAuditFilters(filters *models.AuditLogFilters) error
}

type auditLogsService struct {
	auditLogsRepo repositories.AuditLogsRepository
}

func NewAuditLogsService(auditLogsRepo repositories.AuditLogsRepository) AuditLogsService {
	return &auditLogsService{
		auditLogsRepo: auditLogsRepo,
	}
}

// LogActivity creates a new audit log entry with validation
func (s *auditLogsService) LogActivity(ctx context.Context, action, resourceType, resourceID, actorType string, actorID *uuid.UUID, oldValues, newValues, metadata models.JSONB) error {
	if action == "" {
		return errors.New("action is required")
	}
	if resourceType == "" {
		return errors.New("resource_type is required")
	}
	if actorType != models.ActorPlatformUser && actorType != models.ActorSystem {
		return errors.New("actor_type must be PLATFORM_USER or SYSTEM")
	}

	auditLog := &models.AuditLog{
		ID:           uuid.New(),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		ActorType:    actorType,
		ActorID:      actorID,
		OldValues:    oldValues,
		NewValues:    newValues,
		Metadata:     metadata,
	}

	return s.auditLogsRepo.Create(ctx, auditLog)
}

func (s *auditLogsService) GetAuditLog(ctx context.Context, id uuid.UUID) (*models.AuditLog, error) {
	return s.auditLogsRepo.GetByID(ctx, id)
}

func (s *auditLogsService) ListAuditLogs(ctx context.Context, filters *models.AuditLogFilters) ([]*models.AuditLog, error) {
	if filters == nil {
		filters = &models.AuditLogFilters{Limit: 50}
	}
	if filters.Limit <= 0 || filters.Limit > 1000 {
		filters.Limit = 50 // Reasonable default for performance
	}
	if err := s.ValidateAuditFilters(filters); err != nil {
		return nil, err
	}

	return s.auditLogsRepo.List(ctx, filters)
}

// LogSystemEvent records an entry attributed to the control plane itself.
func (s *auditLogsService) LogSystemEvent(ctx context.Context, action, resourceType, resourceID string, oldValues, newValues, metadata models.JSONB) error {
	return s.LogActivity(ctx, action, resourceType, resourceID, models.ActorSystem, nil, oldValues, newValues, metadata)
}

// LogUserAction records an entry attributed to a platform operator.
func (s *auditLogsService) LogUserAction(ctx context.Context, userID uuid.UUID, action, resourceType, resourceID string, oldValues, newValues models.JSONB) error {
	return s.LogActivity(ctx, action, resourceType, resourceID, models.ActorPlatformUser, &userID, oldValues, newValues, nil)
}

func (s *auditLogsService) ValidateAuditFilters(filters *models.AuditLogFilters) error {
	if filters == nil {
		return nil
	}
	if filters.StartDate != nil && filters.EndDate != nil {
		if err := common.ValidateDateRange(*filters.StartDate, *filters.EndDate); err != nil {
			return err
		}
	}
	return nil
}
