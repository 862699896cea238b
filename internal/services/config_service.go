package services

import (
	"context"
	"log"

	"rentgrid/internal/models"
	"rentgrid/internal/repositories"

	"github.com/google/uuid"
)

// ConfigSyncer is the part of the sync broker the config service needs:
// every configuration mutation must trigger a synchronization attempt.
type ConfigSyncer interface {
	SyncConfig(ctx context.Context, tenantID uuid.UUID) error
}

type ConfigService interface {
	GetConfig(ctx context.Context, tenantID uuid.UUID) (*models.TenantConfiguration, error)
	UpdateConfig(ctx context.Context, tenantID uuid.UUID, req *UpdateConfigRequest, actorID *uuid.UUID) (*models.TenantConfiguration, error)
}

type configService struct {
	configRepo repositories.TenantConfigRepository
	auditSvc   AuditLogsService
	syncer     ConfigSyncer
}

func NewConfigService(configRepo repositories.TenantConfigRepository, auditSvc AuditLogsService, syncer ConfigSyncer) ConfigService {
	return &configService{
		configRepo: configRepo,
		auditSvc:   auditSvc,
		syncer:     syncer,
	}
}

type UpdateConfigRequest struct {
	DisplayName    *string      `json:"display_name"`
	Theme          models.JSONB `json:"theme"`
	Timezone       *string      `json:"timezone"`
	Currency       *string      `json:"currency"`
	Language       *string      `json:"language"`
	DateFormat     *string      `json:"date_format"`
	FeatureFlags   []string     `json:"feature_flags"`
	EnabledRoles   []string     `json:"enabled_roles"`
	CustomSettings models.JSONB `json:"custom_settings"`
}

func (s *configService) GetConfig(ctx context.Context, tenantID uuid.UUID) (*models.TenantConfiguration, error) {
	return s.configRepo.GetByTenantID(ctx, tenantID)
}

func (s *configService) UpdateConfig(ctx context.Context, tenantID uuid.UUID, req *UpdateConfigRequest, actorID *uuid.UUID) (*models.TenantConfiguration, error) {
	existing, err := s.configRepo.GetByTenantID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	oldValues := configSnapshot(existing)

	if req.DisplayName != nil {
		existing.DisplayName = *req.DisplayName
	}
	if req.Theme != nil {
		existing.Theme = req.Theme
	}
	if req.Timezone != nil {
		existing.Timezone = *req.Timezone
	}
	if req.Currency != nil {
		existing.Currency = *req.Currency
	}
	if req.Language != nil {
		existing.Language = *req.Language
	}
	if req.DateFormat != nil {
		existing.DateFormat = *req.DateFormat
	}
	if req.FeatureFlags != nil {
		existing.FeatureFlags = req.FeatureFlags
	}
	if req.EnabledRoles != nil {
		existing.EnabledRoles = req.EnabledRoles
	}
	if req.CustomSettings != nil {
		existing.CustomSettings = req.CustomSettings
	}

	if err := s.configRepo.Upsert(ctx, existing); err != nil {
		return nil, err
	}

	if err := s.recordAudit(ctx, tenantID, actorID, oldValues, configSnapshot(existing)); err != nil {
		log.Printf("Failed to audit config update for tenant %s: %v", tenantID, err)
	}

	// Best-effort: the mutation stands even when delivery fails; the tenant
	// picks the change up on its next config_request or reconnection.
	if err := s.syncer.SyncConfig(ctx, tenantID); err != nil {
		log.Printf("Config sync after update failed for tenant %s: %v", tenantID, err)
	}

	return existing, nil
}

func (s *configService) recordAudit(ctx context.Context, tenantID uuid.UUID, actorID *uuid.UUID, oldValues, newValues models.JSONB) error {
	if actorID != nil {
		return s.auditSvc.LogUserAction(ctx, *actorID, models.ActionConfigUpdate, models.ResourceTenantConfig, tenantID.String(), oldValues, newValues)
	}
	return s.auditSvc.LogSystemEvent(ctx, models.ActionConfigUpdate, models.ResourceTenantConfig, tenantID.String(), oldValues, newValues, nil)
}

func configSnapshot(c *models.TenantConfiguration) models.JSONB {
	return models.JSONB{
		"display_name":    c.DisplayName,
		"theme":           c.Theme,
		"timezone":        c.Timezone,
		"currency":        c.Currency,
		"language":        c.Language,
		"date_format":     c.DateFormat,
		"feature_flags":   c.FeatureFlags,
		"enabled_roles":   c.EnabledRoles,
		"custom_settings": c.CustomSettings,
	}
}
