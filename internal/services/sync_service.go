package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"rentgrid/internal/caching"
	"rentgrid/internal/models"
	"rentgrid/internal/probe"
	"rentgrid/internal/push"
	"rentgrid/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrServiceNotFound means a tenant has no open push channel and no
// registered BACKEND instance to fall back to. There is no further fallback.
var ErrServiceNotFound = errors.New("no backend service instance registered for tenant")

// SyncReport summarizes a sync-all run.
type SyncReport struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// configUpdatePayload is the outbound config_update message shape, shared by
// the push path and the direct-delivery fallback.
type configUpdatePayload struct {
	Type      string                      `json:"type"`
	Config    *models.TenantConfiguration `json:"config"`
	Timestamp time.Time                   `json:"timestamp"`
}

// ConfigSyncService delivers the latest tenant configuration with minimal
// latency: push-channel fan-out first, direct HTTP delivery as fallback.
type ConfigSyncService interface {
	ConfigSyncer

	SyncAllTenants(ctx context.Context) (*SyncReport, error)

	// Broadcast sends an arbitrary message to every open channel across all
	// tenants, bypassing per-tenant config semantics.
	Broadcast(message map[string]interface{}) (int, error)

	// Heartbeat records that a tenant was seen alive on its push channel.
	Heartbeat(ctx context.Context, tenantID uuid.UUID) error
}

type configSyncService struct {
	hub          *push.Hub
	tenantRepo   repositories.TenantRepository
	configRepo   repositories.TenantConfigRepository
	instanceRepo repositories.ServiceInstanceRepository
	deliverer    probe.Deliverer
	cacheSvc     caching.CacheService
}

func NewConfigSyncService(
	hub *push.Hub,
	tenantRepo repositories.TenantRepository,
	configRepo repositories.TenantConfigRepository,
	instanceRepo repositories.ServiceInstanceRepository,
	deliverer probe.Deliverer,
	cacheSvc caching.CacheService,
) ConfigSyncService {
	return &configSyncService{
		hub:          hub,
		tenantRepo:   tenantRepo,
		configRepo:   configRepo,
		instanceRepo: instanceRepo,
		deliverer:    deliverer,
		cacheSvc:     cacheSvc,
	}
}

// SyncConfig re-reads the current configuration on every call so the pushed
// value is always the latest at send time, never one captured earlier.
func (s *configSyncService) SyncConfig(ctx context.Context, tenantID uuid.UUID) error {
	config, err := s.configRepo.GetByTenantID(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("failed to load configuration for tenant %s: %w", tenantID, err)
	}

	payload := configUpdatePayload{
		Type:      push.MessageConfigUpdate,
		Config:    config,
		Timestamp: time.Now().UTC(),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal config payload: %w", err)
	}

	// Primary path: serialized once, fanned out to every open channel
	if sent := s.hub.SendToTenant(tenantID, data); sent > 0 {
		log.Printf("Pushed configuration to tenant %s over %d channel(s)", tenantID, sent)
		return nil
	}

	// Fallback: direct delivery to the registered backend instance.
	// Single attempt, no retry; a failure is surfaced to the caller.
	instance, err := s.instanceRepo.GetBackendByTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrServiceNotFound
		}
		return fmt.Errorf("failed to look up backend instance for tenant %s: %w", tenantID, err)
	}

	url := fmt.Sprintf("http://%s:%d/internal/config", instance.Host, instance.Port)
	if err := s.deliverer.PostJSON(ctx, url, payload); err != nil {
		return fmt.Errorf("direct config delivery to %s failed: %w", url, err)
	}

	log.Printf("Delivered configuration to tenant %s directly at %s", tenantID, url)
	return nil
}

func (s *configSyncService) SyncAllTenants(ctx context.Context) (*SyncReport, error) {
	tenants, err := s.tenantRepo.ListByStatus(ctx, models.TenantStatusActive)
	if err != nil {
		return nil, err
	}

	report := &SyncReport{}
	for _, tenant := range tenants {
		if err := s.SyncConfig(ctx, tenant.ID); err != nil {
			// One tenant's delivery failure does not abort the rest
			log.Printf("Config sync failed for tenant %s: %v", tenant.Slug, err)
			report.Failed++
			continue
		}
		report.Succeeded++
	}

	log.Printf("Sync-all completed: %d succeeded, %d failed", report.Succeeded, report.Failed)
	return report, nil
}

func (s *configSyncService) Broadcast(message map[string]interface{}) (int, error) {
	data, err := json.Marshal(message)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal broadcast message: %w", err)
	}
	sent := s.hub.Broadcast(data)
	log.Printf("Broadcast delivered to %d open channel(s)", sent)
	return sent, nil
}

func (s *configSyncService) Heartbeat(ctx context.Context, tenantID uuid.UUID) error {
	return s.cacheSvc.SetTenantLastSeen(ctx, tenantID, time.Now())
}
