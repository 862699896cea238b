package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"rentgrid/internal/caching"
	"rentgrid/internal/models"
	"rentgrid/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrSlugTaken     = errors.New("tenant slug is already taken")
	ErrTenantDeleted = errors.New("tenant is deleted")
)

type TenantService interface {
	Create(ctx context.Context, req *CreateTenantRequest, actorID *uuid.UUID) (*models.Tenant, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*models.Tenant, error)
	Update(ctx context.Context, req *UpdateTenantRequest, actorID *uuid.UUID) (*models.Tenant, error)
	Delete(ctx context.Context, id uuid.UUID, actorID *uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*models.Tenant, error)
}

type tenantService struct {
	tenantRepo repositories.TenantRepository
	configRepo repositories.TenantConfigRepository
	auditSvc   AuditLogsService
	cacheSvc   caching.CacheService
}

func NewTenantService(tenantRepo repositories.TenantRepository, configRepo repositories.TenantConfigRepository, auditSvc AuditLogsService, cacheSvc caching.CacheService) TenantService {
	return &tenantService{
		tenantRepo: tenantRepo,
		configRepo: configRepo,
		auditSvc:   auditSvc,
		cacheSvc:   cacheSvc,
	}
}

type CreateTenantRequest struct {
	Name   string `json:"name" validate:"required"`
	Slug   string `json:"slug" validate:"required"`
	Domain string `json:"domain" validate:"required"`
	Plan   string `json:"plan"`
}

type UpdateTenantRequest struct {
	ID     uuid.UUID
	Name   string `json:"name"`
	Domain string `json:"domain"`
	Status string `json:"status"`
	Plan   string `json:"plan"`
}

func (s *tenantService) Create(ctx context.Context, req *CreateTenantRequest, actorID *uuid.UUID) (*models.Tenant, error) {
	if req.Name == "" || req.Slug == "" || req.Domain == "" {
		return nil, errors.New("name, slug and domain are required")
	}
	if strings.ContainsAny(req.Slug, " \t") {
		return nil, errors.New("slug cannot contain spaces")
	}

	// Duplicate slug is a policy violation, rejected up front
	if _, err := s.tenantRepo.GetBySlug(ctx, req.Slug); err == nil {
		return nil, ErrSlugTaken
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to check slug: %w", err)
	}

	plan := req.Plan
	if plan == "" {
		plan = models.PlanStarter
	}

	tenant := &models.Tenant{
		ID:     uuid.New(),
		Name:   req.Name,
		Slug:   req.Slug,
		Domain: req.Domain,
		Status: models.TenantStatusActive,
		Plan:   plan,
	}

	if err := s.tenantRepo.Create(ctx, tenant); err != nil {
		return nil, err
	}

	// Every tenant owns exactly one configuration row
	config := &models.TenantConfiguration{
		ID:          uuid.New(),
		TenantID:    tenant.ID,
		DisplayName: tenant.Name,
		Timezone:    "UTC",
		Currency:    "USD",
		Language:    "en",
		DateFormat:  "YYYY-MM-DD",
	}
	if err := s.configRepo.Upsert(ctx, config); err != nil {
		return nil, fmt.Errorf("failed to create tenant configuration: %w", err)
	}

	if err := s.recordAudit(ctx, models.ActionTenantCreate, tenant.ID, actorID, nil, tenantSnapshot(tenant)); err != nil {
		log.Printf("Failed to audit tenant create for %s: %v", tenant.ID, err)
	}
	s.invalidateStats(ctx)

	return tenant, nil
}

func (s *tenantService) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	return s.tenantRepo.GetByID(ctx, id)
}

func (s *tenantService) GetBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	if slug == "" {
		return nil, errors.New("slug is required")
	}
	return s.tenantRepo.GetBySlug(ctx, slug)
}

func (s *tenantService) Update(ctx context.Context, req *UpdateTenantRequest, actorID *uuid.UUID) (*models.Tenant, error) {
	existing, err := s.tenantRepo.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if existing.Status == models.TenantStatusDeleted {
		return nil, ErrTenantDeleted
	}

	oldValues := tenantSnapshot(existing)

	if req.Name != "" {
		existing.Name = req.Name
	}
	if req.Domain != "" {
		existing.Domain = req.Domain
	}
	if req.Plan != "" {
		existing.Plan = req.Plan
	}
	if req.Status != "" {
		if !models.IsValidTenantStatus(req.Status) {
			return nil, fmt.Errorf("invalid tenant status %q", req.Status)
		}
		existing.Status = req.Status
	}

	if err := s.tenantRepo.Update(ctx, existing); err != nil {
		return nil, err
	}

	if err := s.recordAudit(ctx, models.ActionTenantUpdate, existing.ID, actorID, oldValues, tenantSnapshot(existing)); err != nil {
		log.Printf("Failed to audit tenant update for %s: %v", existing.ID, err)
	}
	s.invalidateStats(ctx)

	return existing, nil
}

// Delete soft-deletes; DELETED is terminal and the row stays.
func (s *tenantService) Delete(ctx context.Context, id uuid.UUID, actorID *uuid.UUID) error {
	existing, err := s.tenantRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.Status == models.TenantStatusDeleted {
		return ErrTenantDeleted
	}

	oldValues := tenantSnapshot(existing)

	if err := s.tenantRepo.SoftDelete(ctx, id); err != nil {
		return err
	}

	newValues := tenantSnapshot(existing)
	newValues["status"] = models.TenantStatusDeleted

	if err := s.recordAudit(ctx, models.ActionTenantDelete, id, actorID, oldValues, newValues); err != nil {
		log.Printf("Failed to audit tenant delete for %s: %v", id, err)
	}
	s.invalidateStats(ctx)

	return nil
}

func (s *tenantService) List(ctx context.Context, limit, offset int) ([]*models.Tenant, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	return s.tenantRepo.List(ctx, limit, offset)
}

// invalidateStats drops the cached platform stats so counts reflect the
// mutation immediately instead of after the cache TTL.
func (s *tenantService) invalidateStats(ctx context.Context) {
	if err := s.cacheSvc.InvalidatePlatformStats(ctx); err != nil {
		log.Printf("Failed to invalidate platform stats cache: %v", err)
	}
}

func (s *tenantService) recordAudit(ctx context.Context, action string, tenantID uuid.UUID, actorID *uuid.UUID, oldValues, newValues models.JSONB) error {
	if actorID != nil {
		return s.auditSvc.LogUserAction(ctx, *actorID, action, models.ResourceTenant, tenantID.String(), oldValues, newValues)
	}
	return s.auditSvc.LogSystemEvent(ctx, action, models.ResourceTenant, tenantID.String(), oldValues, newValues, nil)
}

func tenantSnapshot(t *models.Tenant) models.JSONB {
	return models.JSONB{
		"name":   t.Name,
		"slug":   t.Slug,
		"domain": t.Domain,
		"status": t.Status,
		"plan":   t.Plan,
	}
}
