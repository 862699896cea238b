package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"rentgrid/internal/models"
	"rentgrid/internal/probe"
	"rentgrid/internal/repositories"

	"github.com/google/uuid"
)

// Conventional ports the tenant deployment tooling exposes per endpoint role.
const (
	defaultBackendPort  = 8081
	defaultFrontendPort = 3000
)

var ErrTenantNotActive = errors.New("tenant is not active")

// DiscoveryService finds running tenant endpoints without manual
// registration, by probing the conventional locations per ACTIVE tenant.
type DiscoveryService interface {
	// Scan probes every ACTIVE tenant. A tenant's failure never aborts the
	// scan for the rest.
	Scan(ctx context.Context) error

	// DiscoverTenant runs discovery for a single tenant on demand.
	DiscoverTenant(ctx context.Context, tenantID uuid.UUID) error
}

type discoveryService struct {
	tenantRepo   repositories.TenantRepository
	instanceRepo repositories.ServiceInstanceRepository
	auditSvc     AuditLogsService
	prober       probe.Prober
}

func NewDiscoveryService(tenantRepo repositories.TenantRepository, instanceRepo repositories.ServiceInstanceRepository, auditSvc AuditLogsService, prober probe.Prober) DiscoveryService {
	return &discoveryService{
		tenantRepo:   tenantRepo,
		instanceRepo: instanceRepo,
		auditSvc:     auditSvc,
		prober:       prober,
	}
}

type probeTarget struct {
	serviceType string
	host        string
	port        int
	url         string
}

func (s *discoveryService) Scan(ctx context.Context) error {
	tenants, err := s.tenantRepo.ListByStatus(ctx, models.TenantStatusActive)
	if err != nil {
		log.Printf("Failed to list active tenants for discovery: %v", err)
		return err
	}

	semaphore := make(chan struct{}, 5)
	var wg sync.WaitGroup

	for _, tenant := range tenants {
		wg.Add(1)
		go func(tenant *models.Tenant) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			s.discoverOne(ctx, tenant)
		}(tenant)
	}

	wg.Wait()
	log.Printf("Completed discovery scan for %d active tenants", len(tenants))
	return nil
}

func (s *discoveryService) DiscoverTenant(ctx context.Context, tenantID uuid.UUID) error {
	tenant, err := s.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return err
	}
	if tenant.Status != models.TenantStatusActive {
		return ErrTenantNotActive
	}

	s.discoverOne(ctx, tenant)
	return nil
}

// discoverOne probes the expected endpoint roles for one tenant. Each probe
// is independent; an unreachable endpoint produces no registry write.
func (s *discoveryService) discoverOne(ctx context.Context, tenant *models.Tenant) {
	targets := []probeTarget{
		{
			serviceType: models.ServiceTypeBackend,
			host:        tenant.Domain,
			port:        defaultBackendPort,
			url:         fmt.Sprintf("http://%s:%d/health", tenant.Domain, defaultBackendPort),
		},
		{
			serviceType: models.ServiceTypeFrontend,
			host:        tenant.Domain,
			port:        defaultFrontendPort,
			url:         fmt.Sprintf("http://%s:%d/", tenant.Domain, defaultFrontendPort),
		},
	}

	for _, target := range targets {
		result := s.prober.ProbeHTTP(ctx, target.url)
		if result.Err != nil {
			// Unreachable is not an error for discovery, just no write
			log.Printf("Discovery probe %s for tenant %s unreachable: %v", target.url, tenant.Slug, result.Err)
			continue
		}

		if err := s.registerService(ctx, tenant.ID, target, result); err != nil {
			log.Printf("Failed to register %s service for tenant %s: %v", target.serviceType, tenant.Slug, err)
		}
	}
}

func (s *discoveryService) registerService(ctx context.Context, tenantID uuid.UUID, target probeTarget, result probe.Result) error {
	now := time.Now()

	var version *string
	if result.Version != "" {
		version = &result.Version
	}

	instance := &models.ServiceInstance{
		TenantID: tenantID,
		Type:     target.serviceType,
		Host:     target.host,
		Port:     target.port,
		Status:   httpProbeStatus(result),
		Version:  version,
		Metadata: models.JSONB{
			"response_time_ms": result.ResponseTime.Milliseconds(),
		},
		LastHealthCheck: &now,
	}

	created, err := s.instanceRepo.Upsert(ctx, instance)
	if err != nil {
		return err
	}

	if created {
		metadata := models.JSONB{
			"tenant_id": tenantID.String(),
			"type":      target.serviceType,
			"host":      target.host,
			"port":      target.port,
		}
		if err := s.auditSvc.LogSystemEvent(ctx, models.ActionServiceRegistered, models.ResourceServiceInstance, instance.ID.String(), nil, models.JSONB{"status": instance.Status}, metadata); err != nil {
			log.Printf("Failed to audit service registration %s: %v", instance.ID, err)
		}
		log.Printf("Discovered new %s service for tenant %s at %s:%d", target.serviceType, tenantID, target.host, target.port)
	}

	return nil
}

// httpProbeStatus maps a received HTTP response to a health status. Transport
// failures never reach here for discovery (they skip registration).
func httpProbeStatus(result probe.Result) string {
	if !result.Reachable {
		return models.ServiceStatusDown
	}
	if result.StatusCode >= 200 && result.StatusCode < 300 {
		return models.ServiceStatusHealthy
	}
	return models.ServiceStatusDegraded
}
