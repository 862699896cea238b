package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"rentgrid/internal/models"
	"rentgrid/internal/probe"
	"rentgrid/internal/repositories"

	"github.com/google/uuid"
)

// HealthService re-checks every registered service instance, independent of
// discovery. Any known instance is checked, not just those of ACTIVE tenants.
type HealthService interface {
	// RunHealthChecks checks all registered instances concurrently.
	RunHealthChecks(ctx context.Context) error

	// CheckService runs one on-demand check and returns the updated instance.
	CheckService(ctx context.Context, id uuid.UUID) (*models.ServiceInstance, error)

	// GetHealthSummary aggregates current registry state; no caching.
	GetHealthSummary(ctx context.Context) (*models.HealthSummary, error)
}

type healthService struct {
	instanceRepo repositories.ServiceInstanceRepository
	auditSvc     AuditLogsService
	prober       probe.Prober
}

func NewHealthService(instanceRepo repositories.ServiceInstanceRepository, auditSvc AuditLogsService, prober probe.Prober) HealthService {
	return &healthService{
		instanceRepo: instanceRepo,
		auditSvc:     auditSvc,
		prober:       prober,
	}
}

func (s *healthService) RunHealthChecks(ctx context.Context) error {
	instances, err := s.instanceRepo.ListAll(ctx)
	if err != nil {
		log.Printf("Failed to load service instances for health checks: %v", err)
		return err
	}

	semaphore := make(chan struct{}, 10)
	var wg sync.WaitGroup

	for _, instance := range instances {
		wg.Add(1)
		go func(instance *models.ServiceInstance) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if _, err := s.checkInstance(ctx, instance); err != nil {
				// One instance's failure is data, not a monitor failure
				log.Printf("Health check write failed for instance %s: %v", instance.ID, err)
			}
		}(instance)
	}

	wg.Wait()
	log.Printf("Completed health checks for %d service instances", len(instances))
	return nil
}

func (s *healthService) CheckService(ctx context.Context, id uuid.UUID) (*models.ServiceInstance, error) {
	instance, err := s.instanceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.checkInstance(ctx, instance)
}

// checkInstance probes one instance, writes the result back unconditionally,
// and emits an audit entry only when the status actually changed.
func (s *healthService) checkInstance(ctx context.Context, instance *models.ServiceInstance) (*models.ServiceInstance, error) {
	previousStatus := instance.Status

	result := s.probeInstance(ctx, instance)
	newStatus := statusFor(instance.Type, result)

	metadata := models.JSONB{
		"response_time_ms": result.ResponseTime.Milliseconds(),
	}
	if result.Err != nil {
		metadata["last_error"] = result.Err.Error()
	}

	now := time.Now()
	if err := s.instanceRepo.UpdateHealth(ctx, instance.ID, newStatus, metadata, now); err != nil {
		return nil, err
	}

	instance.Status = newStatus
	instance.Metadata = metadata
	instance.LastHealthCheck = &now

	if newStatus != previousStatus {
		s.recordTransition(ctx, instance, previousStatus, newStatus)
	}

	return instance, nil
}

func (s *healthService) probeInstance(ctx context.Context, instance *models.ServiceInstance) probe.Result {
	switch instance.Type {
	case models.ServiceTypeBackend:
		return s.prober.ProbeHTTP(ctx, fmt.Sprintf("http://%s:%d/health", instance.Host, instance.Port))
	case models.ServiceTypeFrontend:
		return s.prober.ProbeHTTP(ctx, fmt.Sprintf("http://%s:%d/", instance.Host, instance.Port))
	case models.ServiceTypeDatabase:
		return s.prober.ProbeTCP(ctx, instance.Host, instance.Port)
	default:
		return probe.Result{Err: fmt.Errorf("unknown service type %q", instance.Type)}
	}
}

// statusFor maps a probe result to a health status. DATABASE instances have
// no DEGRADED state: either the connection succeeds or the service is DOWN.
func statusFor(serviceType string, result probe.Result) string {
	if serviceType == models.ServiceTypeDatabase {
		if result.Reachable {
			return models.ServiceStatusHealthy
		}
		return models.ServiceStatusDown
	}

	if !result.Reachable {
		return models.ServiceStatusDown
	}
	if result.StatusCode >= 200 && result.StatusCode < 300 {
		return models.ServiceStatusHealthy
	}
	return models.ServiceStatusDegraded
}

func (s *healthService) recordTransition(ctx context.Context, instance *models.ServiceInstance, oldStatus, newStatus string) {
	metadata := models.JSONB{
		"tenant_id": instance.TenantID.String(),
		"type":      instance.Type,
		"host":      instance.Host,
		"port":      instance.Port,
	}

	err := s.auditSvc.LogSystemEvent(ctx,
		models.ActionServiceStatusChange,
		models.ResourceServiceInstance,
		instance.ID.String(),
		models.JSONB{"status": oldStatus},
		models.JSONB{"status": newStatus},
		metadata,
	)
	if err != nil {
		log.Printf("Failed to audit status change for instance %s: %v", instance.ID, err)
	}

	if newStatus == models.ServiceStatusDown {
		// Hook point for external alerting fan-out
		log.Printf("ALERT: %s service for tenant %s at %s:%d is DOWN (was %s)",
			instance.Type, instance.TenantID, instance.Host, instance.Port, oldStatus)
	} else {
		log.Printf("Service %s for tenant %s transitioned %s -> %s",
			instance.ID, instance.TenantID, oldStatus, newStatus)
	}
}

func (s *healthService) GetHealthSummary(ctx context.Context) (*models.HealthSummary, error) {
	instances, err := s.instanceRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	summary := &models.HealthSummary{
		Total:    len(instances),
		ByStatus: make(map[string]int),
		ByTenant: make(map[uuid.UUID]map[string]int),
	}

	for _, instance := range instances {
		summary.ByStatus[instance.Status]++

		tenantCounts, ok := summary.ByTenant[instance.TenantID]
		if !ok {
			tenantCounts = make(map[string]int)
			summary.ByTenant[instance.TenantID] = tenantCounts
		}
		tenantCounts[instance.Status]++
	}

	return summary, nil
}
