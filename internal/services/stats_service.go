package services

import (
	"context"
	"log"
	"time"

	"rentgrid/internal/caching"
	"rentgrid/internal/push"
	"rentgrid/internal/repositories"
)

const statsCacheTTL = 30 * time.Second

// StatsService computes the aggregate platform view for operators.
type StatsService interface {
	GetPlatformStats(ctx context.Context) (map[string]interface{}, error)
}

type statsService struct {
	tenantRepo   repositories.TenantRepository
	instanceRepo repositories.ServiceInstanceRepository
	userRepo     repositories.PlatformUserRepository
	hub          *push.Hub
	cacheSvc     caching.CacheService
}

func NewStatsService(
	tenantRepo repositories.TenantRepository,
	instanceRepo repositories.ServiceInstanceRepository,
	userRepo repositories.PlatformUserRepository,
	hub *push.Hub,
	cacheSvc caching.CacheService,
) StatsService {
	return &statsService{
		tenantRepo:   tenantRepo,
		instanceRepo: instanceRepo,
		userRepo:     userRepo,
		hub:          hub,
		cacheSvc:     cacheSvc,
	}
}

func (s *statsService) GetPlatformStats(ctx context.Context) (map[string]interface{}, error) {
	if cached, err := s.cacheSvc.GetPlatformStats(ctx); err != nil {
		log.Printf("Failed to read stats cache: %v", err)
	} else if cached != nil {
		return cached, nil
	}

	tenantCounts, err := s.tenantRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	serviceCounts, err := s.instanceRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	userCount, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	stats := map[string]interface{}{
		"tenants_by_status":    tenantCounts,
		"services_by_status":   serviceCounts,
		"total_platform_users": userCount,
		"open_push_channels":   s.hub.OpenChannels(),
		"connected_tenants":    len(s.hub.ConnectedTenants()),
		"generated_at":         time.Now().UTC().Format(time.RFC3339),
	}

	if err := s.cacheSvc.SetPlatformStats(ctx, stats, statsCacheTTL); err != nil {
		log.Printf("Failed to cache platform stats: %v", err)
	}

	return stats, nil
}
