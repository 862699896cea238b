package caching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type CacheService interface {
	// Platform stats caching
	GetPlatformStats(ctx context.Context) (map[string]interface{}, error)
	SetPlatformStats(ctx context.Context, stats map[string]interface{}, ttl time.Duration) error
	InvalidatePlatformStats(ctx context.Context) error

	// Tenant heartbeat tracking
	SetTenantLastSeen(ctx context.Context, tenantID uuid.UUID, at time.Time) error
	GetTenantLastSeen(ctx context.Context, tenantID uuid.UUID) (*time.Time, error)

	Ping(ctx context.Context) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	// Accept redis://host:port as well as bare host:port
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
			parsedAddr = hostPort
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", pingErr, parsedAddr)
	}

	return &redisCacheService{client: client}
}

const statsKey = "rentgrid:platform:stats"

func (r *redisCacheService) GetPlatformStats(ctx context.Context) (map[string]interface{}, error) {
	data, err := r.client.Get(ctx, statsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil // Cache miss
	}
	if err != nil {
		return nil, err
	}

	var stats map[string]interface{}
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached stats: %w", err)
	}
	return stats, nil
}

func (r *redisCacheService) SetPlatformStats(ctx context.Context, stats map[string]interface{}, ttl time.Duration) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}
	return r.client.Set(ctx, statsKey, data, ttl).Err()
}

func (r *redisCacheService) InvalidatePlatformStats(ctx context.Context) error {
	return r.client.Del(ctx, statsKey).Err()
}

func lastSeenKey(tenantID uuid.UUID) string {
	return fmt.Sprintf("rentgrid:tenant:lastseen:%s", tenantID.String())
}

func (r *redisCacheService) SetTenantLastSeen(ctx context.Context, tenantID uuid.UUID, at time.Time) error {
	return r.client.Set(ctx, lastSeenKey(tenantID), at.UTC().Format(time.RFC3339), 24*time.Hour).Err()
}

func (r *redisCacheService) GetTenantLastSeen(ctx context.Context, tenantID uuid.UUID) (*time.Time, error) {
	value, err := r.client.Get(ctx, lastSeenKey(tenantID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil // Never seen
	}
	if err != nil {
		return nil, err
	}

	at, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("failed to parse last-seen timestamp: %w", err)
	}
	return &at, nil
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
