package models

import (
	"time"

	"github.com/google/uuid"
)

// Service instance types
const (
	ServiceTypeBackend  = "BACKEND"
	ServiceTypeFrontend = "FRONTEND"
	ServiceTypeDatabase = "DATABASE"
)

// Service instance health statuses
const (
	ServiceStatusHealthy  = "HEALTHY"
	ServiceStatusDegraded = "DEGRADED"
	ServiceStatusDown     = "DOWN"
)

// ServiceInstance is one observed network endpoint belonging to a tenant.
// The natural key is (tenant_id, type, host, port); rows are upserted against
// that key and never deleted. A stale LastHealthCheck is how disappearance of
// an endpoint is expressed.
type ServiceInstance struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	TenantID        uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	Type            string     `json:"type" db:"type"`
	Host            string     `json:"host" db:"host"`
	Port            int        `json:"port" db:"port"`
	Status          string     `json:"status" db:"status"`
	Version         *string    `json:"version" db:"version"`
	Metadata        JSONB      `json:"metadata" db:"metadata"`
	LastHealthCheck *time.Time `json:"last_health_check" db:"last_health_check"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// HealthSummary aggregates instance counts by status, grouped by tenant.
type HealthSummary struct {
	Total    int                          `json:"total"`
	ByStatus map[string]int               `json:"by_status"`
	ByTenant map[uuid.UUID]map[string]int `json:"by_tenant"`
}
