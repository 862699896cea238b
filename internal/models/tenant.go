package models

import (
	"time"

	"github.com/google/uuid"
)

// Tenant statuses. DELETED is terminal; rows are never physically removed.
const (
	TenantStatusActive   = "ACTIVE"
	TenantStatusInactive = "INACTIVE"
	TenantStatusDeleted  = "DELETED"
)

// Tenant plan tiers
const (
	PlanStarter    = "STARTER"
	PlanStandard   = "STANDARD"
	PlanEnterprise = "ENTERPRISE"
)

type Tenant struct {
	ID             uuid.UUID `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Slug           string    `json:"slug" db:"slug"`
	Domain         string    `json:"domain" db:"domain"`
	Status         string    `json:"status" db:"status"`
	Plan           string    `json:"plan" db:"plan"`
	ResourceLimits JSONB     `json:"resource_limits" db:"resource_limits"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// IsValidTenantStatus reports whether status is a known tenant status.
func IsValidTenantStatus(status string) bool {
	switch status {
	case TenantStatusActive, TenantStatusInactive, TenantStatusDeleted:
		return true
	}
	return false
}
