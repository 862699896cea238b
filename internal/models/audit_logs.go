package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog is an immutable record of a state-changing event. Entries are
// append-only; the archived flag only marks export to cold storage.
type AuditLog struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Action       string     `json:"action" db:"action"`
	ResourceType string     `json:"resource_type" db:"resource_type"`
	ResourceID   string     `json:"resource_id" db:"resource_id"`
	ActorType    string     `json:"actor_type" db:"actor_type"`
	ActorID      *uuid.UUID `json:"actor_id" db:"actor_id"`
	OldValues    JSONB      `json:"old_values" db:"old_values"`
	NewValues    JSONB      `json:"new_values" db:"new_values"`
	Metadata     JSONB      `json:"metadata" db:"metadata"`
	Archived     bool       `json:"archived" db:"archived"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// Audit actions
const (
	ActionTenantCreate        = "TENANT_CREATE"
	ActionTenantUpdate        = "TENANT_UPDATE"
	ActionTenantDelete        = "TENANT_DELETE"
	ActionConfigUpdate        = "CONFIG_UPDATE"
	ActionServiceRegistered   = "SERVICE_REGISTERED"
	ActionServiceStatusChange = "SERVICE_STATUS_CHANGE"
	ActionConfigSync          = "CONFIG_SYNC"
)

// Audit actor types
const (
	ActorPlatformUser = "PLATFORM_USER"
	ActorSystem       = "SYSTEM"
)

// Audit resource types
const (
	ResourceTenant          = "tenant"
	ResourceTenantConfig    = "tenant_configuration"
	ResourceServiceInstance = "service_instance"
)

// AuditLogFilters represents filters for querying audit logs
type AuditLogFilters struct {
	Action       *string    `json:"action"`
	ResourceType *string    `json:"resource_type"`
	ResourceID   *string    `json:"resource_id"`
	ActorType    *string    `json:"actor_type"`
	ActorID      *uuid.UUID `json:"actor_id"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
	Limit        int        `json:"limit"`
	Offset       int        `json:"offset"`
}
