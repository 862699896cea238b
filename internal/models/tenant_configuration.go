package models

import (
	"time"

	"github.com/google/uuid"
)

// TenantConfiguration is the per-tenant application configuration pushed to
// running tenant instances. Exactly one row exists per tenant.
type TenantConfiguration struct {
	ID             uuid.UUID `json:"id" db:"id"`
	TenantID       uuid.UUID `json:"tenant_id" db:"tenant_id"`
	DisplayName    string    `json:"display_name" db:"display_name"`
	Theme          JSONB     `json:"theme" db:"theme"`
	Timezone       string    `json:"timezone" db:"timezone"`
	Currency       string    `json:"currency" db:"currency"`
	Language       string    `json:"language" db:"language"`
	DateFormat     string    `json:"date_format" db:"date_format"`
	FeatureFlags   []string  `json:"feature_flags" db:"feature_flags"`
	EnabledRoles   []string  `json:"enabled_roles" db:"enabled_roles"`
	CustomSettings JSONB     `json:"custom_settings" db:"custom_settings"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}
