package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"rentgrid/internal/models"

	"github.com/google/uuid"
)

type TenantConfigRepository interface {
	GetByTenantID(ctx context.Context, tenantID uuid.UUID) (*models.TenantConfiguration, error)
	Upsert(ctx context.Context, config *models.TenantConfiguration) error
}

type tenantConfigRepo struct {
	db DB
}

func NewTenantConfigRepo(db DB) TenantConfigRepository {
	return &tenantConfigRepo{db: db}
}

func (r *tenantConfigRepo) GetByTenantID(ctx context.Context, tenantID uuid.UUID) (*models.TenantConfiguration, error) {
	config := &models.TenantConfiguration{}
	var theme, custom []byte

	query := `
		SELECT id, tenant_id, display_name, theme, timezone, currency, language, date_format,
		       feature_flags, enabled_roles, custom_settings, created_at, updated_at
		FROM tenant_configurations
		WHERE tenant_id = $1
	`
	err := r.db.QueryRow(ctx, query, tenantID).Scan(
		&config.ID,
		&config.TenantID,
		&config.DisplayName,
		&theme,
		&config.Timezone,
		&config.Currency,
		&config.Language,
		&config.DateFormat,
		&config.FeatureFlags,
		&config.EnabledRoles,
		&custom,
		&config.CreatedAt,
		&config.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(theme) > 0 {
		if err := json.Unmarshal(theme, &config.Theme); err != nil {
			return nil, fmt.Errorf("failed to unmarshal theme: %w", err)
		}
	}
	if len(custom) > 0 {
		if err := json.Unmarshal(custom, &config.CustomSettings); err != nil {
			return nil, fmt.Errorf("failed to unmarshal custom_settings: %w", err)
		}
	}

	return config, nil
}

func (r *tenantConfigRepo) Upsert(ctx context.Context, config *models.TenantConfiguration) error {
	if config.ID == uuid.Nil {
		config.ID = uuid.New()
	}

	theme, err := marshalJSONB(config.Theme)
	if err != nil {
		return fmt.Errorf("failed to marshal theme: %w", err)
	}
	custom, err := marshalJSONB(config.CustomSettings)
	if err != nil {
		return fmt.Errorf("failed to marshal custom_settings: %w", err)
	}

	query := `
		INSERT INTO tenant_configurations (id, tenant_id, display_name, theme, timezone, currency, language, date_format,
		                                   feature_flags, enabled_roles, custom_settings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		ON CONFLICT (tenant_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			theme = EXCLUDED.theme,
			timezone = EXCLUDED.timezone,
			currency = EXCLUDED.currency,
			language = EXCLUDED.language,
			date_format = EXCLUDED.date_format,
			feature_flags = EXCLUDED.feature_flags,
			enabled_roles = EXCLUDED.enabled_roles,
			custom_settings = EXCLUDED.custom_settings,
			updated_at = NOW()
	`
	_, err = r.db.Exec(ctx, query,
		config.ID,
		config.TenantID,
		config.DisplayName,
		theme,
		config.Timezone,
		config.Currency,
		config.Language,
		config.DateFormat,
		config.FeatureFlags,
		config.EnabledRoles,
		custom,
	)
	return err
}
