package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"rentgrid/internal/models"

	"github.com/google/uuid"
)

type TenantRepository interface {
	Create(ctx context.Context, tenant *models.Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*models.Tenant, error)
	Update(ctx context.Context, tenant *models.Tenant) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*models.Tenant, error)
	ListByStatus(ctx context.Context, status string) ([]*models.Tenant, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
}

type tenantRepo struct {
	db DB
}

func NewTenantRepo(db DB) TenantRepository {
	return &tenantRepo{db: db}
}

const tenantColumns = `id, name, slug, domain, status, plan, resource_limits, created_at, updated_at`

func (r *tenantRepo) Create(ctx context.Context, tenant *models.Tenant) error {
	query := `
		INSERT INTO tenants (id, name, slug, domain, status, plan, resource_limits, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`
	limits, err := marshalJSONB(tenant.ResourceLimits)
	if err != nil {
		return fmt.Errorf("failed to marshal resource_limits: %w", err)
	}
	_, err = r.db.Exec(ctx, query, tenant.ID, tenant.Name, tenant.Slug, tenant.Domain, tenant.Status, tenant.Plan, limits)
	return err
}

func (r *tenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`
	return r.scanTenant(r.db.QueryRow(ctx, query, id))
}

func (r *tenantRepo) GetBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE slug = $1`
	return r.scanTenant(r.db.QueryRow(ctx, query, slug))
}

func (r *tenantRepo) Update(ctx context.Context, tenant *models.Tenant) error {
	query := `
		UPDATE tenants
		SET name = $1, slug = $2, domain = $3, status = $4, plan = $5, resource_limits = $6, updated_at = NOW()
		WHERE id = $7
	`
	limits, err := marshalJSONB(tenant.ResourceLimits)
	if err != nil {
		return fmt.Errorf("failed to marshal resource_limits: %w", err)
	}
	_, err = r.db.Exec(ctx, query, tenant.Name, tenant.Slug, tenant.Domain, tenant.Status, tenant.Plan, limits, tenant.ID)
	return err
}

func (r *tenantRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE tenants SET status = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.Exec(ctx, query, models.TenantStatusDeleted, id)
	return err
}

func (r *tenantRepo) List(ctx context.Context, limit, offset int) ([]*models.Tenant, error) {
	query := `
		SELECT ` + tenantColumns + `
		FROM tenants
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []*models.Tenant
	for rows.Next() {
		tenant, err := r.scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, tenant)
	}
	return tenants, rows.Err()
}

func (r *tenantRepo) ListByStatus(ctx context.Context, status string) ([]*models.Tenant, error) {
	query := `
		SELECT ` + tenantColumns + `
		FROM tenants
		WHERE status = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []*models.Tenant
	for rows.Next() {
		tenant, err := r.scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, tenant)
	}
	return tenants, rows.Err()
}

func (r *tenantRepo) CountByStatus(ctx context.Context) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM tenants GROUP BY status`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// scanner covers both pgx.Row and pgx.Rows
type scanner interface {
	Scan(dest ...any) error
}

func (r *tenantRepo) scanTenant(row scanner) (*models.Tenant, error) {
	tenant := &models.Tenant{}
	var limits []byte
	err := row.Scan(&tenant.ID, &tenant.Name, &tenant.Slug, &tenant.Domain, &tenant.Status, &tenant.Plan, &limits, &tenant.CreatedAt, &tenant.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(limits) > 0 {
		if err := json.Unmarshal(limits, &tenant.ResourceLimits); err != nil {
			return nil, fmt.Errorf("failed to unmarshal resource_limits: %w", err)
		}
	}
	return tenant, nil
}

func marshalJSONB(v models.JSONB) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
