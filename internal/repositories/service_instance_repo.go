package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"rentgrid/internal/models"

	"github.com/google/uuid"
)

type ServiceInstanceRepository interface {
	// Upsert registers an instance against its natural key
	// (tenant_id, type, host, port). It reports whether a new row was created.
	Upsert(ctx context.Context, instance *models.ServiceInstance) (bool, error)

	GetByID(ctx context.Context, id uuid.UUID) (*models.ServiceInstance, error)
	ListAll(ctx context.Context) ([]*models.ServiceInstance, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.ServiceInstance, error)
	GetBackendByTenant(ctx context.Context, tenantID uuid.UUID) (*models.ServiceInstance, error)

	// UpdateHealth writes the result of a health check back to the row.
	UpdateHealth(ctx context.Context, id uuid.UUID, status string, metadata models.JSONB, checkedAt time.Time) error

	// Update mutates the administratively editable fields (version, metadata).
	Update(ctx context.Context, instance *models.ServiceInstance) error

	CountByStatus(ctx context.Context) (map[string]int, error)
}

type serviceInstanceRepo struct {
	db DB
}

func NewServiceInstanceRepo(db DB) ServiceInstanceRepository {
	return &serviceInstanceRepo{db: db}
}

const instanceColumns = `id, tenant_id, type, host, port, status, version, metadata, last_health_check, created_at, updated_at`

func (r *serviceInstanceRepo) Upsert(ctx context.Context, instance *models.ServiceInstance) (bool, error) {
	if instance.ID == uuid.Nil {
		instance.ID = uuid.New()
	}

	metadata, err := marshalJSONB(instance.Metadata)
	if err != nil {
		return false, fmt.Errorf("failed to marshal metadata: %w", err)
	}

	// xmax = 0 distinguishes a fresh insert from a conflict update.
	query := `
		INSERT INTO service_instances (id, tenant_id, type, host, port, status, version, metadata, last_health_check, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		ON CONFLICT (tenant_id, type, host, port) DO UPDATE SET
			status = EXCLUDED.status,
			version = COALESCE(EXCLUDED.version, service_instances.version),
			metadata = EXCLUDED.metadata,
			last_health_check = EXCLUDED.last_health_check,
			updated_at = NOW()
		RETURNING id, (xmax = 0) AS inserted
	`
	var created bool
	err = r.db.QueryRow(ctx, query,
		instance.ID,
		instance.TenantID,
		instance.Type,
		instance.Host,
		instance.Port,
		instance.Status,
		instance.Version,
		metadata,
		instance.LastHealthCheck,
	).Scan(&instance.ID, &created)
	if err != nil {
		return false, err
	}
	return created, nil
}

func (r *serviceInstanceRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ServiceInstance, error) {
	query := `SELECT ` + instanceColumns + ` FROM service_instances WHERE id = $1`
	return r.scanInstance(r.db.QueryRow(ctx, query, id))
}

func (r *serviceInstanceRepo) ListAll(ctx context.Context) ([]*models.ServiceInstance, error) {
	query := `SELECT ` + instanceColumns + ` FROM service_instances ORDER BY created_at`
	return r.queryInstances(ctx, query)
}

func (r *serviceInstanceRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*models.ServiceInstance, error) {
	query := `SELECT ` + instanceColumns + ` FROM service_instances WHERE tenant_id = $1 ORDER BY created_at`
	return r.queryInstances(ctx, query, tenantID)
}

func (r *serviceInstanceRepo) GetBackendByTenant(ctx context.Context, tenantID uuid.UUID) (*models.ServiceInstance, error) {
	query := `
		SELECT ` + instanceColumns + `
		FROM service_instances
		WHERE tenant_id = $1 AND type = $2
		ORDER BY last_health_check DESC NULLS LAST
		LIMIT 1
	`
	return r.scanInstance(r.db.QueryRow(ctx, query, tenantID, models.ServiceTypeBackend))
}

func (r *serviceInstanceRepo) UpdateHealth(ctx context.Context, id uuid.UUID, status string, metadata models.JSONB, checkedAt time.Time) error {
	meta, err := marshalJSONB(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		UPDATE service_instances
		SET status = $1, metadata = $2, last_health_check = $3, updated_at = NOW()
		WHERE id = $4
	`
	_, err = r.db.Exec(ctx, query, status, meta, checkedAt, id)
	return err
}

func (r *serviceInstanceRepo) Update(ctx context.Context, instance *models.ServiceInstance) error {
	metadata, err := marshalJSONB(instance.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		UPDATE service_instances
		SET version = $1, metadata = $2, updated_at = NOW()
		WHERE id = $3
	`
	_, err = r.db.Exec(ctx, query, instance.Version, metadata, instance.ID)
	return err
}

func (r *serviceInstanceRepo) CountByStatus(ctx context.Context) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM service_instances GROUP BY status`
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

func (r *serviceInstanceRepo) queryInstances(ctx context.Context, query string, args ...any) ([]*models.ServiceInstance, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var instances []*models.ServiceInstance
	for rows.Next() {
		instance, err := r.scanInstance(rows)
		if err != nil {
			return nil, err
		}
		instances = append(instances, instance)
	}
	return instances, rows.Err()
}

func (r *serviceInstanceRepo) scanInstance(row scanner) (*models.ServiceInstance, error) {
	instance := &models.ServiceInstance{}
	var metadata []byte
	err := row.Scan(
		&instance.ID,
		&instance.TenantID,
		&instance.Type,
		&instance.Host,
		&instance.Port,
		&instance.Status,
		&instance.Version,
		&metadata,
		&instance.LastHealthCheck,
		&instance.CreatedAt,
		&instance.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &instance.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return instance, nil
}
