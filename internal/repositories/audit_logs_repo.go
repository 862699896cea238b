package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"rentgrid/internal/models"

	"github.com/google/uuid"
)

type AuditLogsRepository interface {
	// Create appends a new audit log entry. Entries are never updated.
	Create(ctx context.Context, auditLog *models.AuditLog) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.AuditLog, error)
	List(ctx context.Context, filters *models.AuditLogFilters) ([]*models.AuditLog, error)

	// ListUnarchivedBefore returns entries older than cutoff that have not yet
	// been exported to cold storage.
	ListUnarchivedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*models.AuditLog, error)
	MarkArchived(ctx context.Context, ids []uuid.UUID) error
}

type auditLogsRepo struct {
	db DB
}

func NewAuditLogsRepo(db DB) AuditLogsRepository {
	return &auditLogsRepo{db: db}
}

const auditColumns = `id, action, resource_type, resource_id, actor_type, actor_id, old_values, new_values, metadata, archived, created_at`

func (r *auditLogsRepo) Create(ctx context.Context, auditLog *models.AuditLog) error {
	if auditLog.ID == uuid.Nil {
		auditLog.ID = uuid.New()
	}
	if auditLog.CreatedAt.IsZero() {
		auditLog.CreatedAt = time.Now()
	}

	oldValues, err := marshalJSONB(auditLog.OldValues)
	if err != nil {
		return fmt.Errorf("failed to marshal old_values: %w", err)
	}
	newValues, err := marshalJSONB(auditLog.NewValues)
	if err != nil {
		return fmt.Errorf("failed to marshal new_values: %w", err)
	}
	metadata, err := marshalJSONB(auditLog.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		INSERT INTO audit_logs (id, action, resource_type, resource_id, actor_type, actor_id, old_values, new_values, metadata, archived, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, false, $10)
	`
	_, err = r.db.Exec(ctx, query,
		auditLog.ID,
		auditLog.Action,
		auditLog.ResourceType,
		auditLog.ResourceID,
		auditLog.ActorType,
		auditLog.ActorID,
		oldValues,
		newValues,
		metadata,
		auditLog.CreatedAt,
	)
	return err
}

func (r *auditLogsRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.AuditLog, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_logs WHERE id = $1`
	return r.scanAuditLog(r.db.QueryRow(ctx, query, id))
}

func (r *auditLogsRepo) List(ctx context.Context, filters *models.AuditLogFilters) ([]*models.AuditLog, error) {
	if filters == nil {
		filters = &models.AuditLogFilters{}
	}

	query := `SELECT ` + auditColumns + ` FROM audit_logs WHERE 1=1`
	args := []any{}
	argNum := 1

	addFilter := func(clause string, value any) {
		query += " AND " + clause + "$" + strconv.Itoa(argNum)
		args = append(args, value)
		argNum++
	}

	if filters.Action != nil {
		addFilter("action = ", *filters.Action)
	}
	if filters.ResourceType != nil {
		addFilter("resource_type = ", *filters.ResourceType)
	}
	if filters.ResourceID != nil {
		addFilter("resource_id = ", *filters.ResourceID)
	}
	if filters.ActorType != nil {
		addFilter("actor_type = ", *filters.ActorType)
	}
	if filters.ActorID != nil {
		addFilter("actor_id = ", *filters.ActorID)
	}
	if filters.StartDate != nil {
		addFilter("created_at >= ", *filters.StartDate)
	}
	if filters.EndDate != nil {
		addFilter("created_at <= ", *filters.EndDate)
	}

	query += " ORDER BY created_at DESC"

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " LIMIT $" + strconv.Itoa(argNum)
	args = append(args, limit)
	argNum++

	if filters.Offset > 0 {
		query += " OFFSET $" + strconv.Itoa(argNum)
		args = append(args, filters.Offset)
	}

	return r.queryAuditLogs(ctx, query, args...)
}

func (r *auditLogsRepo) ListUnarchivedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*models.AuditLog, error) {
	query := `
		SELECT ` + auditColumns + `
		FROM audit_logs
		WHERE archived = false AND created_at < $1
		ORDER BY created_at
		LIMIT $2
	`
	return r.queryAuditLogs(ctx, query, cutoff, limit)
}

func (r *auditLogsRepo) MarkArchived(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE audit_logs SET archived = true WHERE id = ANY($1)`
	_, err := r.db.Exec(ctx, query, ids)
	return err
}

func (r *auditLogsRepo) queryAuditLogs(ctx context.Context, query string, args ...any) ([]*models.AuditLog, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.AuditLog
	for rows.Next() {
		entry, err := r.scanAuditLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

func (r *auditLogsRepo) scanAuditLog(row scanner) (*models.AuditLog, error) {
	entry := &models.AuditLog{}
	var oldValues, newValues, metadata []byte

	err := row.Scan(
		&entry.ID,
		&entry.Action,
		&entry.ResourceType,
		&entry.ResourceID,
		&entry.ActorType,
		&entry.ActorID,
		&oldValues,
		&newValues,
		&metadata,
		&entry.Archived,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(oldValues) > 0 {
		if err := json.Unmarshal(oldValues, &entry.OldValues); err != nil {
			return nil, fmt.Errorf("failed to unmarshal old_values: %w", err)
		}
	}
	if len(newValues) > 0 {
		if err := json.Unmarshal(newValues, &entry.NewValues); err != nil {
			return nil, fmt.Errorf("failed to unmarshal new_values: %w", err)
		}
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &entry.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return entry, nil
}
