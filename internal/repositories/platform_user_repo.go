package repositories

import (
	"context"

	"rentgrid/internal/models"

	"github.com/google/uuid"
)

type PlatformUserRepository interface {
	Create(ctx context.Context, user *models.PlatformUser) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.PlatformUser, error)
	GetByEmail(ctx context.Context, email string) (*models.PlatformUser, error)
	Count(ctx context.Context) (int, error)
}

type platformUserRepo struct {
	db DB
}

func NewPlatformUserRepo(db DB) PlatformUserRepository {
	return &platformUserRepo{db: db}
}

const userColumns = `id, email, name, password_hash, role, active, created_at, updated_at`

func (r *platformUserRepo) Create(ctx context.Context, user *models.PlatformUser) error {
	query := `
		INSERT INTO platform_users (id, email, name, password_hash, role, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, user.ID, user.Email, user.Name, user.PasswordHash, user.Role, user.Active)
	return err
}

func (r *platformUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.PlatformUser, error) {
	query := `SELECT ` + userColumns + ` FROM platform_users WHERE id = $1`
	return r.scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *platformUserRepo) GetByEmail(ctx context.Context, email string) (*models.PlatformUser, error) {
	query := `SELECT ` + userColumns + ` FROM platform_users WHERE email = $1`
	return r.scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *platformUserRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM platform_users`).Scan(&count)
	return count, err
}

func (r *platformUserRepo) scanUser(row scanner) (*models.PlatformUser, error) {
	user := &models.PlatformUser{}
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.Role, &user.Active, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}
