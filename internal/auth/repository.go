package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-crm/meridian/internal/shared"
)

// Repository reads users and persists session metadata.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	CreateSession(ctx context.Context, id string, userID uuid.UUID, expiresAt time.Time, ip, ua string) error
	DeleteSession(ctx context.Context, id string) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a Postgres-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := r.pool.QueryRow(ctx, `
		SELECT id, org_id, name, email, COALESCE(phone, ''), password_hash, is_active, created_at
		FROM users WHERE lower(email) = lower($1)`, email).
		Scan(&u.ID, &u.OrgID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.IsActive, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *repository) CreateSession(ctx context.Context, id string, userID uuid.UUID, expiresAt time.Time, ip, ua string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO sessions (id, user_id, expires_at, ip, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())`,
		id, userID, expiresAt, ip, ua)
	return err
}

func (r *repository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}
