// Package orgs resolves the organizations that form the tenant boundary.
package orgs

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-crm/meridian/internal/shared"
)

// Organization is a tenant. Every numbered document and activity entry
// belongs to exactly one.
type Organization struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository reads organizations.
type Repository interface {
	Get(ctx context.Context, id uuid.UUID) (*Organization, error)
	GetByCode(ctx context.Context, code string) (*Organization, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a Postgres-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Organization, error) {
	return r.scan(r.pool.QueryRow(ctx,
		`SELECT id, name, code, created_at FROM organizations WHERE id = $1`, id))
}

func (r *repository) GetByCode(ctx context.Context, code string) (*Organization, error) {
	return r.scan(r.pool.QueryRow(ctx,
		`SELECT id, name, code, created_at FROM organizations WHERE code = $1`, code))
}

func (r *repository) scan(row pgx.Row) (*Organization, error) {
	var o Organization
	if err := row.Scan(&o.ID, &o.Name, &o.Code, &o.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}
