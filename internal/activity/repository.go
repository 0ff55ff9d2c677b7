package activity

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists activity entries.
type Repository interface {
	Insert(ctx context.Context, e Entry) error
	ListByEntity(ctx context.Context, orgID uuid.UUID, kind EntityKind, entityID uuid.UUID) ([]Entry, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a Postgres-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Insert(ctx context.Context, e Entry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO activities (id, org_id, entity_kind, entity_id, type, title, description, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())`,
		e.ID, e.OrgID, string(e.Kind), e.EntityID, e.Type, e.Title, e.Description, e.ActorID,
	)
	return err
}

func (r *repository) ListByEntity(ctx context.Context, orgID uuid.UUID, kind EntityKind, entityID uuid.UUID) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, org_id, entity_kind, entity_id, type, title, description, actor_id, created_at
		FROM activities
		WHERE org_id = $1 AND entity_kind = $2 AND entity_id = $3
		ORDER BY created_at DESC`,
		orgID, string(kind), entityID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var kind string
		if err := rows.Scan(&e.ID, &e.OrgID, &kind, &e.EntityID, &e.Type, &e.Title, &e.Description, &e.ActorID, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Kind = EntityKind(kind)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
