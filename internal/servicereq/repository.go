package servicereq

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-crm/meridian/internal/platform/db"
	"github.com/meridian-crm/meridian/internal/shared"
	"github.com/meridian-crm/meridian/internal/workflow"
)

// Repository persists service requests. Every query is scoped by
// organization id.
type Repository interface {
	CountCodes(ctx context.Context, orgID uuid.UUID, codePrefix string) (int64, error)
	Get(ctx context.Context, orgID, id uuid.UUID) (*ServiceRequest, error)
	List(ctx context.Context, orgID uuid.UUID, req ListServiceRequestsRequest) ([]ServiceRequest, int, error)
	Insert(ctx context.Context, sr ServiceRequest) error
	Update(ctx context.Context, orgID, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, orgID, id uuid.UUID) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a Postgres-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const srColumns = `id, org_id, code, title, COALESCE(description,''), priority, status,
	account_id, contact_id, assigned_to_id, resolved_at, created_by_id, created_at, updated_at`

func (r *repository) CountCodes(ctx context.Context, orgID uuid.UUID, codePrefix string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM service_requests WHERE org_id = $1 AND code LIKE $2 || '%'`,
		orgID, codePrefix).Scan(&count)
	return count, err
}

func (r *repository) Get(ctx context.Context, orgID, id uuid.UUID) (*ServiceRequest, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+srColumns+` FROM service_requests WHERE org_id = $1 AND id = $2`, orgID, id)
	sr, err := scanServiceRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return sr, nil
}

func (r *repository) List(ctx context.Context, orgID uuid.UUID, req ListServiceRequestsRequest) ([]ServiceRequest, int, error) {
	conditions := []string{"org_id = $1"}
	args := []any{orgID}
	argPos := 2

	if req.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, req.Status)
		argPos++
	}
	if req.Priority != "" {
		conditions = append(conditions, fmt.Sprintf("priority = $%d", argPos))
		args = append(args, req.Priority)
		argPos++
	}
	if req.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(code ILIKE $%d OR title ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+req.Search+"%")
		argPos++
	}

	where := "WHERE " + conditions[0]
	for _, c := range conditions[1:] {
		where += " AND " + c
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM service_requests "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPagination(req.Page, req.PerPage, total)
	query := fmt.Sprintf(`SELECT %s FROM service_requests %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		srColumns, where, argPos, argPos+1)
	args = append(args, page.PerPage, (page.Page-1)*page.PerPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []ServiceRequest
	for rows.Next() {
		sr, err := scanServiceRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *sr)
	}
	return out, total, rows.Err()
}

func (r *repository) Insert(ctx context.Context, sr ServiceRequest) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO service_requests (id, org_id, code, title, description, priority, status, account_id, contact_id, assigned_to_id, resolved_at, created_by_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())`,
		sr.ID, sr.OrgID, sr.Code, sr.Title, sr.Description, sr.Priority, string(sr.Status),
		sr.AccountID, sr.ContactID, sr.AssignedToID, sr.ResolvedAt, sr.CreatedByID)
	return db.TranslateError(err)
}

func (r *repository) Update(ctx context.Context, orgID, id uuid.UUID, updates map[string]any) error {
	query := "UPDATE service_requests SET updated_at = NOW()"
	var args []any
	argPos := 1

	for _, col := range []string{"title", "description", "priority", "status", "account_id", "contact_id", "assigned_to_id", "resolved_at"} {
		if v, ok := updates[col]; ok {
			query += fmt.Sprintf(", %s = $%d", col, argPos)
			args = append(args, v)
			argPos++
		}
	}

	query += fmt.Sprintf(" WHERE org_id = $%d AND id = $%d", argPos, argPos+1)
	args = append(args, orgID, id)

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return db.TranslateError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM service_requests WHERE org_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanServiceRequest(row pgx.Row) (*ServiceRequest, error) {
	var sr ServiceRequest
	var status string
	err := row.Scan(&sr.ID, &sr.OrgID, &sr.Code, &sr.Title, &sr.Description, &sr.Priority, &status,
		&sr.AccountID, &sr.ContactID, &sr.AssignedToID, &sr.ResolvedAt, &sr.CreatedByID, &sr.CreatedAt, &sr.UpdatedAt)
	if err != nil {
		return nil, err
	}
	sr.Status = workflow.Status(status)
	return &sr, nil
}
