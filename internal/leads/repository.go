package leads

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-crm/meridian/internal/shared"
	"github.com/meridian-crm/meridian/internal/workflow"
)

// Repository persists leads. Every query is scoped by organization id.
type Repository interface {
	Get(ctx context.Context, orgID, id uuid.UUID) (*Lead, error)
	List(ctx context.Context, orgID uuid.UUID, req ListLeadsRequest) ([]Lead, int, error)
	Insert(ctx context.Context, l Lead) error
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

const leadColumns = `id, org_id, name, COALESCE(company,''), COALESCE(email,''), COALESCE(phone,''),
	COALESCE(source,''), status, assigned_to_id, COALESCE(notes,''), created_by_id, created_at, updated_at`

func (r *repository) Get(ctx context.Context, orgID, id uuid.UUID) (*Lead, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE org_id = $1 AND id = $2`, orgID, id)
	l, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return l, nil
}

func (r *repository) List(ctx context.Context, orgID uuid.UUID, req ListLeadsRequest) ([]Lead, int, error) {
	conditions := []string{"org_id = $1"}
	args := []any{orgID}
	argPos := 2

	if req.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, req.Status)
		argPos++
	}
	if req.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR company ILIKE $%d OR email ILIKE $%d)", argPos, argPos, argPos))
		args = append(args, "%"+req.Search+"%")
		argPos++
	}

	where := "WHERE " + conditions[0]
	for _, c := range conditions[1:] {
		where += " AND " + c
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM leads "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPagination(req.Page, req.PerPage, total)
	query := fmt.Sprintf(`SELECT %s FROM leads %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		leadColumns, where, argPos, argPos+1)
	args = append(args, page.PerPage, (page.Page-1)*page.PerPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var leads []Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, 0, err
		}
		leads = append(leads, *l)
	}
	return leads, total, rows.Err()
}

func (r *repository) Insert(ctx context.Context, l Lead) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO leads (id, org_id, name, company, email, phone, source, status, assigned_to_id, notes, created_by_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())`,
		l.ID, l.OrgID, l.Name, l.Company, l.Email, l.Phone, l.Source, string(l.Status), l.AssignedToID, l.Notes, l.CreatedByID)
	return err
}

func (r *repository) Update(ctx context.Context, orgID, id uuid.UUID, updates map[string]any) error {
	query := "UPDATE leads SET updated_at = NOW()"
	var args []any
	argPos := 1

	for _, col := range []string{"name", "company", "email", "phone", "source", "status", "assigned_to_id", "notes"} {
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
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM leads WHERE org_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanLead(row pgx.Row) (*Lead, error) {
	var l Lead
	var status string
	err := row.Scan(&l.ID, &l.OrgID, &l.Name, &l.Company, &l.Email, &l.Phone,
		&l.Source, &status, &l.AssignedToID, &l.Notes, &l.CreatedByID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	l.Status = workflow.Status(status)
	return &l, nil
}
