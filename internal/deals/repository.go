package deals

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

// Repository persists deals. Every query is scoped by organization id.
type Repository interface {
	Exists(ctx context.Context, orgID, id uuid.UUID) (bool, error)
	Get(ctx context.Context, orgID, id uuid.UUID) (*Deal, error)
	List(ctx context.Context, orgID uuid.UUID, req ListDealsRequest) ([]Deal, int, error)
	Insert(ctx context.Context, d Deal) error
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

const dealColumns = `id, org_id, title, stage, amount, account_id, contact_id,
	expected_close_date, assigned_to_id, COALESCE(notes,''), created_by_id, created_at, updated_at`

func (r *repository) Exists(ctx context.Context, orgID, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM deals WHERE org_id = $1 AND id = $2)`, orgID, id).Scan(&exists)
	return exists, err
}

func (r *repository) Get(ctx context.Context, orgID, id uuid.UUID) (*Deal, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+dealColumns+` FROM deals WHERE org_id = $1 AND id = $2`, orgID, id)
	d, err := scanDeal(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

func (r *repository) List(ctx context.Context, orgID uuid.UUID, req ListDealsRequest) ([]Deal, int, error) {
	conditions := []string{"org_id = $1"}
	args := []any{orgID}
	argPos := 2

	if req.Stage != "" {
		conditions = append(conditions, fmt.Sprintf("stage = $%d", argPos))
		args = append(args, req.Stage)
		argPos++
	}
	if req.AccountID != nil {
		conditions = append(conditions, fmt.Sprintf("account_id = $%d", argPos))
		args = append(args, *req.AccountID)
		argPos++
	}
	if req.Search != "" {
		conditions = append(conditions, fmt.Sprintf("title ILIKE $%d", argPos))
		args = append(args, "%"+req.Search+"%")
		argPos++
	}

	where := "WHERE " + conditions[0]
	for _, c := range conditions[1:] {
		where += " AND " + c
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM deals "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPagination(req.Page, req.PerPage, total)
	query := fmt.Sprintf(`SELECT %s FROM deals %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		dealColumns, where, argPos, argPos+1)
	args = append(args, page.PerPage, (page.Page-1)*page.PerPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var deals []Deal
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, 0, err
		}
		deals = append(deals, *d)
	}
	return deals, total, rows.Err()
}

func (r *repository) Insert(ctx context.Context, d Deal) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO deals (id, org_id, title, stage, amount, account_id, contact_id, expected_close_date, assigned_to_id, notes, created_by_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())`,
		d.ID, d.OrgID, d.Title, string(d.Stage), d.Amount, d.AccountID, d.ContactID,
		d.ExpectedCloseDate, d.AssignedToID, d.Notes, d.CreatedByID)
	return err
}

func (r *repository) Update(ctx context.Context, orgID, id uuid.UUID, updates map[string]any) error {
	query := "UPDATE deals SET updated_at = NOW()"
	var args []any
	argPos := 1

	for _, col := range []string{"title", "stage", "amount", "account_id", "contact_id", "expected_close_date", "assigned_to_id", "notes"} {
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
	tag, err := r.pool.Exec(ctx, `DELETE FROM deals WHERE org_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanDeal(row pgx.Row) (*Deal, error) {
	var d Deal
	var stage string
	err := row.Scan(&d.ID, &d.OrgID, &d.Title, &stage, &d.Amount, &d.AccountID, &d.ContactID,
		&d.ExpectedCloseDate, &d.AssignedToID, &d.Notes, &d.CreatedByID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.Stage = workflow.Status(stage)
	return &d, nil
}
