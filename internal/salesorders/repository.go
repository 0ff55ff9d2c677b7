package salesorders

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

// Repository persists sales orders. Every query is scoped by organization id.
type Repository interface {
	CountCodes(ctx context.Context, orgID uuid.UUID, codePrefix string) (int64, error)
	Exists(ctx context.Context, orgID, id uuid.UUID) (bool, error)
	Get(ctx context.Context, orgID, id uuid.UUID) (*SalesOrder, error)
	List(ctx context.Context, orgID uuid.UUID, req ListSalesOrdersRequest) ([]SalesOrder, int, error)
	Insert(ctx context.Context, so SalesOrder) error
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

const orderColumns = `id, org_id, code, title, status, amount,
	account_id, contact_id, quote_id, COALESCE(notes,''), created_by_id, created_at, updated_at`

func (r *repository) CountCodes(ctx context.Context, orgID uuid.UUID, codePrefix string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM sales_orders WHERE org_id = $1 AND code LIKE $2 || '%'`,
		orgID, codePrefix).Scan(&count)
	return count, err
}

func (r *repository) Exists(ctx context.Context, orgID, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM sales_orders WHERE org_id = $1 AND id = $2)`, orgID, id).Scan(&exists)
	return exists, err
}

func (r *repository) Get(ctx context.Context, orgID, id uuid.UUID) (*SalesOrder, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM sales_orders WHERE org_id = $1 AND id = $2`, orgID, id)
	so, err := scanSalesOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return so, nil
}

func (r *repository) List(ctx context.Context, orgID uuid.UUID, req ListSalesOrdersRequest) ([]SalesOrder, int, error) {
	conditions := []string{"org_id = $1"}
	args := []any{orgID}
	argPos := 2

	if req.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, req.Status)
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
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM sales_orders "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPagination(req.Page, req.PerPage, total)
	query := fmt.Sprintf(`SELECT %s FROM sales_orders %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		orderColumns, where, argPos, argPos+1)
	args = append(args, page.PerPage, (page.Page-1)*page.PerPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var orders []SalesOrder
	for rows.Next() {
		so, err := scanSalesOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *so)
	}
	return orders, total, rows.Err()
}

func (r *repository) Insert(ctx context.Context, so SalesOrder) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO sales_orders (id, org_id, code, title, status, amount, account_id, contact_id, quote_id, notes, created_by_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())`,
		so.ID, so.OrgID, so.Code, so.Title, string(so.Status), so.Amount,
		so.AccountID, so.ContactID, so.QuoteID, so.Notes, so.CreatedByID)
	return db.TranslateError(err)
}

func (r *repository) Update(ctx context.Context, orgID, id uuid.UUID, updates map[string]any) error {
	query := "UPDATE sales_orders SET updated_at = NOW()"
	var args []any
	argPos := 1

	for _, col := range []string{"title", "status", "amount", "account_id", "contact_id", "quote_id", "notes"} {
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
	tag, err := r.pool.Exec(ctx, `DELETE FROM sales_orders WHERE org_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanSalesOrder(row pgx.Row) (*SalesOrder, error) {
	var so SalesOrder
	var status string
	err := row.Scan(&so.ID, &so.OrgID, &so.Code, &so.Title, &status, &so.Amount,
		&so.AccountID, &so.ContactID, &so.QuoteID, &so.Notes, &so.CreatedByID, &so.CreatedAt, &so.UpdatedAt)
	if err != nil {
		return nil, err
	}
	so.Status = workflow.Status(status)
	return &so, nil
}
