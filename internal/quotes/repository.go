package quotes

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

// Repository persists quotes. Every query is scoped by organization id.
type Repository interface {
	CountCodes(ctx context.Context, orgID uuid.UUID, codePrefix string) (int64, error)
	Get(ctx context.Context, orgID, id uuid.UUID) (*Quote, error)
	List(ctx context.Context, orgID uuid.UUID, req ListQuotesRequest) ([]Quote, int, error)
	Insert(ctx context.Context, q Quote) error
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

const quoteColumns = `id, org_id, code, title, status, amount, valid_until,
	account_id, contact_id, deal_id, COALESCE(notes,''), created_by_id, created_at, updated_at`

func (r *repository) CountCodes(ctx context.Context, orgID uuid.UUID, codePrefix string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM quotes WHERE org_id = $1 AND code LIKE $2 || '%'`,
		orgID, codePrefix).Scan(&count)
	return count, err
}

func (r *repository) Get(ctx context.Context, orgID, id uuid.UUID) (*Quote, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+quoteColumns+` FROM quotes WHERE org_id = $1 AND id = $2`, orgID, id)
	q, err := scanQuote(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return q, nil
}

func (r *repository) List(ctx context.Context, orgID uuid.UUID, req ListQuotesRequest) ([]Quote, int, error) {
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
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM quotes "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPagination(req.Page, req.PerPage, total)
	query := fmt.Sprintf(`SELECT %s FROM quotes %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		quoteColumns, where, argPos, argPos+1)
	args = append(args, page.PerPage, (page.Page-1)*page.PerPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var quotes []Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, 0, err
		}
		quotes = append(quotes, *q)
	}
	return quotes, total, rows.Err()
}

func (r *repository) Insert(ctx context.Context, q Quote) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO quotes (id, org_id, code, title, status, amount, valid_until, account_id, contact_id, deal_id, notes, created_by_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())`,
		q.ID, q.OrgID, q.Code, q.Title, string(q.Status), q.Amount, q.ValidUntil,
		q.AccountID, q.ContactID, q.DealID, q.Notes, q.CreatedByID)
	return db.TranslateError(err)
}

func (r *repository) Update(ctx context.Context, orgID, id uuid.UUID, updates map[string]any) error {
	query := "UPDATE quotes SET updated_at = NOW()"
	var args []any
	argPos := 1

	for _, col := range []string{"title", "status", "amount", "valid_until", "account_id", "contact_id", "deal_id", "notes"} {
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
	tag, err := r.pool.Exec(ctx, `DELETE FROM quotes WHERE org_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanQuote(row pgx.Row) (*Quote, error) {
	var q Quote
	var status string
	err := row.Scan(&q.ID, &q.OrgID, &q.Code, &q.Title, &status, &q.Amount, &q.ValidUntil,
		&q.AccountID, &q.ContactID, &q.DealID, &q.Notes, &q.CreatedByID, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	q.Status = workflow.Status(status)
	return &q, nil
}
