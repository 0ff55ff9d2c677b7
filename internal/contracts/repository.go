package contracts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-crm/meridian/internal/platform/db"
	"github.com/meridian-crm/meridian/internal/shared"
	"github.com/meridian-crm/meridian/internal/workflow"
)

// Repository persists contracts. Every query is scoped by organization id
// except ListExpiring, which feeds the cross-organization renewal scan.
type Repository interface {
	CountCodes(ctx context.Context, orgID uuid.UUID, codePrefix string) (int64, error)
	Get(ctx context.Context, orgID, id uuid.UUID) (*Contract, error)
	List(ctx context.Context, orgID uuid.UUID, req ListContractsRequest) ([]Contract, int, error)
	ListExpiring(ctx context.Context, before time.Time) ([]Contract, error)
	Insert(ctx context.Context, c Contract) error
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

const contractColumns = `id, org_id, code, title, status, value, effective_date, end_date,
	COALESCE(terms,''), account_id, deal_id, created_by_id, created_at, updated_at`

func (r *repository) CountCodes(ctx context.Context, orgID uuid.UUID, codePrefix string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM contracts WHERE org_id = $1 AND code LIKE $2 || '%'`,
		orgID, codePrefix).Scan(&count)
	return count, err
}

func (r *repository) Get(ctx context.Context, orgID, id uuid.UUID) (*Contract, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+contractColumns+` FROM contracts WHERE org_id = $1 AND id = $2`, orgID, id)
	c, err := scanContract(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *repository) List(ctx context.Context, orgID uuid.UUID, req ListContractsRequest) ([]Contract, int, error) {
	conditions := []string{"org_id = $1"}
	args := []any{orgID}
	argPos := 2

	if req.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, req.Status)
		argPos++
	}
	if req.AccountID != nil {
		conditions = append(conditions, fmt.Sprintf("account_id = $%d", argPos))
		args = append(args, *req.AccountID)
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
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM contracts "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPagination(req.Page, req.PerPage, total)
	query := fmt.Sprintf(`SELECT %s FROM contracts %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		contractColumns, where, argPos, argPos+1)
	args = append(args, page.PerPage, (page.Page-1)*page.PerPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var contracts []Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, 0, err
		}
		contracts = append(contracts, *c)
	}
	return contracts, total, rows.Err()
}

func (r *repository) ListExpiring(ctx context.Context, before time.Time) ([]Contract, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+contractColumns+` FROM contracts
		WHERE status = $1 AND end_date IS NOT NULL AND end_date <= $2 AND end_date >= NOW()
		ORDER BY end_date ASC`,
		string(StatusActive), before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contracts []Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		contracts = append(contracts, *c)
	}
	return contracts, rows.Err()
}

func (r *repository) Insert(ctx context.Context, c Contract) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO contracts (id, org_id, code, title, status, value, effective_date, end_date, terms, account_id, deal_id, created_by_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())`,
		c.ID, c.OrgID, c.Code, c.Title, string(c.Status), c.Value, c.EffectiveDate, c.EndDate,
		c.Terms, c.AccountID, c.DealID, c.CreatedByID)
	return db.TranslateError(err)
}

func (r *repository) Update(ctx context.Context, orgID, id uuid.UUID, updates map[string]any) error {
	query := "UPDATE contracts SET updated_at = NOW()"
	var args []any
	argPos := 1

	for _, col := range []string{"title", "status", "value", "effective_date", "end_date", "terms", "account_id", "deal_id"} {
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
	tag, err := r.pool.Exec(ctx, `DELETE FROM contracts WHERE org_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanContract(row pgx.Row) (*Contract, error) {
	var c Contract
	var status string
	err := row.Scan(&c.ID, &c.OrgID, &c.Code, &c.Title, &status, &c.Value, &c.EffectiveDate, &c.EndDate,
		&c.Terms, &c.AccountID, &c.DealID, &c.CreatedByID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Status = workflow.Status(status)
	return &c, nil
}
