package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-crm/meridian/internal/shared"
)

// Repository persists accounts. Every query is scoped by organization id.
type Repository interface {
	Exists(ctx context.Context, orgID, id uuid.UUID) (bool, error)
	PhoneOf(ctx context.Context, orgID, id uuid.UUID) (string, error)
	Get(ctx context.Context, orgID, id uuid.UUID) (*Account, error)
	List(ctx context.Context, orgID uuid.UUID, req ListAccountsRequest) ([]Account, int, error)
	Insert(ctx context.Context, a Account) error
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

const accountColumns = `id, org_id, name, COALESCE(industry,''), COALESCE(website,''), COALESCE(phone,''),
	COALESCE(email,''), COALESCE(billing_address,''), COALESCE(notes,''), created_by_id, created_at, updated_at`

func (r *repository) Exists(ctx context.Context, orgID, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE org_id = $1 AND id = $2)`, orgID, id).Scan(&exists)
	return exists, err
}

func (r *repository) PhoneOf(ctx context.Context, orgID, id uuid.UUID) (string, error) {
	var phone string
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(phone,'') FROM accounts WHERE org_id = $1 AND id = $2`, orgID, id).Scan(&phone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", shared.ErrNotFound
		}
		return "", err
	}
	return phone, nil
}

func (r *repository) Get(ctx context.Context, orgID, id uuid.UUID) (*Account, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE org_id = $1 AND id = $2`, orgID, id)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *repository) List(ctx context.Context, orgID uuid.UUID, req ListAccountsRequest) ([]Account, int, error) {
	conditions := []string{"org_id = $1"}
	args := []any{orgID}
	argPos := 2

	if req.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR industry ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+req.Search+"%")
		argPos++
	}

	where := "WHERE " + conditions[0]
	for _, c := range conditions[1:] {
		where += " AND " + c
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM accounts "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPagination(req.Page, req.PerPage, total)
	query := fmt.Sprintf(`SELECT %s FROM accounts %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		accountColumns, where, argPos, argPos+1)
	args = append(args, page.PerPage, (page.Page-1)*page.PerPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, 0, err
		}
		accounts = append(accounts, *a)
	}
	return accounts, total, rows.Err()
}

func (r *repository) Insert(ctx context.Context, a Account) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (id, org_id, name, industry, website, phone, email, billing_address, notes, created_by_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())`,
		a.ID, a.OrgID, a.Name, a.Industry, a.Website, a.Phone, a.Email, a.BillingAddress, a.Notes, a.CreatedByID)
	return err
}

func (r *repository) Update(ctx context.Context, orgID, id uuid.UUID, updates map[string]any) error {
	query := "UPDATE accounts SET updated_at = NOW()"
	var args []any
	argPos := 1

	for _, col := range []string{"name", "industry", "website", "phone", "email", "billing_address", "notes"} {
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
	tag, err := r.pool.Exec(ctx, `DELETE FROM accounts WHERE org_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.OrgID, &a.Name, &a.Industry, &a.Website, &a.Phone,
		&a.Email, &a.BillingAddress, &a.Notes, &a.CreatedByID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
