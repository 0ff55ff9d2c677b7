package contacts

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-crm/meridian/internal/shared"
)

// Repository persists contacts. Every query is scoped by organization id.
type Repository interface {
	Exists(ctx context.Context, orgID, id uuid.UUID) (bool, error)
	PhoneOf(ctx context.Context, orgID, id uuid.UUID) (string, error)
	Get(ctx context.Context, orgID, id uuid.UUID) (*Contact, error)
	List(ctx context.Context, orgID uuid.UUID, req ListContactsRequest) ([]Contact, int, error)
	Insert(ctx context.Context, c Contact) error
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

const contactColumns = `id, org_id, first_name, last_name, COALESCE(email,''), COALESCE(phone,''),
	COALESCE(designation,''), account_id, COALESCE(notes,''), created_by_id, created_at, updated_at`

func (r *repository) Exists(ctx context.Context, orgID, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM contacts WHERE org_id = $1 AND id = $2)`, orgID, id).Scan(&exists)
	return exists, err
}

func (r *repository) PhoneOf(ctx context.Context, orgID, id uuid.UUID) (string, error) {
	var phone string
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(phone,'') FROM contacts WHERE org_id = $1 AND id = $2`, orgID, id).Scan(&phone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", shared.ErrNotFound
		}
		return "", err
	}
	return phone, nil
}

func (r *repository) Get(ctx context.Context, orgID, id uuid.UUID) (*Contact, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE org_id = $1 AND id = $2`, orgID, id)
	c, err := scanContact(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *repository) List(ctx context.Context, orgID uuid.UUID, req ListContactsRequest) ([]Contact, int, error) {
	conditions := []string{"org_id = $1"}
	args := []any{orgID}
	argPos := 2

	if req.AccountID != nil {
		conditions = append(conditions, fmt.Sprintf("account_id = $%d", argPos))
		args = append(args, *req.AccountID)
		argPos++
	}
	if req.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d)", argPos, argPos, argPos))
		args = append(args, "%"+req.Search+"%")
		argPos++
	}

	where := "WHERE " + conditions[0]
	for _, c := range conditions[1:] {
		where += " AND " + c
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM contacts "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPagination(req.Page, req.PerPage, total)
	query := fmt.Sprintf(`SELECT %s FROM contacts %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		contactColumns, where, argPos, argPos+1)
	args = append(args, page.PerPage, (page.Page-1)*page.PerPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var contacts []Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, 0, err
		}
		contacts = append(contacts, *c)
	}
	return contacts, total, rows.Err()
}

func (r *repository) Insert(ctx context.Context, c Contact) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO contacts (id, org_id, first_name, last_name, email, phone, designation, account_id, notes, created_by_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())`,
		c.ID, c.OrgID, c.FirstName, c.LastName, c.Email, c.Phone, c.Designation, c.AccountID, c.Notes, c.CreatedByID)
	return err
}

func (r *repository) Update(ctx context.Context, orgID, id uuid.UUID, updates map[string]any) error {
	query := "UPDATE contacts SET updated_at = NOW()"
	var args []any
	argPos := 1

	for _, col := range []string{"first_name", "last_name", "email", "phone", "designation", "account_id", "notes"} {
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
	tag, err := r.pool.Exec(ctx, `DELETE FROM contacts WHERE org_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanContact(row pgx.Row) (*Contact, error) {
	var c Contact
	err := row.Scan(&c.ID, &c.OrgID, &c.FirstName, &c.LastName, &c.Email, &c.Phone,
		&c.Designation, &c.AccountID, &c.Notes, &c.CreatedByID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
