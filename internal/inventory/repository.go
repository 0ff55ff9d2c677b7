package inventory

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

// Repository persists items and serial numbers. Every query is scoped by
// organization id.
type Repository interface {
	GetItem(ctx context.Context, orgID, id uuid.UUID) (*Item, error)
	ListItems(ctx context.Context, orgID uuid.UUID, req ListItemsRequest) ([]Item, int, error)
	InsertItem(ctx context.Context, it Item) error
	DeleteItem(ctx context.Context, orgID, id uuid.UUID) error

	GetSerial(ctx context.Context, orgID, id uuid.UUID) (*SerialNumber, error)
	ListSerialsByItem(ctx context.Context, orgID, itemID uuid.UUID) ([]SerialNumber, error)
	InsertSerial(ctx context.Context, sn SerialNumber) error
	UpdateSerial(ctx context.Context, orgID, id uuid.UUID, updates map[string]any) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a Postgres-backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const itemColumns = `id, org_id, sku, name, COALESCE(description,''), unit_price, created_at, updated_at`

func (r *repository) GetItem(ctx context.Context, orgID, id uuid.UUID) (*Item, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+itemColumns+` FROM inventory_items WHERE org_id = $1 AND id = $2`, orgID, id)
	var it Item
	err := row.Scan(&it.ID, &it.OrgID, &it.SKU, &it.Name, &it.Description, &it.UnitPrice, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &it, nil
}

func (r *repository) ListItems(ctx context.Context, orgID uuid.UUID, req ListItemsRequest) ([]Item, int, error) {
	conditions := []string{"org_id = $1"}
	args := []any{orgID}
	argPos := 2

	if req.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(sku ILIKE $%d OR name ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+req.Search+"%")
		argPos++
	}

	where := "WHERE " + conditions[0]
	for _, c := range conditions[1:] {
		where += " AND " + c
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM inventory_items "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPagination(req.Page, req.PerPage, total)
	query := fmt.Sprintf(`SELECT %s FROM inventory_items %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		itemColumns, where, argPos, argPos+1)
	args = append(args, page.PerPage, (page.Page-1)*page.PerPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrgID, &it.SKU, &it.Name, &it.Description, &it.UnitPrice, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, it)
	}
	return items, total, rows.Err()
}

func (r *repository) InsertItem(ctx context.Context, it Item) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO inventory_items (id, org_id, sku, name, description, unit_price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())`,
		it.ID, it.OrgID, it.SKU, it.Name, it.Description, it.UnitPrice)
	return db.TranslateError(err)
}

func (r *repository) DeleteItem(ctx context.Context, orgID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM inventory_items WHERE org_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		return db.TranslateError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

const serialColumns = `id, org_id, item_id, serial, status, sales_order_id, installation_id, created_at, updated_at`

func (r *repository) GetSerial(ctx context.Context, orgID, id uuid.UUID) (*SerialNumber, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+serialColumns+` FROM inventory_serials WHERE org_id = $1 AND id = $2`, orgID, id)
	sn, err := scanSerial(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return sn, nil
}

func (r *repository) ListSerialsByItem(ctx context.Context, orgID, itemID uuid.UUID) ([]SerialNumber, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+serialColumns+` FROM inventory_serials WHERE org_id = $1 AND item_id = $2 ORDER BY created_at DESC`,
		orgID, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var serials []SerialNumber
	for rows.Next() {
		sn, err := scanSerial(rows)
		if err != nil {
			return nil, err
		}
		serials = append(serials, *sn)
	}
	return serials, rows.Err()
}

func (r *repository) InsertSerial(ctx context.Context, sn SerialNumber) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO inventory_serials (id, org_id, item_id, serial, status, sales_order_id, installation_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())`,
		sn.ID, sn.OrgID, sn.ItemID, sn.Serial, string(sn.Status), sn.SalesOrderID, sn.InstallationID)
	return db.TranslateError(err)
}

func (r *repository) UpdateSerial(ctx context.Context, orgID, id uuid.UUID, updates map[string]any) error {
	query := "UPDATE inventory_serials SET updated_at = NOW()"
	var args []any
	argPos := 1

	for _, col := range []string{"status", "sales_order_id", "installation_id"} {
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

func scanSerial(row pgx.Row) (*SerialNumber, error) {
	var sn SerialNumber
	var status string
	err := row.Scan(&sn.ID, &sn.OrgID, &sn.ItemID, &sn.Serial, &status,
		&sn.SalesOrderID, &sn.InstallationID, &sn.CreatedAt, &sn.UpdatedAt)
	if err != nil {
		return nil, err
	}
	sn.Status = workflow.Status(status)
	return &sn, nil
}
