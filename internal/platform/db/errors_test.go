package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/meridian-crm/meridian/internal/shared"
)

func TestTranslateErrorMapsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "sales_orders_org_id_code_key"}

	err := TranslateError(fmt.Errorf("insert: %w", pgErr))
	assert.ErrorIs(t, err, shared.ErrDuplicateCode)
	assert.Contains(t, err.Error(), "sales_orders_org_id_code_key")
}

func TestTranslateErrorMapsForeignKeyViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23503", ConstraintName: "deals_account_id_fkey"}

	err := TranslateError(pgErr)
	assert.ErrorIs(t, err, shared.ErrReferentialIntegrity)
}

func TestTranslateErrorPassesOtherErrorsThrough(t *testing.T) {
	plain := errors.New("connection reset")
	assert.Equal(t, plain, TranslateError(plain))
	assert.NoError(t, TranslateError(nil))
}
