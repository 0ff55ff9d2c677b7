package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/meridian-crm/meridian/internal/shared"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// TranslateError maps Postgres constraint violations onto the domain error
// set. Unique violations surface as duplicate-code errors, foreign key
// violations as referential integrity errors. Other errors pass through.
func TranslateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%w: %s", shared.ErrDuplicateCode, pgErr.ConstraintName)
		case codeForeignKeyViolation:
			return fmt.Errorf("%w: %s", shared.ErrReferentialIntegrity, pgErr.ConstraintName)
		}
	}
	return err
}
