package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/kardex-api/internal/domain"
)

// Códigos SQLSTATE que el dominio distingue.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// mapWriteError traduce violaciones de constraints a errores de dominio; el resto se envuelve con op.
func mapWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%s: %w", op, domain.ErrDuplicate)
		case pgForeignKeyViolation:
			return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		case pgCheckViolation:
			return fmt.Errorf("%s: %w (%s)", op, domain.ErrInvalidInput, pgErr.ConstraintName)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
