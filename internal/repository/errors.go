package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound      = errors.New("product not found")
	ErrDuplicateProductCode = errors.New("product code already exists")
	// ErrConcurrencyConflict means an update matched no row although the row
	// still exists afterwards.
	ErrConcurrencyConflict = errors.New("product update conflict")
	ErrStorage             = errors.New("storage failure")
)

const pgUniqueViolation = "23505"

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
