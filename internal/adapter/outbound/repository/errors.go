package repository

import (
	"errors"
	"fmt"
	"strings"

	"textembedder/internal/port/outbound"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Common error types
var (
	ErrNotFound            = errors.New("record not found")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrConnectionFailed    = errors.New("database connection failed")
	ErrDimensionMismatch   = outbound.ErrDimensionMismatch
	ErrInvalidIdentifier   = errors.New("invalid SQL identifier")
)

// IsNotFoundError checks if an error is a "not found" error
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, ErrNotFound)
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsConstraintViolationError checks if an error is a constraint violation
func IsConstraintViolationError(err error) bool {
	switch pgCode(err) {
	case "23505", "23503", "23514", "23502":
		return true
	}
	return errors.Is(err, ErrConstraintViolation)
}

// IsConnectionError checks if an error is a connection-related error
func IsConnectionError(err error) bool {
	code := pgCode(err)
	if len(code) >= 2 && (code[:2] == "08" || code[:2] == "57") {
		return true
	}
	return errors.Is(err, ErrConnectionFailed)
}

// isDimensionError matches pgvector's "expected N dimensions, not M" (data_exception).
func isDimensionError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "22000" && strings.Contains(pgErr.Message, "dimensions")
	}
	return false
}

// WrapError wraps a database error with the operation name. The driver error
// stays in the chain so callers can log the database's own message.
func WrapError(err error, operation string) error {
	if err == nil {
		return nil
	}

	switch {
	case IsNotFoundError(err):
		return fmt.Errorf("%s failed: %w", operation, ErrNotFound)
	case isDimensionError(err):
		return fmt.Errorf("%s failed: %w: %w", operation, ErrDimensionMismatch, err)
	case IsConstraintViolationError(err):
		return fmt.Errorf("%s failed: %w: %w", operation, ErrConstraintViolation, err)
	case IsConnectionError(err):
		return fmt.Errorf("%s failed: %w: %w", operation, ErrConnectionFailed, err)
	default:
		return fmt.Errorf("%s failed: %w", operation, err)
	}
}
