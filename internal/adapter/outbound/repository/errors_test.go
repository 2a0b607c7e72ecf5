package repository

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestWrapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{name: "no rows", err: pgx.ErrNoRows, sentinel: ErrNotFound},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505", Message: "duplicate key"}, sentinel: ErrConstraintViolation},
		{name: "connection failure", err: &pgconn.PgError{Code: "08006", Message: "connection failure"}, sentinel: ErrConnectionFailed},
		{
			name:     "vector width",
			err:      &pgconn.PgError{Code: "22000", Message: "expected 768 dimensions, not 3"},
			sentinel: ErrDimensionMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := WrapError(tt.err, "upsert document")

			assert.ErrorIs(t, wrapped, tt.sentinel)
			assert.Contains(t, wrapped.Error(), "upsert document failed")
			if !errors.Is(tt.err, pgx.ErrNoRows) {
				var pgErr *pgconn.PgError
				assert.True(t, errors.As(wrapped, &pgErr), "driver error must stay in the chain")
			}
		})
	}

	assert.NoError(t, WrapError(nil, "noop"))

	plain := errors.New("boom")
	assert.ErrorIs(t, WrapError(plain, "op"), plain)
}

func TestIsNotFoundError(t *testing.T) {
	assert.True(t, IsNotFoundError(pgx.ErrNoRows))
	assert.True(t, IsNotFoundError(WrapError(pgx.ErrNoRows, "get")))
	assert.False(t, IsNotFoundError(nil))
	assert.False(t, IsNotFoundError(errors.New("other")))
}
