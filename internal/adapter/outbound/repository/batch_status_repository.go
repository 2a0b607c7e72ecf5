package repository

import (
	"context"
	"fmt"
	"time"

	"textembedder/internal/domain/entity"
	"textembedder/internal/domain/valueobject"
	"textembedder/internal/port/outbound"

	"github.com/jackc/pgx/v5/pgxpool"
)

const batchStatusTable = "batch_status"

// PostgreSQLBatchStatusRepository keeps one status row per batch key.
type PostgreSQLBatchStatusRepository struct {
	pool *pgxpool.Pool
}

// NewPostgreSQLBatchStatusRepository creates a new status repository.
func NewPostgreSQLBatchStatusRepository(pool *pgxpool.Pool) *PostgreSQLBatchStatusRepository {
	return &PostgreSQLBatchStatusRepository{pool: pool}
}

// EnsureSchema creates the status table when it is missing.
func (r *PostgreSQLBatchStatusRepository) EnsureSchema(ctx context.Context) error {
	_, err := GetQueryInterface(ctx, r.pool).Exec(ctx, `
		CREATE TABLE IF NOT EXISTS `+batchStatusTable+` (
			batch_key     TEXT PRIMARY KEY,
			status        TEXT NOT NULL CHECK (status IN ('processing', 'done', 'failed')),
			error_message TEXT,
			updated_at    TIMESTAMPTZ NOT NULL
		)`)
	return WrapError(err, "create batch status table")
}

// SetStatus overwrites the row for record.BatchKey. It never reads first.
func (r *PostgreSQLBatchStatusRepository) SetStatus(ctx context.Context, record entity.BatchStatusRecord) error {
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = time.Now().UTC()
	}

	_, err := GetQueryInterface(ctx, r.pool).Exec(ctx, `
		INSERT INTO `+batchStatusTable+` (batch_key, status, error_message, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4)
		ON CONFLICT (batch_key) DO UPDATE SET
			status        = EXCLUDED.status,
			error_message = EXCLUDED.error_message,
			updated_at    = EXCLUDED.updated_at`,
		record.BatchKey, record.Status.String(), record.ErrorMessage, record.UpdatedAt)
	if err != nil {
		return WrapError(err, "set batch status")
	}
	return nil
}

// GetStatus returns the row for batchKey, or ErrNotFound.
func (r *PostgreSQLBatchStatusRepository) GetStatus(ctx context.Context, batchKey string) (entity.BatchStatusRecord, error) {
	var (
		record  entity.BatchStatusRecord
		status  string
		message *string
	)
	err := GetQueryInterface(ctx, r.pool).QueryRow(ctx, `
		SELECT batch_key, status, error_message, updated_at
		FROM `+batchStatusTable+`
		WHERE batch_key = $1`, batchKey).
		Scan(&record.BatchKey, &status, &message, &record.UpdatedAt)
	if err != nil {
		if IsNotFoundError(err) {
			return entity.BatchStatusRecord{}, fmt.Errorf("get batch status failed: %w: %w", ErrNotFound, outbound.ErrBatchStatusNotFound)
		}
		return entity.BatchStatusRecord{}, WrapError(err, "get batch status")
	}

	record.Status, err = valueobject.ParseBatchStatus(status)
	if err != nil {
		return entity.BatchStatusRecord{}, fmt.Errorf("get batch status: %w", err)
	}
	if message != nil {
		record.ErrorMessage = *message
	}
	return record, nil
}

// Ping checks database connectivity.
func (r *PostgreSQLBatchStatusRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
