// Package kvstore keeps batch status records in an embedded Badger database.
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"textembedder/internal/application/common/slogger"
	"textembedder/internal/domain/entity"
	"textembedder/internal/port/outbound"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

const statusKeyPrefix = "batch_status/"

// ErrNotFound is returned when no status has been written for a batch key.
var ErrNotFound = outbound.ErrBatchStatusNotFound

// BadgerStatusStore stores one JSON-encoded record per batch key.
type BadgerStatusStore struct {
	db *badger.DB
}

type badgerLogger struct{}

var _ badger.Logger = badgerLogger{}

func (badgerLogger) Errorf(msg string, args ...any) {
	slogger.ErrorNoCtx(fmt.Sprintf(msg, args...), slogger.Fields{"component": "badger"})
}

func (badgerLogger) Warningf(msg string, args ...any) {
	slogger.WarnNoCtx(fmt.Sprintf(msg, args...), slogger.Fields{"component": "badger"})
}

func (badgerLogger) Infof(string, ...any) {}

func (badgerLogger) Debugf(string, ...any) {}

// OpenBadgerStatusStore opens the database at path, creating the directory
// if needed. An empty path opens an in-memory store. The process holds the
// directory lock until Close.
func OpenBadgerStatusStore(path string) (*BadgerStatusStore, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0o750); err != nil {
			return nil, fmt.Errorf("create badger directory: %w", err)
		}
		opts = badger.DefaultOptions(path)
	}
	return open(opts)
}

func open(opts badger.Options) (*BadgerStatusStore, error) {
	opts.Logger = badgerLogger{}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerStatusStore{db: db}, nil
}

func statusKey(batchKey string) []byte {
	return []byte(statusKeyPrefix + batchKey)
}

// SetStatus overwrites the record for record.BatchKey.
func (s *BadgerStatusStore) SetStatus(ctx context.Context, record entity.BatchStatusRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = time.Now().UTC()
	}

	value, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode batch status: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(statusKey(record.BatchKey), value)
	})
	if err != nil {
		return fmt.Errorf("set batch status: %w", err)
	}
	return nil
}

// GetStatus returns the record for batchKey, or ErrNotFound.
func (s *BadgerStatusStore) GetStatus(ctx context.Context, batchKey string) (entity.BatchStatusRecord, error) {
	if err := ctx.Err(); err != nil {
		return entity.BatchStatusRecord{}, err
	}

	var record entity.BatchStatusRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(statusKey(batchKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return entity.BatchStatusRecord{}, fmt.Errorf("get batch status %q: %w", batchKey, ErrNotFound)
	}
	if err != nil {
		return entity.BatchStatusRecord{}, fmt.Errorf("get batch status: %w", err)
	}
	return record, nil
}

// Ping reports whether the database is still open.
func (s *BadgerStatusStore) Ping(context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger status store is closed")
	}
	return nil
}

// Close closes the database.
func (s *BadgerStatusStore) Close() error {
	return s.db.Close()
}
