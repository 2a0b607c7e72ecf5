// Package domain provides domain-specific error definitions and utilities.
package domain

import "errors"

// Document and batch errors.
var (
	ErrBatchNotFound   = errors.New("batch not found")
	ErrInvalidDocument = errors.New("document is invalid")
	ErrEmbeddingFailed = errors.New("embedding failed")
	ErrIndexMissing    = errors.New("vector index does not exist")
)

// General domain errors.
var (
	ErrInvalidInput = errors.New("invalid input")
)
