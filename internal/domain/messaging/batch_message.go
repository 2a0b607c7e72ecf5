// Package messaging defines the queue message that announces a batch.
package messaging

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// DefaultBatchKeyField is the body field that carries the object-store key.
const DefaultBatchKeyField = "s3_key"

// ErrInvalidBatchMessage is returned for bodies that do not name a batch.
var ErrInvalidBatchMessage = errors.New("invalid batch message")

// BatchMessage is the decoded body of a queue message.
type BatchMessage struct {
	BatchKey string
}

// DecodeBatchMessage parses a JSON object body and extracts the batch key from field.
// Invalid JSON or a missing, empty or non-string field is an ErrInvalidBatchMessage.
func DecodeBatchMessage(body []byte, field string) (BatchMessage, error) {
	if field == "" {
		field = DefaultBatchKeyField
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return BatchMessage{}, fmt.Errorf("%w: %w", ErrInvalidBatchMessage, err)
	}

	value, ok := raw[field]
	if !ok {
		return BatchMessage{}, fmt.Errorf("%w: missing field %q", ErrInvalidBatchMessage, field)
	}

	var key string
	if err := json.Unmarshal(value, &key); err != nil {
		return BatchMessage{}, fmt.Errorf("%w: field %q is not a string", ErrInvalidBatchMessage, field)
	}
	if strings.TrimSpace(key) == "" {
		return BatchMessage{}, fmt.Errorf("%w: field %q is empty", ErrInvalidBatchMessage, field)
	}

	return BatchMessage{BatchKey: key}, nil
}

// EncodeBatchMessage builds the body announcing batchKey.
func EncodeBatchMessage(batchKey, field string) ([]byte, error) {
	if field == "" {
		field = DefaultBatchKeyField
	}
	if strings.TrimSpace(batchKey) == "" {
		return nil, fmt.Errorf("%w: empty batch key", ErrInvalidBatchMessage)
	}
	return json.Marshal(map[string]string{field: batchKey})
}
