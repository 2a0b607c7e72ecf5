package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"textembedder/internal/domain/entity"
	"textembedder/internal/domain/errors/domain"
	"textembedder/internal/domain/valueobject"
	"textembedder/internal/port/outbound"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestBatchStatusService_GetBatchStatus(t *testing.T) {
	updated := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store := new(mockStatusStore)
	store.On("GetStatus", mock.Anything, "batches/a.jsonl").Return(entity.BatchStatusRecord{
		BatchKey:     "batches/a.jsonl",
		Status:       valueobject.BatchStatusFailed,
		ErrorMessage: "1 of 4 units failed to embed/index",
		UpdatedAt:    updated,
	}, nil)

	resp, err := NewBatchStatusService(store).GetBatchStatus(context.Background(), "batches/a.jsonl")
	require.NoError(t, err)

	assert.Equal(t, "batches/a.jsonl", resp.BatchKey)
	assert.Equal(t, "failed", resp.Status)
	assert.Equal(t, "1 of 4 units failed to embed/index", resp.ErrorMessage)
	assert.Equal(t, updated, resp.UpdatedAt)
	assert.True(t, resp.Terminal)
}

func TestBatchStatusService_GetBatchStatus_Processing(t *testing.T) {
	store := new(mockStatusStore)
	store.On("GetStatus", mock.Anything, "k").
		Return(entity.NewBatchStatusRecord("k", valueobject.BatchStatusProcessing, ""), nil)

	resp, err := NewBatchStatusService(store).GetBatchStatus(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "processing", resp.Status)
	assert.False(t, resp.Terminal)
}

func TestBatchStatusService_GetBatchStatus_Errors(t *testing.T) {
	boom := errors.New("store unavailable")
	tests := []struct {
		name     string
		key      string
		storeErr error
		expected error
	}{
		{name: "blank key", key: " ", expected: domain.ErrInvalidInput},
		{
			name:     "not found",
			key:      "missing",
			storeErr: fmt.Errorf("get batch status failed: %w", outbound.ErrBatchStatusNotFound),
			expected: domain.ErrBatchNotFound,
		},
		{name: "store failure", key: "k", storeErr: boom, expected: boom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(mockStatusStore)
			store.On("GetStatus", mock.Anything, tt.key).Return(entity.BatchStatusRecord{}, tt.storeErr)

			_, err := NewBatchStatusService(store).GetBatchStatus(context.Background(), tt.key)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}
