package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"textembedder/internal/application/common"
	"textembedder/internal/application/dto"
	"textembedder/internal/domain/errors/domain"
	"textembedder/internal/port/outbound"
)

// BatchStatusService reads the status record written by the worker.
type BatchStatusService struct {
	store outbound.BatchStatusStore
}

// NewBatchStatusService creates a new BatchStatusService instance.
func NewBatchStatusService(store outbound.BatchStatusStore) *BatchStatusService {
	if store == nil {
		panic("store cannot be nil")
	}
	return &BatchStatusService{store: store}
}

// GetBatchStatus returns the last status written for batchKey.
func (s *BatchStatusService) GetBatchStatus(ctx context.Context, batchKey string) (*dto.BatchStatusResponse, error) {
	batchKey = strings.TrimSpace(batchKey)
	if batchKey == "" {
		return nil, fmt.Errorf("%w: batch key is required", domain.ErrInvalidInput)
	}

	record, err := s.store.GetStatus(ctx, batchKey)
	if err != nil {
		if errors.Is(err, outbound.ErrBatchStatusNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrBatchNotFound, batchKey)
		}
		return nil, common.WrapServiceError(common.OpGetBatchStatus+" "+batchKey, err)
	}

	return &dto.BatchStatusResponse{
		BatchKey:     record.BatchKey,
		Status:       record.Status.String(),
		ErrorMessage: record.ErrorMessage,
		UpdatedAt:    record.UpdatedAt,
		Terminal:     record.Status.IsTerminal(),
	}, nil
}
