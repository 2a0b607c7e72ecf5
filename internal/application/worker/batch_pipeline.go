package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"textembedder/internal/application/common/slogger"
	"textembedder/internal/domain/entity"
	"textembedder/internal/domain/valueobject"
	"textembedder/internal/port/outbound"
)

// statusWriteTimeout bounds the final status write, which runs even after
// the batch context has expired.
const statusWriteTimeout = 10 * time.Second

// UnitLoader loads the units of one batch.
type UnitLoader interface {
	Load(ctx context.Context, batchKey string) ([]entity.ProcessingUnit, error)
}

// PipelineDependencies holds the collaborators of BatchPipeline.
type PipelineDependencies struct {
	Loader    UnitLoader
	Embedder  outbound.EmbeddingService
	Index     outbound.VectorIndex
	Status    outbound.BatchStatusStore
	Scheduler *Scheduler
	Metrics   *Metrics
}

// BatchPipeline embeds and indexes every unit of a batch and records the
// batch status.
type BatchPipeline struct {
	loader    UnitLoader
	embedder  outbound.EmbeddingService
	index     outbound.VectorIndex
	status    outbound.BatchStatusStore
	scheduler *Scheduler
	metrics   *Metrics
}

// NewBatchPipeline validates deps and builds a pipeline.
func NewBatchPipeline(deps PipelineDependencies) (*BatchPipeline, error) {
	switch {
	case deps.Loader == nil:
		return nil, errors.New("batch pipeline: loader is required")
	case deps.Embedder == nil:
		return nil, errors.New("batch pipeline: embedding service is required")
	case deps.Index == nil:
		return nil, errors.New("batch pipeline: vector index is required")
	case deps.Status == nil:
		return nil, errors.New("batch pipeline: status store is required")
	case deps.Scheduler == nil:
		return nil, errors.New("batch pipeline: scheduler is required")
	}
	return &BatchPipeline{
		loader:    deps.Loader,
		embedder:  deps.Embedder,
		index:     deps.Index,
		status:    deps.Status,
		scheduler: deps.Scheduler,
		metrics:   deps.Metrics,
	}, nil
}

// Process runs one attempt of batchKey.
//
// The status is set to processing, then every unit is embedded and indexed
// on the shared scheduler. All units are attempted even after a failure.
// The status ends as done only if every unit succeeded; otherwise it is
// failed and the returned error wraps ErrBatchFailed. Units that succeeded
// stay indexed either way.
func (p *BatchPipeline) Process(ctx context.Context, batchKey string) (entity.BatchSummary, error) {
	start := time.Now()

	if err := p.setStatus(ctx, batchKey, valueobject.BatchStatusProcessing, ""); err != nil {
		return entity.BatchSummary{BatchKey: batchKey}, err
	}

	units, err := p.loader.Load(ctx, batchKey)
	if err != nil {
		slogger.ErrorWithError(ctx, err, "Failed to load batch", slogger.Fields{"batch_key": batchKey})
		p.finish(ctx, batchKey, valueobject.BatchStatusFailed, err.Error())
		return entity.BatchSummary{BatchKey: batchKey, Duration: time.Since(start)},
			fmt.Errorf("%w: %s: %w", ErrBatchFailed, batchKey, err)
	}

	slogger.Info(ctx, "Processing batch", slogger.Fields{"batch_key": batchKey, "units": len(units)})

	results := p.runUnits(ctx, batchKey, units)
	summary := entity.NewBatchSummary(batchKey, results, time.Since(start))

	fields := slogger.Fields{
		"batch_key":   batchKey,
		"total":       summary.Total,
		"succeeded":   summary.Succeeded,
		"failed":      summary.Failed,
		"duration_ms": summary.Duration.Milliseconds(),
	}

	if !summary.AllSucceeded() {
		if err := p.finish(ctx, batchKey, valueobject.BatchStatusFailed, summary.FailureMessage()); err != nil {
			fields["status_error"] = err.Error()
		}
		slogger.Warn(ctx, "Batch failed", fields)
		return summary, fmt.Errorf("%w: %s: %s", ErrBatchFailed, batchKey, summary.FailureMessage())
	}

	if err := p.finish(ctx, batchKey, valueobject.BatchStatusDone, ""); err != nil {
		return summary, err
	}
	slogger.Info(ctx, "Batch completed", fields)
	return summary, nil
}

// runUnits submits one task per unit and waits for all of them. Each task
// writes only its own slot of results.
func (p *BatchPipeline) runUnits(ctx context.Context, batchKey string, units []entity.ProcessingUnit) []entity.UnitResult {
	results := make([]entity.UnitResult, len(units))
	var wg sync.WaitGroup

	for i := range units {
		unit := units[i]
		results[i] = entity.UnitResult{Position: unit.Position, DocumentID: unit.DocumentID(batchKey)}

		wg.Add(1)
		err := p.scheduler.Submit(func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results[i].Stage = entity.UnitStageEmbed
					results[i].Err = fmt.Errorf("panic while processing unit %s: %v", unit.Position, r)
				}
			}()
			results[i] = p.runUnit(ctx, batchKey, unit)
		})
		if err != nil {
			wg.Done()
			results[i].Stage = entity.UnitStageEmbed
			results[i].Err = err
		}
	}
	wg.Wait()

	for _, r := range results {
		p.metrics.RecordUnit(ctx, r)
		if r.Err != nil {
			slogger.ErrorWithError(ctx, r.Err, "Failed to embed/index unit", slogger.Fields{
				"batch_key":   batchKey,
				"position":    r.Position.String(),
				"document_id": r.DocumentID,
				"stage":       string(r.Stage),
			})
		}
	}
	return results
}

func (p *BatchPipeline) runUnit(ctx context.Context, batchKey string, unit entity.ProcessingUnit) entity.UnitResult {
	result := entity.UnitResult{Position: unit.Position, DocumentID: unit.DocumentID(batchKey)}
	if unit.DecodeErr != nil {
		result.Stage = entity.UnitStageDecode
		result.Err = unit.DecodeErr
		return result
	}

	start := time.Now()
	vector, err := p.embedder.Embed(ctx, unit.Text)
	result.EmbedLatency = time.Since(start)
	if err != nil {
		result.Stage = entity.UnitStageEmbed
		result.Err = err
		return result
	}
	result.EmbeddingSize = len(vector)

	start = time.Now()
	err = p.index.Upsert(ctx, unit.Document(batchKey, vector))
	result.IndexLatency = time.Since(start)
	if err != nil {
		result.Stage = entity.UnitStageIndex
		result.Err = err
	}
	return result
}

// finish writes a terminal status and counts the batch. The write uses a
// context that survives the batch deadline.
func (p *BatchPipeline) finish(ctx context.Context, batchKey string, status valueobject.BatchStatus, message string) error {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statusWriteTimeout)
	defer cancel()

	p.metrics.RecordBatch(ctx, status)
	return p.setStatus(writeCtx, batchKey, status, message)
}

func (p *BatchPipeline) setStatus(ctx context.Context, batchKey string, status valueobject.BatchStatus, message string) error {
	if err := p.status.SetStatus(ctx, entity.NewBatchStatusRecord(batchKey, status, message)); err != nil {
		slogger.ErrorWithError(ctx, err, "Failed to write batch status", slogger.Fields{
			"batch_key": batchKey,
			"status":    status.String(),
		})
		return fmt.Errorf("set status %s for %s: %w", status, batchKey, err)
	}
	return nil
}
