package entity

import (
	"fmt"
	"time"
)

// UnitStage names the step at which a unit failed.
type UnitStage string

const (
	UnitStageDecode UnitStage = "decode"
	UnitStageEmbed  UnitStage = "embed"
	UnitStageIndex  UnitStage = "index"
)

// UnitResult is the outcome of embedding and indexing one unit.
type UnitResult struct {
	Position      UnitPosition
	DocumentID    string
	Stage         UnitStage // set only on failure
	Err           error
	EmbedLatency  time.Duration
	IndexLatency  time.Duration
	EmbeddingSize int
}

// Succeeded reports whether the unit was both embedded and indexed.
func (r UnitResult) Succeeded() bool {
	return r.Err == nil
}

// BatchSummary aggregates the unit results of one batch attempt.
type BatchSummary struct {
	BatchKey  string
	Total     int
	Succeeded int
	Failed    int
	Results   []UnitResult
	Duration  time.Duration
}

// NewBatchSummary tallies results. Results must hold one entry per unit.
func NewBatchSummary(batchKey string, results []UnitResult, duration time.Duration) BatchSummary {
	s := BatchSummary{
		BatchKey: batchKey,
		Total:    len(results),
		Results:  results,
		Duration: duration,
	}
	for _, r := range results {
		if r.Succeeded() {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}
	return s
}

// AllSucceeded reports whether every unit succeeded. An empty batch counts as success.
func (s BatchSummary) AllSucceeded() bool {
	return s.Failed == 0
}

// Failures returns the failed unit results.
func (s BatchSummary) Failures() []UnitResult {
	var failed []UnitResult
	for _, r := range s.Results {
		if !r.Succeeded() {
			failed = append(failed, r)
		}
	}
	return failed
}

// FailureMessage is the error detail written to the status record.
func (s BatchSummary) FailureMessage() string {
	return fmt.Sprintf("%d of %d units failed to embed/index", s.Failed, s.Total)
}
