package worker

import (
	"context"

	"textembedder/internal/domain/entity"
	"textembedder/internal/domain/valueobject"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric names.
const (
	EmbedSuccessCounterName   = "embed_success_count"
	EmbedFailureCounterName   = "embed_failure_count"
	IndexLatencyHistogramName = "index_latency_seconds"
	BatchCounterName          = "batch_total"
	MessagesAckedCounterName  = "queue_messages_acked_total"
	MessagesUnackedName       = "queue_messages_unacked_total"
)

// Attribute keys.
const (
	AttrStatus = "status"
	AttrStage  = "stage"
	AttrReason = "reason"
)

// Metrics records pipeline and poller counters. A nil *Metrics records nothing.
type Metrics struct {
	embedSuccess metric.Int64Counter
	embedFailure metric.Int64Counter
	indexLatency metric.Float64Histogram
	batches      metric.Int64Counter
	acked        metric.Int64Counter
	unacked      metric.Int64Counter
}

// NewMetrics creates metrics on the global meter provider.
func NewMetrics() (*Metrics, error) {
	return NewMetricsWithProvider(otel.GetMeterProvider())
}

// NewMetricsWithProvider creates metrics on provider.
func NewMetricsWithProvider(provider metric.MeterProvider) (*Metrics, error) {
	meter := provider.Meter("textembedder/worker", metric.WithInstrumentationVersion("1.0.0"))

	// Indexing is a single upsert round trip: 5ms to 10s.
	indexLatencyBuckets := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

	var (
		m   Metrics
		err error
	)
	if m.embedSuccess, err = meter.Int64Counter(EmbedSuccessCounterName,
		metric.WithDescription("Number of units embedded and indexed successfully"),
		metric.WithUnit("1")); err != nil {
		return nil, err
	}
	if m.embedFailure, err = meter.Int64Counter(EmbedFailureCounterName,
		metric.WithDescription("Number of units that failed to embed or index"),
		metric.WithUnit("1")); err != nil {
		return nil, err
	}
	if m.indexLatency, err = meter.Float64Histogram(IndexLatencyHistogramName,
		metric.WithDescription("Time taken to index a document"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(indexLatencyBuckets...)); err != nil {
		return nil, err
	}
	if m.batches, err = meter.Int64Counter(BatchCounterName,
		metric.WithDescription("Number of batch attempts by terminal status"),
		metric.WithUnit("1")); err != nil {
		return nil, err
	}
	if m.acked, err = meter.Int64Counter(MessagesAckedCounterName,
		metric.WithDescription("Number of queue messages acknowledged"),
		metric.WithUnit("1")); err != nil {
		return nil, err
	}
	if m.unacked, err = meter.Int64Counter(MessagesUnackedName,
		metric.WithDescription("Number of queue messages left for redelivery"),
		metric.WithUnit("1")); err != nil {
		return nil, err
	}
	return &m, nil
}

// RecordUnit records the outcome of one unit.
func (m *Metrics) RecordUnit(ctx context.Context, result entity.UnitResult) {
	if m == nil {
		return
	}
	if result.Succeeded() {
		m.embedSuccess.Add(ctx, 1)
	} else {
		m.embedFailure.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrStage, string(result.Stage))))
	}
	if result.IndexLatency > 0 {
		m.indexLatency.Record(ctx, result.IndexLatency.Seconds())
	}
}

// RecordBatch records a batch attempt that reached status.
func (m *Metrics) RecordBatch(ctx context.Context, status valueobject.BatchStatus) {
	if m == nil {
		return
	}
	m.batches.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrStatus, status.String())))
}

// RecordMessage records whether a message was acked; reason explains an unacked one.
func (m *Metrics) RecordMessage(ctx context.Context, acked bool, reason string) {
	if m == nil {
		return
	}
	if acked {
		m.acked.Add(ctx, 1)
		return
	}
	m.unacked.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrReason, reason)))
}
