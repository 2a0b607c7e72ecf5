package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"textembedder/internal/domain/entity"
	"textembedder/internal/domain/valueobject"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestMetrics_Record(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	m, err := NewMetricsWithProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	require.NoError(t, err)
	ctx := context.Background()

	m.RecordUnit(ctx, entity.UnitResult{IndexLatency: 30 * time.Millisecond})
	m.RecordUnit(ctx, entity.UnitResult{Stage: entity.UnitStageEmbed, Err: errors.New("x")})
	m.RecordBatch(ctx, valueobject.BatchStatusDone)
	m.RecordBatch(ctx, valueobject.BatchStatusFailed)
	m.RecordBatch(ctx, valueobject.BatchStatusFailed)
	m.RecordMessage(ctx, true, "")
	m.RecordMessage(ctx, false, "decode")

	got := collect(t, reader)

	success := got[EmbedSuccessCounterName].Data.(metricdata.Sum[int64])
	require.Len(t, success.DataPoints, 1)
	assert.EqualValues(t, 1, success.DataPoints[0].Value)

	failure := got[EmbedFailureCounterName].Data.(metricdata.Sum[int64])
	require.Len(t, failure.DataPoints, 1)
	stage, ok := failure.DataPoints[0].Attributes.Value(attribute.Key(AttrStage))
	require.True(t, ok)
	assert.Equal(t, "embed", stage.AsString())

	latency := got[IndexLatencyHistogramName].Data.(metricdata.Histogram[float64])
	require.Len(t, latency.DataPoints, 1)
	assert.EqualValues(t, 1, latency.DataPoints[0].Count)

	batches := got[BatchCounterName].Data.(metricdata.Sum[int64])
	byStatus := map[string]int64{}
	for _, dp := range batches.DataPoints {
		v, _ := dp.Attributes.Value(attribute.Key(AttrStatus))
		byStatus[v.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"done": 1, "failed": 2}, byStatus)

	acked := got[MessagesAckedCounterName].Data.(metricdata.Sum[int64])
	assert.EqualValues(t, 1, acked.DataPoints[0].Value)
	unacked := got[MessagesUnackedName].Data.(metricdata.Sum[int64])
	assert.EqualValues(t, 1, unacked.DataPoints[0].Value)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordUnit(context.Background(), entity.UnitResult{})
		m.RecordBatch(context.Background(), valueobject.BatchStatusDone)
		m.RecordMessage(context.Background(), true, "")
	})
}
