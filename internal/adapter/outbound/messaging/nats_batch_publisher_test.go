package messaging

import (
	"context"
	"errors"
	"testing"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(
	ctx context.Context,
	subject string,
	data []byte,
	opts ...jetstream.PublishOpt,
) (*jetstream.PubAck, error) {
	args := m.Called(ctx, subject, data)
	if ack := args.Get(0); ack != nil {
		return ack.(*jetstream.PubAck), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestNATSBatchPublisher_PublishBatch(t *testing.T) {
	js := new(mockPublisher)
	js.On("Publish", mock.Anything, "batches.ready", []byte(`{"s3_key":"2024/batch-7.jsonl"}`)).
		Return(&jetstream.PubAck{Stream: "BATCHES", Sequence: 7}, nil).Once()

	p := NewNATSBatchPublisher(js, "batches.ready", "")
	require.NoError(t, p.PublishBatch(context.Background(), "2024/batch-7.jsonl"))
	js.AssertExpectations(t)
}

func TestNATSBatchPublisher_CustomKeyField(t *testing.T) {
	js := new(mockPublisher)
	js.On("Publish", mock.Anything, "work", []byte(`{"object_key":"k"}`)).
		Return(&jetstream.PubAck{Stream: "W", Sequence: 1}, nil).Once()

	require.NoError(t, NewNATSBatchPublisher(js, "work", "object_key").PublishBatch(context.Background(), "k"))
	js.AssertExpectations(t)
}

func TestNATSBatchPublisher_Errors(t *testing.T) {
	js := new(mockPublisher)
	p := NewNATSBatchPublisher(js, "batches.ready", "")

	err := p.PublishBatch(context.Background(), "  ")
	assert.Error(t, err)
	js.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)

	js.On("Publish", mock.Anything, "batches.ready", mock.Anything).
		Return(nil, errors.New("nats: no responders available for request")).Once()
	err = p.PublishBatch(context.Background(), "k")
	assert.ErrorContains(t, err, "failed to publish batch k")
}

func TestConnectionConfig_ValidateBasic(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ConnectionConfig
		wantErr bool
	}{
		{name: "valid", cfg: ConnectionConfig{URL: "nats://localhost:4222", MaxReconnects: 5}},
		{name: "unlimited reconnects", cfg: ConnectionConfig{URL: "nats://n:4222", MaxReconnects: -1}},
		{name: "tls", cfg: ConnectionConfig{URL: "tls://n:4222"}},
		{name: "empty", cfg: ConnectionConfig{}, wantErr: true},
		{name: "http scheme", cfg: ConnectionConfig{URL: "http://localhost:4222"}, wantErr: true},
		{name: "negative wait", cfg: ConnectionConfig{URL: "nats://n:4222", ReconnectWait: -1}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEnsureStream_RequiresNames(t *testing.T) {
	_, err := EnsureStream(context.Background(), nil, StreamConfig{Name: "BATCHES"})
	assert.Error(t, err)
}
