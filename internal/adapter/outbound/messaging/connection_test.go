package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ConnectionConfig
		wantErr string
	}{
		{name: "valid", cfg: ConnectionConfig{URL: "nats://localhost:4222", MaxReconnects: 5, ReconnectWait: time.Second}},
		{name: "tls", cfg: ConnectionConfig{URL: "tls://nats.internal:4222", MaxReconnects: -1}},
		{name: "empty url", cfg: ConnectionConfig{}, wantErr: "cannot be empty"},
		{name: "bad scheme", cfg: ConnectionConfig{URL: "http://localhost:4222"}, wantErr: "invalid NATS URL scheme"},
		{name: "bad reconnects", cfg: ConnectionConfig{URL: "nats://x", MaxReconnects: -2}, wantErr: "max reconnects"},
		{name: "negative wait", cfg: ConnectionConfig{URL: "nats://x", ReconnectWait: -time.Second}, wantErr: "reconnect wait"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

type fakeStream struct {
	jetstream.Stream
	infoErr error
}

func (s *fakeStream) Info(context.Context, ...jetstream.StreamInfoOpt) (*jetstream.StreamInfo, error) {
	if s.infoErr != nil {
		return nil, s.infoErr
	}
	return &jetstream.StreamInfo{Config: jetstream.StreamConfig{Name: "BATCHES"}}, nil
}

type fakeLookup struct {
	stream *fakeStream
	err    error
	names  []string
}

func (f *fakeLookup) Stream(_ context.Context, name string) (jetstream.Stream, error) {
	f.names = append(f.names, name)
	if f.err != nil {
		return nil, f.err
	}
	return f.stream, nil
}

func TestStreamChecker_Ping(t *testing.T) {
	lookup := &fakeLookup{stream: &fakeStream{}}
	require.NoError(t, NewStreamChecker(lookup, "BATCHES").Ping(context.Background()))
	assert.Equal(t, []string{"BATCHES"}, lookup.names)

	lookup = &fakeLookup{err: jetstream.ErrStreamNotFound}
	err := NewStreamChecker(lookup, "BATCHES").Ping(context.Background())
	assert.ErrorIs(t, err, jetstream.ErrStreamNotFound)

	lookup = &fakeLookup{stream: &fakeStream{infoErr: errors.New("timeout")}}
	err = NewStreamChecker(lookup, "BATCHES").Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "info failed")
}
