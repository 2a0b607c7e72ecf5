package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMsg struct {
	jetstream.Msg

	data       []byte
	seq        uint64
	ackErr     error
	acked      int
	inProgress int
}

func (m *fakeMsg) Data() []byte    { return m.data }
func (m *fakeMsg) Subject() string { return "batches.ready" }

func (m *fakeMsg) Metadata() (*jetstream.MsgMetadata, error) {
	return &jetstream.MsgMetadata{
		Stream:       "BATCHES",
		Sequence:     jetstream.SequencePair{Stream: m.seq, Consumer: m.seq},
		NumDelivered: 1,
	}, nil
}

func (m *fakeMsg) DoubleAck(context.Context) error {
	if m.ackErr != nil {
		return m.ackErr
	}
	m.acked++
	return nil
}

func (m *fakeMsg) InProgress() error {
	m.inProgress++
	return nil
}

type fakeBatch struct {
	ch  chan jetstream.Msg
	err error
}

func (b *fakeBatch) Messages() <-chan jetstream.Msg { return b.ch }
func (b *fakeBatch) Error() error                   { return b.err }

func newFakeBatch(err error, msgs ...jetstream.Msg) *fakeBatch {
	ch := make(chan jetstream.Msg, len(msgs))
	for _, m := range msgs {
		ch <- m
	}
	close(ch)
	return &fakeBatch{ch: ch, err: err}
}

type fakeConsumer struct {
	jetstream.Consumer

	batches   []jetstream.MessageBatch
	fetchErr  error
	infoErr   error
	lastBatch int
	lastOpts  int
}

func (c *fakeConsumer) Fetch(batch int, opts ...jetstream.FetchOpt) (jetstream.MessageBatch, error) {
	c.lastBatch = batch
	c.lastOpts = len(opts)
	if c.fetchErr != nil {
		return nil, c.fetchErr
	}
	if len(c.batches) == 0 {
		return newFakeBatch(nil), nil
	}
	b := c.batches[0]
	c.batches = c.batches[1:]
	return b, nil
}

func (c *fakeConsumer) Info(context.Context) (*jetstream.ConsumerInfo, error) {
	if c.infoErr != nil {
		return nil, c.infoErr
	}
	return &jetstream.ConsumerInfo{Name: "text-embedder"}, nil
}

type fakeStream struct {
	consumer *fakeConsumer
	got      jetstream.ConsumerConfig
	err      error
}

func (s *fakeStream) CreateOrUpdateConsumer(_ context.Context, cfg jetstream.ConsumerConfig) (jetstream.Consumer, error) {
	s.got = cfg
	if s.err != nil {
		return nil, s.err
	}
	return s.consumer, nil
}

func validConsumerConfig() ConsumerConfig {
	return ConsumerConfig{Durable: "text-embedder", Subject: "batches.ready", AckWait: time.Minute, MaxDeliver: 5}
}

func newTestQueue(t *testing.T, consumer *fakeConsumer) *JetStreamQueue {
	t.Helper()
	q, err := NewJetStreamQueue(context.Background(), &fakeStream{consumer: consumer}, validConsumerConfig())
	require.NoError(t, err)
	return q
}

func TestNewJetStreamQueue_ConsumerConfig(t *testing.T) {
	stream := &fakeStream{consumer: &fakeConsumer{}}
	_, err := NewJetStreamQueue(context.Background(), stream, validConsumerConfig())
	require.NoError(t, err)

	assert.Equal(t, "text-embedder", stream.got.Durable)
	assert.Equal(t, "batches.ready", stream.got.FilterSubject)
	assert.Equal(t, jetstream.AckExplicitPolicy, stream.got.AckPolicy)
	assert.Equal(t, time.Minute, stream.got.AckWait)
	assert.Equal(t, 5, stream.got.MaxDeliver)
}

func TestNewJetStreamQueue_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ConsumerConfig)
	}{
		{name: "no durable", mutate: func(c *ConsumerConfig) { c.Durable = "" }},
		{name: "no subject", mutate: func(c *ConsumerConfig) { c.Subject = "" }},
		{name: "no ack wait", mutate: func(c *ConsumerConfig) { c.AckWait = 0 }},
		{name: "zero max deliver", mutate: func(c *ConsumerConfig) { c.MaxDeliver = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConsumerConfig()
			tt.mutate(&cfg)
			_, err := NewJetStreamQueue(context.Background(), &fakeStream{consumer: &fakeConsumer{}}, cfg)
			assert.ErrorContains(t, err, "invalid consumer configuration")
		})
	}

	_, err := NewJetStreamQueue(context.Background(), &fakeStream{err: errors.New("jetstream not enabled")}, validConsumerConfig())
	assert.ErrorContains(t, err, "failed to create durable consumer")
}

func TestJetStreamQueue_Receive(t *testing.T) {
	m1 := &fakeMsg{data: []byte(`{"s3_key":"a"}`), seq: 11}
	m2 := &fakeMsg{data: []byte(`{"s3_key":"b"}`), seq: 12}
	consumer := &fakeConsumer{batches: []jetstream.MessageBatch{newFakeBatch(nil, m1, m2)}}
	q := newTestQueue(t, consumer)

	msgs, err := q.Receive(context.Background(), 10, 5*time.Second)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, 10, consumer.lastBatch)
	assert.Equal(t, "BATCHES:11", msgs[0].ID())
	assert.Equal(t, `{"s3_key":"b"}`, string(msgs[1].Body()))

	require.NoError(t, msgs[0].ExtendLease(context.Background()))
	require.NoError(t, msgs[0].Ack(context.Background()))
	assert.Equal(t, 1, m1.inProgress)
	assert.Equal(t, 1, m1.acked)
	assert.Zero(t, m2.acked, "messages are only acked explicitly")

	stats := q.Stats()
	assert.EqualValues(t, 2, stats.Received)
	assert.EqualValues(t, 1, stats.Acked)
	assert.EqualValues(t, 1, stats.Extended)
}

func TestJetStreamQueue_ReceiveEmpty(t *testing.T) {
	consumer := &fakeConsumer{batches: []jetstream.MessageBatch{newFakeBatch(nats.ErrTimeout)}}
	q := newTestQueue(t, consumer)

	msgs, err := q.Receive(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)
	assert.Equal(t, 10, consumer.lastBatch)
	assert.Equal(t, 1, consumer.lastOpts, "a max wait is always passed")
}

func TestJetStreamQueue_ReceiveErrors(t *testing.T) {
	q := newTestQueue(t, &fakeConsumer{fetchErr: errors.New("connection closed")})
	_, err := q.Receive(context.Background(), 1, time.Second)
	assert.ErrorContains(t, err, "failed to fetch messages")
	assert.Equal(t, "connection closed", q.Stats().LastError)

	partial := &fakeMsg{data: []byte(`{}`), seq: 1}
	q = newTestQueue(t, &fakeConsumer{batches: []jetstream.MessageBatch{newFakeBatch(nats.ErrConnectionClosed, partial)}})
	msgs, err := q.Receive(context.Background(), 5, time.Second)
	assert.Error(t, err)
	assert.Len(t, msgs, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = newTestQueue(t, &fakeConsumer{}).Receive(ctx, 1, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestJetStreamQueue_AckFailure(t *testing.T) {
	m := &fakeMsg{data: []byte(`{}`), seq: 3, ackErr: errors.New("nats: timeout")}
	q := newTestQueue(t, &fakeConsumer{batches: []jetstream.MessageBatch{newFakeBatch(nil, m)}})

	msgs, err := q.Receive(context.Background(), 1, time.Second)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	err = msgs[0].Ack(context.Background())
	assert.ErrorContains(t, err, "ack message BATCHES:3")
	assert.Zero(t, q.Stats().Acked)
}

func TestJetStreamQueue_Ping(t *testing.T) {
	assert.NoError(t, newTestQueue(t, &fakeConsumer{}).Ping(context.Background()))
	assert.Error(t, newTestQueue(t, &fakeConsumer{infoErr: jetstream.ErrConsumerNotFound}).Ping(context.Background()))
}
