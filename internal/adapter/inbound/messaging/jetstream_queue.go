// Package messaging receives batch messages from a NATS JetStream pull consumer.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"textembedder/internal/application/common/slogger"
	"textembedder/internal/port/outbound"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// minFetchWait is the shortest expiry JetStream accepts for a pull request.
const minFetchWait = time.Second

// ConsumerConfig holds configuration for the durable pull consumer.
type ConsumerConfig struct {
	Durable       string
	Subject       string
	AckWait       time.Duration
	MaxDeliver    int
	MaxAckPending int
}

func (c ConsumerConfig) validate() error {
	if c.Durable == "" {
		return errors.New("durable name cannot be empty")
	}
	if c.Subject == "" {
		return errors.New("subject cannot be empty")
	}
	if c.AckWait <= 0 {
		return errors.New("ack wait duration must be positive")
	}
	if c.MaxDeliver == 0 || c.MaxDeliver < -1 {
		return errors.New("max deliver count must be positive or -1")
	}
	return nil
}

// ConsumerFactory is the subset of jetstream.Stream used to bind the consumer.
type ConsumerFactory interface {
	CreateOrUpdateConsumer(ctx context.Context, cfg jetstream.ConsumerConfig) (jetstream.Consumer, error)
}

// Stats counts what the queue has handed out and settled.
type Stats struct {
	Received  int64
	Acked     int64
	Extended  int64
	LastError string
}

// JetStreamQueue implements outbound.MessageQueue over a durable pull consumer.
// A fetched message stays leased for AckWait; unacked messages are redelivered.
type JetStreamQueue struct {
	consumer jetstream.Consumer
	config   ConsumerConfig

	mu    sync.Mutex
	stats Stats
}

var _ outbound.MessageQueue = (*JetStreamQueue)(nil)

// NewJetStreamQueue creates or updates the durable consumer on stream.
func NewJetStreamQueue(ctx context.Context, stream ConsumerFactory, cfg ConsumerConfig) (*JetStreamQueue, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid consumer configuration: %w", err)
	}
	if stream == nil {
		return nil, errors.New("stream cannot be nil")
	}

	consumer, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Durable:       cfg.Durable,
		FilterSubject: cfg.Subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       cfg.AckWait,
		MaxDeliver:    cfg.MaxDeliver,
		MaxAckPending: cfg.MaxAckPending,
		DeliverPolicy: jetstream.DeliverAllPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create durable consumer %s: %w", cfg.Durable, err)
	}

	slogger.Info(ctx, "JetStream consumer ready", slogger.Fields{
		"durable":     cfg.Durable,
		"subject":     cfg.Subject,
		"ack_wait":    cfg.AckWait.String(),
		"max_deliver": cfg.MaxDeliver,
	})
	return &JetStreamQueue{consumer: consumer, config: cfg}, nil
}

// Receive pulls up to maxMessages, waiting at most wait for the first one.
func (q *JetStreamQueue) Receive(
	ctx context.Context,
	maxMessages int,
	wait time.Duration,
) ([]outbound.QueueMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if maxMessages <= 0 {
		maxMessages = 1
	}
	if wait < minFetchWait {
		wait = minFetchWait
	}

	batch, err := q.consumer.Fetch(maxMessages, jetstream.FetchMaxWait(wait))
	if err != nil {
		q.recordError(err)
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	var messages []outbound.QueueMessage
	for {
		select {
		case <-ctx.Done():
			// Messages already pulled stay leased and are redelivered after AckWait.
			return nil, ctx.Err()
		case msg, ok := <-batch.Messages():
			if !ok {
				if err := batch.Error(); err != nil && !errors.Is(err, nats.ErrTimeout) {
					q.recordError(err)
					return messages, fmt.Errorf("fetch interrupted: %w", err)
				}
				q.addReceived(len(messages))
				return messages, nil
			}
			messages = append(messages, &jetStreamMessage{msg: msg, queue: q})
		}
	}
}

// Ping checks that the durable consumer still exists.
func (q *JetStreamQueue) Ping(ctx context.Context) error {
	if _, err := q.consumer.Info(ctx); err != nil {
		return fmt.Errorf("consumer %s: %w", q.config.Durable, err)
	}
	return nil
}

// Stats returns a snapshot of the queue counters.
func (q *JetStreamQueue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stats
}

func (q *JetStreamQueue) addReceived(n int) {
	q.mu.Lock()
	q.stats.Received += int64(n)
	q.mu.Unlock()
}

func (q *JetStreamQueue) recordError(err error) {
	q.mu.Lock()
	q.stats.LastError = err.Error()
	q.mu.Unlock()
}

type jetStreamMessage struct {
	msg   jetstream.Msg
	queue *JetStreamQueue
}

// ID is "<stream>:<stream sequence>", stable across redeliveries.
func (m *jetStreamMessage) ID() string {
	meta, err := m.msg.Metadata()
	if err != nil || meta == nil {
		return m.msg.Subject()
	}
	return meta.Stream + ":" + strconv.FormatUint(meta.Sequence.Stream, 10)
}

func (m *jetStreamMessage) Body() []byte {
	return m.msg.Data()
}

// Ack waits for the server to confirm the ack so a lost ack is reported.
func (m *jetStreamMessage) Ack(ctx context.Context) error {
	if err := m.msg.DoubleAck(ctx); err != nil {
		m.queue.recordError(err)
		return fmt.Errorf("ack message %s: %w", m.ID(), err)
	}
	m.queue.mu.Lock()
	m.queue.stats.Acked++
	m.queue.mu.Unlock()
	return nil
}

// ExtendLease resets the AckWait timer on the server.
func (m *jetStreamMessage) ExtendLease(context.Context) error {
	if err := m.msg.InProgress(); err != nil {
		return fmt.Errorf("extend lease for %s: %w", m.ID(), err)
	}
	m.queue.mu.Lock()
	m.queue.stats.Extended++
	m.queue.mu.Unlock()
	return nil
}
