package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"textembedder/internal/application/common/logging"
	"textembedder/internal/application/common/slogger"
	"textembedder/internal/domain/entity"
	"textembedder/internal/domain/messaging"
	"textembedder/internal/port/outbound"

	"github.com/google/uuid"
)

// ackTimeout bounds a single ack round trip.
const ackTimeout = 10 * time.Second

// BatchProcessor processes one batch attempt.
type BatchProcessor interface {
	Process(ctx context.Context, batchKey string) (entity.BatchSummary, error)
}

// PollerConfig holds the polling parameters.
type PollerConfig struct {
	MaxMessages       int
	LongPollWait      time.Duration
	PollInterval      time.Duration
	MaxBatchDuration  time.Duration
	HeartbeatInterval time.Duration
	BatchKeyField     string
}

// QueuePoller pulls batch messages and runs each through a BatchProcessor.
// A message is acked only after its batch succeeded; anything else leaves
// it for redelivery once the lease expires.
type QueuePoller struct {
	queue     outbound.MessageQueue
	processor BatchProcessor
	scheduler *Scheduler
	metrics   *Metrics
	config    PollerConfig

	sleep func(ctx context.Context, d time.Duration)
}

// NewQueuePoller creates a poller. Batches share the scheduler's batch slots.
func NewQueuePoller(
	queue outbound.MessageQueue,
	processor BatchProcessor,
	scheduler *Scheduler,
	metrics *Metrics,
	config PollerConfig,
) (*QueuePoller, error) {
	if queue == nil || processor == nil || scheduler == nil {
		return nil, errors.New("queue poller: queue, processor and scheduler are required")
	}
	if config.MaxMessages <= 0 {
		config.MaxMessages = 1
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Second
	}
	if config.BatchKeyField == "" {
		config.BatchKeyField = messaging.DefaultBatchKeyField
	}

	return &QueuePoller{
		queue:     queue,
		processor: processor,
		scheduler: scheduler,
		metrics:   metrics,
		config:    config,
		sleep:     sleepContext,
	}, nil
}

func sleepContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Run polls until ctx is cancelled. Per-cycle errors are logged and never
// end the loop. Batches already dispatched when ctx is cancelled run to
// completion; Run returns after the current cycle has drained.
func (p *QueuePoller) Run(ctx context.Context) error {
	slogger.Info(ctx, "Queue poller started", slogger.Fields{
		"max_messages":       p.config.MaxMessages,
		"poll_interval":      p.config.PollInterval.String(),
		"concurrency":        p.scheduler.Size(),
		"max_batch_duration": p.config.MaxBatchDuration.String(),
	})

	for ctx.Err() == nil {
		n, err := p.PollOnce(ctx)
		switch {
		case err != nil && ctx.Err() == nil:
			slogger.ErrorWithError(ctx, err, "Poll cycle failed", nil)
			p.sleep(ctx, p.config.PollInterval)
		case n == 0:
			p.sleep(ctx, p.config.PollInterval)
		}
	}

	slogger.Info(context.WithoutCancel(ctx), "Queue poller stopped", nil)
	return nil
}

// PollOnce receives one set of messages, processes them concurrently and
// waits for all of them. It returns the number of messages received.
func (p *QueuePoller) PollOnce(ctx context.Context) (int, error) {
	messages, err := p.queue.Receive(ctx, p.config.MaxMessages, p.config.LongPollWait)
	if err != nil {
		return 0, fmt.Errorf("receive messages: %w", err)
	}
	if len(messages) == 0 {
		slogger.Debug(ctx, "No messages received", nil)
		return 0, nil
	}

	// Handlers keep running through shutdown; only their own deadline stops them.
	workCtx := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	for i, msg := range messages {
		if err := p.scheduler.AcquireBatch(ctx); err != nil {
			// The rest stay leased and are redelivered.
			slogger.Warn(ctx, "Stopped dispatching messages", slogger.Fields{
				"dispatched": i,
				"received":   len(messages),
			})
			break
		}
		wg.Add(1)
		go func(m outbound.QueueMessage) {
			defer wg.Done()
			defer p.scheduler.ReleaseBatch()
			p.handleMessage(workCtx, m)
		}(msg)
	}
	wg.Wait()

	return len(messages), nil
}

// handleMessage never returns an error: every outcome is logged and decides
// only whether the message is acked.
func (p *QueuePoller) handleMessage(ctx context.Context, msg outbound.QueueMessage) {
	ctx = logging.WithCorrelationID(ctx, uuid.NewString())
	fields := slogger.Fields{"message_id": msg.ID()}

	defer func() {
		if r := recover(); r != nil {
			fields["panic"] = fmt.Sprint(r)
			slogger.Error(ctx, "Recovered panic while handling message", fields)
			p.metrics.RecordMessage(ctx, false, "panic")
		}
	}()

	batch, err := messaging.DecodeBatchMessage(msg.Body(), p.config.BatchKeyField)
	if err != nil {
		slogger.ErrorWithError(ctx, err, "Failed to decode message", fields)
		p.metrics.RecordMessage(ctx, false, "decode")
		return
	}
	fields["batch_key"] = batch.BatchKey

	batchCtx, cancel := p.batchContext(ctx)
	defer cancel()

	stopHeartbeat := p.startHeartbeat(batchCtx, msg)
	_, err = p.processor.Process(batchCtx, batch.BatchKey)
	stopHeartbeat()

	if err != nil {
		slogger.ErrorWithError(ctx, err, "Batch not acknowledged; it will be redelivered", fields)
		p.metrics.RecordMessage(ctx, false, "batch_failed")
		return
	}

	ackCtx, ackCancel := context.WithTimeout(ctx, ackTimeout)
	defer ackCancel()
	if err := msg.Ack(ackCtx); err != nil {
		slogger.ErrorWithError(ctx, err, "Failed to acknowledge message", fields)
		p.metrics.RecordMessage(ctx, false, "ack_failed")
		return
	}
	p.metrics.RecordMessage(ctx, true, "")
	slogger.Info(ctx, "Message acknowledged", fields)
}

func (p *QueuePoller) batchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.config.MaxBatchDuration > 0 {
		return context.WithTimeout(ctx, p.config.MaxBatchDuration)
	}
	return context.WithCancel(ctx)
}

// startHeartbeat extends the message lease every HeartbeatInterval until the
// returned stop function is called.
func (p *QueuePoller) startHeartbeat(ctx context.Context, msg outbound.QueueMessage) func() {
	if p.config.HeartbeatInterval <= 0 {
		return func() {}
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(p.config.HeartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := msg.ExtendLease(ctx); err != nil {
					slogger.Warn(ctx, "Failed to extend message lease", slogger.Fields{
						"message_id": msg.ID(),
						"error":      err.Error(),
					})
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			wg.Wait()
		})
	}
}
