package outbound

import (
	"context"
	"time"
)

// QueueMessage is one leased message. Until Ack is called the broker
// redelivers it once its lease expires.
type QueueMessage interface {
	ID() string
	Body() []byte
	// Ack removes the message from the queue.
	Ack(ctx context.Context) error
	// ExtendLease tells the broker the message is still being worked on.
	ExtendLease(ctx context.Context) error
}

// MessageQueue is the work queue that announces batches.
type MessageQueue interface {
	// Receive long-polls for up to max messages, waiting at most wait.
	// Returning zero messages is not an error.
	Receive(ctx context.Context, max int, wait time.Duration) ([]QueueMessage, error)
}

// BatchPublisher announces batches on the work queue.
type BatchPublisher interface {
	PublishBatch(ctx context.Context, batchKey string) error
}
