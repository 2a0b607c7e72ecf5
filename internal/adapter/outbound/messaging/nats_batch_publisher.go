package messaging

import (
	"context"
	"fmt"

	"textembedder/internal/application/common/slogger"
	"textembedder/internal/domain/messaging"

	"github.com/nats-io/nats.go/jetstream"
)

// Publisher is the subset of jetstream.JetStream used to publish.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// NATSBatchPublisher announces batch keys on the work-queue subject.
type NATSBatchPublisher struct {
	js       Publisher
	subject  string
	keyField string
}

// NewNATSBatchPublisher creates a publisher for subject. keyField is the
// body field that carries the batch key.
func NewNATSBatchPublisher(js Publisher, subject, keyField string) *NATSBatchPublisher {
	if keyField == "" {
		keyField = messaging.DefaultBatchKeyField
	}
	return &NATSBatchPublisher{js: js, subject: subject, keyField: keyField}
}

// PublishBatch publishes a message announcing batchKey and waits for the stream ack.
func (p *NATSBatchPublisher) PublishBatch(ctx context.Context, batchKey string) error {
	data, err := messaging.EncodeBatchMessage(batchKey, p.keyField)
	if err != nil {
		return err
	}

	ack, err := p.js.Publish(ctx, p.subject, data)
	if err != nil {
		return fmt.Errorf("failed to publish batch %s: %w", batchKey, err)
	}

	slogger.Info(ctx, "Published batch message", slogger.Fields{
		"batch_key": batchKey,
		"stream":    ack.Stream,
		"sequence":  ack.Sequence,
	})
	return nil
}
