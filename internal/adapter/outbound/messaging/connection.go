// Package messaging publishes batch announcements on NATS JetStream.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"textembedder/internal/application/common/slogger"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	natsConnectionTimeout = 5 * time.Second
	streamMaxAge          = 7 * 24 * time.Hour
)

// ConnectionConfig holds NATS connection settings.
type ConnectionConfig struct {
	URL           string
	Name          string
	MaxReconnects int
	ReconnectWait time.Duration
}

// Validate checks the connection settings.
func (c ConnectionConfig) Validate() error {
	if c.URL == "" {
		return errors.New("NATS URL cannot be empty")
	}
	if !strings.HasPrefix(c.URL, "nats://") && !strings.HasPrefix(c.URL, "tls://") {
		return errors.New("invalid NATS URL scheme")
	}
	if c.MaxReconnects < -1 {
		return errors.New("max reconnects cannot be less than -1")
	}
	if c.ReconnectWait < 0 {
		return errors.New("reconnect wait cannot be negative")
	}
	return nil
}

// Connect dials NATS and logs connection state changes.
func Connect(cfg ConnectionConfig) (*nats.Conn, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(natsConnectionTimeout),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slogger.InfoNoCtx("Reconnected to NATS", slogger.Fields{"url": nc.ConnectedUrlRedacted()})
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slogger.WarnNoCtx("Disconnected from NATS", slogger.Fields{"error": err.Error()})
			}
		}),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return conn, nil
}

// StreamConfig names the work-queue stream batches are published to.
type StreamConfig struct {
	Name    string
	Subject string
}

// EnsureStream creates or updates the work-queue stream. Each message is
// removed from a work-queue stream once a consumer acks it.
func EnsureStream(ctx context.Context, js jetstream.JetStream, cfg StreamConfig) (jetstream.Stream, error) {
	if cfg.Name == "" || cfg.Subject == "" {
		return nil, errors.New("stream name and subject are required")
	}

	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      cfg.Name,
		Subjects:  []string{cfg.Subject},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.WorkQueuePolicy,
		MaxAge:    streamMaxAge,
		Replicas:  1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create stream %s: %w", cfg.Name, err)
	}
	return stream, nil
}

// StreamLookup is the part of jetstream.JetStream the stream checker needs.
type StreamLookup interface {
	Stream(ctx context.Context, name string) (jetstream.Stream, error)
}

// StreamChecker reports whether the batch stream is reachable. The API
// process uses it for its queue health check without binding a consumer.
type StreamChecker struct {
	js   StreamLookup
	name string
}

// NewStreamChecker creates a checker for the named stream.
func NewStreamChecker(js StreamLookup, name string) *StreamChecker {
	return &StreamChecker{js: js, name: name}
}

// Ping looks the stream up and fetches its info.
func (c *StreamChecker) Ping(ctx context.Context) error {
	stream, err := c.js.Stream(ctx, c.name)
	if err != nil {
		return fmt.Errorf("stream %s unavailable: %w", c.name, err)
	}
	if _, err := stream.Info(ctx); err != nil {
		return fmt.Errorf("stream %s info failed: %w", c.name, err)
	}
	return nil
}
