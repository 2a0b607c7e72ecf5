package cmd

import (
	"context"
	"fmt"

	"textembedder/internal/adapter/outbound/messaging"
	"textembedder/internal/application/common/slogger"
	"textembedder/internal/port/outbound"

	"github.com/spf13/cobra"
)

func newEnqueueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enqueue <batch-key>...",
		Short: "Announce batch files to the worker queue",
		Long: `Publish one queue message per batch key. Each key is the object key of an
NDJSON batch file in the configured bucket. The stream is created when missing.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			conn, js, err := connectJetStream(cfg.NATS, "textembedder-enqueue")
			if err != nil {
				return err
			}
			defer conn.Close()

			if _, err := messaging.EnsureStream(cmd.Context(), js, messaging.StreamConfig{
				Name:    cfg.Queue.Stream,
				Subject: cfg.Queue.Subject,
			}); err != nil {
				return err
			}

			publisher := messaging.NewNATSBatchPublisher(js, cfg.Queue.Subject, cfg.Queue.BatchKeyField)
			n, err := enqueueBatches(cmd.Context(), publisher, args)
			fmt.Fprintf(cmd.OutOrStdout(), "enqueued %d of %d batches\n", n, len(args))
			return err
		},
	}
}

// enqueueBatches publishes every key and stops at the first failure.
func enqueueBatches(ctx context.Context, publisher outbound.BatchPublisher, keys []string) (int, error) {
	for i, key := range keys {
		if err := publisher.PublishBatch(ctx, key); err != nil {
			return i, fmt.Errorf("enqueue %s: %w", key, err)
		}
		slogger.Info(ctx, "Batch enqueued", slogger.Fields{"batch_key": key})
	}
	return len(keys), nil
}

func init() { //nolint:gochecknoinits // Standard Cobra CLI pattern for command registration
	rootCmd.AddCommand(newEnqueueCmd())
}
