package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	inboundmessaging "textembedder/internal/adapter/inbound/messaging"
	"textembedder/internal/adapter/outbound/messaging"
	"textembedder/internal/adapter/outbound/repository"
	"textembedder/internal/application/common/slogger"
	"textembedder/internal/application/worker"
	"textembedder/internal/config"
	"textembedder/internal/port/outbound"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/metric"
)

func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Start the batch ingestion worker",
		Long: `Start the worker that consumes batch announcements from NATS JetStream.

At startup the worker embeds a probe text to learn the embedding dimension and
creates the vector index when it does not exist; any failure there is fatal.
It then polls the queue, processes up to worker.concurrency batches and unit
operations at a time, and acks a message only after its whole batch succeeded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWorker(ctx, cfg)
		},
	}
}

func runWorker(ctx context.Context, cfg *config.Config) error {
	slogger.Info(ctx, "Starting worker", slogger.Fields{
		"concurrency":  cfg.Worker.Concurrency,
		"max_messages": cfg.Worker.MaxMessages,
		"index":        cfg.Index.Name,
		"status":       cfg.Status.Backend,
	})

	provider, stopMetrics, err := startMetricsServer(cfg.Metrics)
	if err != nil {
		return err
	}
	defer shutdownWith(cfg.Worker.ShutdownTimeout, "metrics server", stopMetrics)

	pool, err := newDatabasePool(ctx, cfg.Database, "worker")
	if err != nil {
		return err
	}
	defer pool.Close()

	index, err := repository.NewPostgreSQLVectorIndex(pool, cfg.Index.Name)
	if err != nil {
		return fmt.Errorf("vector index: %w", err)
	}

	status, closeStatus, err := newStatusStore(ctx, cfg.Status, pool, true)
	if err != nil {
		return err
	}
	defer closeStatus.Close()

	source, err := newBatchSource(cfg.ObjectStore)
	if err != nil {
		return err
	}

	embedder, err := newEmbeddingService(cfg.Embedding)
	if err != nil {
		return err
	}

	deps := workerDependencies{
		Provider: provider,
		Source:   source,
		Embedder: embedder,
		Index:    index,
		Status:   status,
	}
	return startWorker(ctx, worker.NewIndexBootstrap(embedder, index), func(ctx context.Context, dimension int) error {
		slogger.Info(ctx, "Vector index ready", slogger.Fields{"index": cfg.Index.Name, "dimension": dimension})
		return pollQueue(ctx, cfg, deps)
	})
}

// indexBootstrapper prepares the vector index and reports its dimension.
type indexBootstrapper interface {
	Run(ctx context.Context) (int, error)
}

// startWorker runs the index bootstrap to completion before poll is called.
// A bootstrap error is returned as-is and poll never runs.
func startWorker(ctx context.Context, bootstrap indexBootstrapper, poll func(ctx context.Context, dimension int) error) error {
	dimension, err := bootstrap.Run(ctx)
	if err != nil {
		return err
	}
	return poll(ctx, dimension)
}

// workerDependencies are the adapters opened before the index bootstrap.
type workerDependencies struct {
	Provider metric.MeterProvider
	Source   outbound.BatchSource
	Embedder outbound.EmbeddingService
	Index    outbound.VectorIndex
	Status   outbound.BatchStatusStore
}

// pollQueue connects the JetStream consumer and runs the poller until ctx is
// cancelled and in-flight batches drain.
func pollQueue(ctx context.Context, cfg *config.Config, deps workerDependencies) error {
	conn, js, err := connectJetStream(cfg.NATS, "textembedder-worker")
	if err != nil {
		return err
	}
	defer conn.Close()

	stream, err := messaging.EnsureStream(ctx, js, messaging.StreamConfig{Name: cfg.Queue.Stream, Subject: cfg.Queue.Subject})
	if err != nil {
		return err
	}
	queue, err := inboundmessaging.NewJetStreamQueue(ctx, stream, inboundmessaging.ConsumerConfig{
		Durable:       cfg.Queue.Durable,
		Subject:       cfg.Queue.Subject,
		AckWait:       cfg.Queue.AckWait,
		MaxDeliver:    cfg.Queue.MaxDeliver,
		MaxAckPending: cfg.Worker.Concurrency * cfg.Worker.MaxMessages,
	})
	if err != nil {
		return fmt.Errorf("queue consumer: %w", err)
	}

	scheduler, err := worker.NewScheduler(cfg.Worker.Concurrency)
	if err != nil {
		return err
	}
	defer func() {
		if err := scheduler.Close(cfg.Worker.ShutdownTimeout); err != nil {
			slogger.WarnNoCtx("Worker pool did not drain", slogger.Fields{"error": err.Error()})
		}
	}()

	metrics, err := worker.NewMetricsWithProvider(deps.Provider)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	pipeline, err := worker.NewBatchPipeline(worker.PipelineDependencies{
		Loader:    worker.NewBatchLoader(deps.Source),
		Embedder:  deps.Embedder,
		Index:     deps.Index,
		Status:    deps.Status,
		Scheduler: scheduler,
		Metrics:   metrics,
	})
	if err != nil {
		return err
	}

	poller, err := worker.NewQueuePoller(queue, pipeline, scheduler, metrics, worker.PollerConfig{
		MaxMessages:       cfg.Worker.MaxMessages,
		LongPollWait:      cfg.Worker.LongPollWait,
		PollInterval:      cfg.Worker.PollInterval,
		MaxBatchDuration:  cfg.Worker.MaxBatchDuration,
		HeartbeatInterval: cfg.Worker.LeaseHeartbeatInterval,
		BatchKeyField:     cfg.Queue.BatchKeyField,
	})
	if err != nil {
		return err
	}

	return runUntilDrained(ctx, poller.Run, cfg.Worker.ShutdownTimeout)
}

// runUntilDrained runs fn until it returns. Once ctx is cancelled fn gets
// at most timeout to finish its in-flight work.
func runUntilDrained(ctx context.Context, fn func(context.Context) error, timeout time.Duration) error {
	done := make(chan error, 1)
	go func() { done <- fn(ctx) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
	}

	slogger.InfoNoCtx("Shutdown requested, waiting for in-flight batches", slogger.Fields{"timeout": timeout.String()})
	if timeout <= 0 {
		return <-done
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case err := <-done:
		slogger.InfoNoCtx("Worker stopped", nil)
		return err
	case <-timer.C:
		return fmt.Errorf("shutdown timed out after %s with batches in flight; they stay un-acked", timeout)
	}
}

func shutdownWith(timeout time.Duration, what string, stop func(context.Context) error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := stop(ctx); err != nil {
		slogger.WarnNoCtx("Shutdown failed", slogger.Fields{"component": what, "error": err.Error()})
	}
}

func init() { //nolint:gochecknoinits // Standard Cobra CLI pattern for command registration
	rootCmd.AddCommand(newWorkerCmd())
}
