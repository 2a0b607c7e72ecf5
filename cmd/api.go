package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"textembedder/internal/adapter/inbound/api"
	"textembedder/internal/adapter/outbound/embeddings/cache"
	"textembedder/internal/adapter/outbound/messaging"
	"textembedder/internal/adapter/outbound/repository"
	"textembedder/internal/application/common/slogger"
	"textembedder/internal/application/service"
	"textembedder/internal/config"
	"textembedder/internal/port/outbound"

	"github.com/spf13/cobra"
)

func newAPICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "api",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server over the vector index.

Endpoints:
  GET    /health              dependency checks, always 200
  GET    /search?q=&size=     full-text search
  POST   /semantic-search     kNN search for ?query=&k=
  POST   /index               upsert one document
  DELETE /doc/{id}            delete one document
  GET    /batches/{key}       read a batch status record`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runAPI(ctx, cfg)
		},
	}
}

// apiDependencies are the adapters the API services run on.
type apiDependencies struct {
	Index       outbound.VectorIndex
	Embedder    outbound.EmbeddingService
	StatusStore statusStore
	ObjectStore service.Pinger
	Queue       service.Pinger
}

// newAPIServer assembles the services and the HTTP server.
func newAPIServer(cfg *config.Config, deps apiDependencies) (*api.Server, error) {
	queryEmbedder, err := cache.Wrap(deps.Embedder, cfg.API.QueryCache)
	if err != nil {
		return nil, err
	}

	health := service.NewHealthService(service.HealthDependencies{
		Index:       deps.Index,
		ObjectStore: deps.ObjectStore,
		Queue:       deps.Queue,
		StatusStore: deps.StatusStore,
		Embedder:    deps.Embedder,
	})

	return api.NewServerBuilder(cfg).
		WithHealthService(health).
		WithSearchService(service.NewSearchService(deps.Index, queryEmbedder)).
		WithDocumentService(service.NewDocumentService(deps.Index, deps.Embedder)).
		WithBatchStatusService(service.NewBatchStatusService(deps.StatusStore)).
		WithErrorHandler(api.NewDefaultErrorHandler()).
		WithDefaultMiddleware().
		Build()
}

func runAPI(ctx context.Context, cfg *config.Config) error {
	if err := cfg.ValidateAPI(); err != nil {
		return err
	}

	pool, err := newDatabasePool(ctx, cfg.Database, "api")
	if err != nil {
		return err
	}
	defer pool.Close()

	index, err := repository.NewPostgreSQLVectorIndex(pool, cfg.Index.Name)
	if err != nil {
		return fmt.Errorf("vector index: %w", err)
	}

	embedder, err := newEmbeddingService(cfg.Embedding)
	if err != nil {
		return err
	}

	source, err := newBatchSource(cfg.ObjectStore)
	if err != nil {
		return err
	}

	store, closeStore, err := newStatusStore(ctx, cfg.Status, pool, false)
	if err != nil {
		return err
	}
	defer closeStore.Close()

	deps := apiDependencies{Index: index, Embedder: embedder, ObjectStore: source, StatusStore: store}

	conn, js, err := connectJetStream(cfg.NATS, "textembedder-api")
	if err != nil {
		slogger.Warn(ctx, "NATS unavailable; queue health check will report it", slogger.Fields{"error": err.Error()})
		deps.Queue = failingPinger(err)
	} else {
		defer conn.Close()
		deps.Queue = messaging.NewStreamChecker(js, cfg.Queue.Stream)
	}

	server, err := newAPIServer(cfg, deps)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	slogger.InfoNoCtx("Shutting down API server", slogger.Fields{"address": server.Address()})
	shutdownWith(cfg.Worker.ShutdownTimeout, "api server", server.Shutdown)
	return nil
}

func init() { //nolint:gochecknoinits // Standard Cobra CLI pattern for command registration
	rootCmd.AddCommand(newAPICmd())
}
