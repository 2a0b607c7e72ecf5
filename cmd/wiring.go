package cmd

import (
	"context"
	"fmt"
	"io"

	"textembedder/internal/adapter/outbound/embeddings/httpembed"
	"textembedder/internal/adapter/outbound/embeddings/openai"
	"textembedder/internal/adapter/outbound/embeddings/ratelimit"
	"textembedder/internal/adapter/outbound/embeddings/simple"
	"textembedder/internal/adapter/outbound/gemini"
	"textembedder/internal/adapter/outbound/kvstore"
	"textembedder/internal/adapter/outbound/messaging"
	"textembedder/internal/adapter/outbound/objectstore"
	"textembedder/internal/adapter/outbound/repository"
	"textembedder/internal/application/common/slogger"
	"textembedder/internal/config"
	"textembedder/internal/port/outbound"
	"textembedder/internal/version"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Task type sent to Gemini for document embeddings.
const geminiTaskType = "RETRIEVAL_DOCUMENT"

// newDatabasePool connects as textembedder-<role> so each command is
// distinguishable in pg_stat_activity.
func newDatabasePool(ctx context.Context, cfg config.DatabaseConfig, role string) (*pgxpool.Pool, error) {
	pool, err := repository.NewDatabaseConnection(ctx, repository.DatabaseConfig{
		Host:            cfg.Host,
		Port:            cfg.Port,
		Database:        cfg.Name,
		Username:        cfg.User,
		Password:        cfg.Password,
		Schema:          cfg.Schema,
		MaxConnections:  cfg.MaxConnections,
		SSLMode:         cfg.SSLMode,
		ApplicationName: "textembedder-" + role,
	})
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	return pool, nil
}

// newEmbeddingService builds the configured provider, rate limited when
// embedding.requests_per_second is set.
func newEmbeddingService(cfg config.EmbeddingConfig) (outbound.EmbeddingService, error) {
	var (
		service outbound.EmbeddingService
		err     error
	)

	switch cfg.Provider {
	case config.ProviderGemini:
		service, err = gemini.NewClient(gemini.ClientConfig{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			TaskType:   geminiTaskType,
			Timeout:    cfg.Timeout,
			Dimensions: cfg.Dimensions,
			UserAgent:  version.ApplicationName + "/" + version.Get().Short(),
		})
	case config.ProviderHTTP:
		service, err = httpembed.New(httpembed.Config{
			Endpoint: cfg.BaseURL,
			Model:    cfg.Model,
			APIKey:   cfg.APIKey,
			Timeout:  cfg.Timeout,
		})
	case config.ProviderOpenAI:
		service, err = openai.New(openai.Config{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
		})
	case config.ProviderSimple:
		service = simple.New(cfg.Dimensions)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("embedding provider %s: %w", cfg.Provider, err)
	}

	slogger.InfoNoCtx("Embedding service configured", slogger.Fields{
		"provider":            cfg.Provider,
		"model":               service.ModelName(),
		"requests_per_second": cfg.RequestsPerSecond,
	})

	if cfg.RequestsPerSecond > 0 {
		service = ratelimit.Wrap(service, cfg.RequestsPerSecond, cfg.Burst)
	}
	return service, nil
}

func newBatchSource(cfg config.ObjectStoreConfig) (*objectstore.MinioBatchSource, error) {
	source, err := objectstore.NewMinioBatchSource(objectstore.Config{
		Endpoint:  cfg.Endpoint,
		Bucket:    cfg.Bucket,
		Region:    cfg.Region,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		UseSSL:    cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("object store: %w", err)
	}
	return source, nil
}

// statusStore is a BatchStatusStore that can also be health checked.
type statusStore interface {
	outbound.BatchStatusStore
	Ping(ctx context.Context) error
}

// newStatusStore opens the configured status backend. Only the worker may
// open Badger; the api command rejects that backend in ValidateAPI.
func newStatusStore(ctx context.Context, cfg config.StatusConfig, pool *pgxpool.Pool, ensureSchema bool) (statusStore, io.Closer, error) {
	switch cfg.Backend {
	case config.StatusBackendPostgres:
		store := repository.NewPostgreSQLBatchStatusRepository(pool)
		if ensureSchema {
			if err := store.EnsureSchema(ctx); err != nil {
				return nil, nil, fmt.Errorf("status store: %w", err)
			}
		}
		return store, closerFunc(func() error { return nil }), nil
	case config.StatusBackendBadger:
		store, err := kvstore.OpenBadgerStatusStore(cfg.BadgerPath)
		if err != nil {
			return nil, nil, fmt.Errorf("status store: %w", err)
		}
		return store, store, nil
	default:
		return nil, nil, fmt.Errorf("unknown status backend %q", cfg.Backend)
	}
}

func connectJetStream(cfg config.NATSConfig, name string) (*nats.Conn, jetstream.JetStream, error) {
	conn, err := messaging.Connect(messaging.ConnectionConfig{
		URL:           cfg.URL,
		Name:          name,
		MaxReconnects: cfg.MaxReconnects,
		ReconnectWait: cfg.ReconnectWait,
	})
	if err != nil {
		return nil, nil, err
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}
	return conn, js, nil
}

// pingerFunc adapts a function to the health service's Pinger.
type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func failingPinger(err error) pingerFunc {
	return func(context.Context) error { return err }
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
