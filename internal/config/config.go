package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the complete application configuration.
type Config struct {
	API         APIConfig         `mapstructure:"api"         yaml:"api"`
	Worker      WorkerConfig      `mapstructure:"worker"      yaml:"worker"`
	Database    DatabaseConfig    `mapstructure:"database"    yaml:"database"`
	NATS        NATSConfig        `mapstructure:"nats"        yaml:"nats"`
	Queue       QueueConfig       `mapstructure:"queue"       yaml:"queue"`
	Embedding   EmbeddingConfig   `mapstructure:"embedding"   yaml:"embedding"`
	Index       IndexConfig       `mapstructure:"index"       yaml:"index"`
	ObjectStore ObjectStoreConfig `mapstructure:"object_store" yaml:"object_store"`
	Status      StatusConfig      `mapstructure:"status"      yaml:"status"`
	Metrics     MetricsConfig     `mapstructure:"metrics"     yaml:"metrics"`
	Log         LogConfig         `mapstructure:"log"         yaml:"log"`
}

// APIConfig holds API server configuration.
type APIConfig struct {
	Host         string        `mapstructure:"host"          yaml:"host"`
	Port         string        `mapstructure:"port"          yaml:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"  yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	QueryCache   int           `mapstructure:"query_cache"   yaml:"query_cache"`
}

// WorkerConfig holds the queue poller and pipeline settings.
type WorkerConfig struct {
	// Concurrency is the single budget shared by in-flight batches and in-flight unit operations.
	Concurrency            int           `mapstructure:"concurrency"              yaml:"concurrency"`
	PollInterval           time.Duration `mapstructure:"poll_interval"            yaml:"poll_interval"`
	MaxMessages            int           `mapstructure:"max_messages"             yaml:"max_messages"`
	LongPollWait           time.Duration `mapstructure:"long_poll_wait"           yaml:"long_poll_wait"`
	MaxBatchDuration       time.Duration `mapstructure:"max_batch_duration"       yaml:"max_batch_duration"`
	LeaseHeartbeatInterval time.Duration `mapstructure:"lease_heartbeat_interval" yaml:"lease_heartbeat_interval"`
	ShutdownTimeout        time.Duration `mapstructure:"shutdown_timeout"         yaml:"shutdown_timeout"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Host           string `mapstructure:"host"            yaml:"host"`
	Port           int    `mapstructure:"port"            yaml:"port"`
	User           string `mapstructure:"user"            yaml:"user"`
	Password       string `mapstructure:"password"        yaml:"password"`
	Name           string `mapstructure:"name"            yaml:"name"`
	Schema         string `mapstructure:"schema"          yaml:"schema"`
	SSLMode        string `mapstructure:"sslmode"         yaml:"sslmode"`
	MaxConnections int    `mapstructure:"max_connections" yaml:"max_connections"`
}

// DSN returns the database connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// NATSConfig holds NATS connection configuration.
type NATSConfig struct {
	URL           string        `mapstructure:"url"            yaml:"url"`
	MaxReconnects int           `mapstructure:"max_reconnects" yaml:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait" yaml:"reconnect_wait"`
}

// QueueConfig describes the JetStream work queue batches arrive on.
type QueueConfig struct {
	Stream        string        `mapstructure:"stream"          yaml:"stream"`
	Subject       string        `mapstructure:"subject"         yaml:"subject"`
	Durable       string        `mapstructure:"durable"         yaml:"durable"`
	AckWait       time.Duration `mapstructure:"ack_wait"        yaml:"ack_wait"`
	MaxDeliver    int           `mapstructure:"max_deliver"     yaml:"max_deliver"`
	BatchKeyField string        `mapstructure:"batch_key_field" yaml:"batch_key_field"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider          string        `mapstructure:"provider"            yaml:"provider"`
	Model             string        `mapstructure:"model"               yaml:"model"`
	BaseURL           string        `mapstructure:"base_url"            yaml:"base_url"`
	APIKey            string        `mapstructure:"api_key"             yaml:"api_key"`
	Timeout           time.Duration `mapstructure:"timeout"             yaml:"timeout"`
	Dimensions        int           `mapstructure:"dimensions"          yaml:"dimensions"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             int           `mapstructure:"burst"               yaml:"burst"`
}

// IndexConfig names the vector index.
type IndexConfig struct {
	Name string `mapstructure:"name" yaml:"name"`
}

// ObjectStoreConfig holds the S3-compatible store that batch files are read from.
type ObjectStoreConfig struct {
	Endpoint  string `mapstructure:"endpoint"   yaml:"endpoint"`
	Bucket    string `mapstructure:"bucket"     yaml:"bucket"`
	Region    string `mapstructure:"region"     yaml:"region"`
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"    yaml:"use_ssl"`
}

// StatusConfig selects where batch status records are written.
type StatusConfig struct {
	Backend    string `mapstructure:"backend"     yaml:"backend"`
	BadgerPath string `mapstructure:"badger_path" yaml:"badger_path"`
}

// MetricsConfig holds the Prometheus scrape endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Host    string `mapstructure:"host"    yaml:"host"`
	Port    string `mapstructure:"port"    yaml:"port"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Supported embedding providers and status backends.
const (
	ProviderGemini = "gemini"
	ProviderHTTP   = "http"
	ProviderOpenAI = "openai"
	ProviderSimple = "simple"

	StatusBackendPostgres = "postgres"
	StatusBackendBadger   = "badger"
)

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", "8080")
	v.SetDefault("api.read_timeout", "10s")
	v.SetDefault("api.write_timeout", "30s")
	v.SetDefault("api.query_cache", 512)

	v.SetDefault("worker.concurrency", 5)
	v.SetDefault("worker.poll_interval", "5s")
	v.SetDefault("worker.max_messages", 10)
	v.SetDefault("worker.long_poll_wait", "10s")
	v.SetDefault("worker.max_batch_duration", "30m")
	v.SetDefault("worker.lease_heartbeat_interval", "30s")
	v.SetDefault("worker.shutdown_timeout", "30s")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "textembedder")
	v.SetDefault("database.name", "textembedder")
	v.SetDefault("database.schema", "public")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_connections", 25)

	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.max_reconnects", 5)
	v.SetDefault("nats.reconnect_wait", "2s")

	v.SetDefault("queue.stream", "BATCHES")
	v.SetDefault("queue.subject", "batches.ready")
	v.SetDefault("queue.durable", "text-embedder")
	v.SetDefault("queue.ack_wait", "60s")
	v.SetDefault("queue.max_deliver", 5)
	v.SetDefault("queue.batch_key_field", "s3_key")

	v.SetDefault("embedding.provider", ProviderHTTP)
	v.SetDefault("embedding.model", "amazon.titan-embed-text-v2:0")
	v.SetDefault("embedding.base_url", "http://localhost:8081")
	v.SetDefault("embedding.timeout", "30s")
	v.SetDefault("embedding.dimensions", 768)
	v.SetDefault("embedding.requests_per_second", 0)
	v.SetDefault("embedding.burst", 1)

	v.SetDefault("index.name", "documents")

	v.SetDefault("object_store.endpoint", "localhost:9000")
	v.SetDefault("object_store.bucket", "batches")
	v.SetDefault("object_store.region", "us-east-1")
	v.SetDefault("object_store.use_ssl", false)

	v.SetDefault("status.backend", StatusBackendPostgres)
	v.SetDefault("status.badger_path", "./data/status")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.host", "0.0.0.0")
	v.SetDefault("metrics.port", "8000")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// New creates a new Config instance from Viper.
func New(v *viper.Viper) *Config {
	config, err := Load(v)
	if err != nil {
		panic(err)
	}
	return config
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	config.normalize()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

func (c *Config) normalize() {
	c.Embedding.Provider = strings.ToLower(strings.TrimSpace(c.Embedding.Provider))
	c.Status.Backend = strings.ToLower(strings.TrimSpace(c.Status.Backend))
	if c.Worker.LeaseHeartbeatInterval == 0 && c.Queue.AckWait > 0 {
		c.Worker.LeaseHeartbeatInterval = c.Queue.AckWait / 2
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Worker.Concurrency < 1 {
		return errors.New("worker.concurrency must be at least 1")
	}
	if c.Worker.MaxMessages < 1 || c.Worker.MaxMessages > 256 {
		return errors.New("worker.max_messages must be between 1 and 256")
	}
	if c.Worker.PollInterval <= 0 {
		return errors.New("worker.poll_interval must be positive")
	}
	if c.Worker.LongPollWait <= 0 {
		return errors.New("worker.long_poll_wait must be positive")
	}
	if c.Worker.MaxBatchDuration < 0 {
		return errors.New("worker.max_batch_duration must not be negative")
	}
	if c.Worker.LeaseHeartbeatInterval < 0 {
		return errors.New("worker.lease_heartbeat_interval must not be negative")
	}
	if c.Queue.AckWait > 0 && c.Worker.LeaseHeartbeatInterval >= c.Queue.AckWait {
		return errors.New("worker.lease_heartbeat_interval must be shorter than queue.ack_wait")
	}

	if c.Queue.Stream == "" || c.Queue.Subject == "" || c.Queue.Durable == "" {
		return errors.New("queue.stream, queue.subject and queue.durable are required")
	}
	if c.Queue.BatchKeyField == "" {
		return errors.New("queue.batch_key_field is required")
	}

	switch c.Embedding.Provider {
	case ProviderGemini, ProviderOpenAI:
		if c.Embedding.APIKey == "" {
			return fmt.Errorf("embedding.api_key is required for provider %q", c.Embedding.Provider)
		}
	case ProviderHTTP:
		if c.Embedding.BaseURL == "" {
			return errors.New("embedding.base_url is required for provider \"http\"")
		}
	case ProviderSimple:
	default:
		return fmt.Errorf("unknown embedding.provider %q", c.Embedding.Provider)
	}
	if c.Embedding.RequestsPerSecond < 0 {
		return errors.New("embedding.requests_per_second must not be negative")
	}

	if c.Index.Name == "" {
		return errors.New("index.name is required")
	}
	if c.ObjectStore.Bucket == "" {
		return errors.New("object_store.bucket is required")
	}

	switch c.Status.Backend {
	case StatusBackendPostgres:
	case StatusBackendBadger:
		if c.Status.BadgerPath == "" {
			return errors.New("status.badger_path is required for the badger backend")
		}
	default:
		return fmt.Errorf("unknown status.backend %q", c.Status.Backend)
	}

	if c.Database.User == "" {
		return errors.New("database.user is required")
	}
	if c.Database.Name == "" {
		return errors.New("database.name is required")
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return errors.New("database.port must be between 1 and 65535")
	}

	return nil
}

// ErrStatusBackendNotShared is returned when the api command is configured
// with a status backend that only the worker process can open.
var ErrStatusBackendNotShared = errors.New(
	"status.backend badger is owned by the worker process; the api command requires status.backend postgres")

// ValidateAPI checks the settings the api command needs on top of Validate.
// A Badger directory admits a single process, and a read-only handle never
// sees writes made after it was opened.
func (c *Config) ValidateAPI() error {
	if c.Status.Backend == StatusBackendBadger {
		return ErrStatusBackendNotShared
	}
	return nil
}

// Redacted returns a copy of c with credentials masked, suitable for printing.
func (c Config) Redacted() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "****"
	}
	c.Database.Password = mask(c.Database.Password)
	c.Embedding.APIKey = mask(c.Embedding.APIKey)
	c.ObjectStore.AccessKey = mask(c.ObjectStore.AccessKey)
	c.ObjectStore.SecretKey = mask(c.ObjectStore.SecretKey)
	return c
}
