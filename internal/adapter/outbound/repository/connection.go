package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultMaxConns    = 10
	defaultPingTimeout = 5 * time.Second
)

// DatabaseConfig describes the Postgres instance holding the vector index
// and, with the postgres status backend, the batch status table.
type DatabaseConfig struct {
	Host           string
	Port           int
	Database       string
	Username       string
	Password       string
	Schema         string
	SSLMode        string
	MaxConnections int
	// ApplicationName shows up in pg_stat_activity, e.g. "textembedder-worker".
	ApplicationName string
	PingTimeout     time.Duration
}

// Validate validates the database configuration.
func (c DatabaseConfig) Validate() error {
	var errs []error
	if c.Host == "" {
		errs = append(errs, errors.New("host is required"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, errors.New("port must be between 1 and 65535"))
	}
	if c.Database == "" {
		errs = append(errs, errors.New("database is required"))
	}
	if c.Username == "" {
		errs = append(errs, errors.New("username is required"))
	}
	if c.Schema == "" {
		errs = append(errs, errors.New("schema is required"))
	}
	if c.MaxConnections < 0 {
		errs = append(errs, errors.New("max connections must not be negative"))
	}
	return errors.Join(errs...)
}

// ConnString renders the libpq key/value connection string.
func (c DatabaseConfig) ConnString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	s := fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s search_path=%s",
		c.Host, c.Port, c.Database, c.Username, c.Password, sslMode, c.Schema,
	)
	if c.ApplicationName != "" {
		s += " application_name=" + c.ApplicationName
	}
	return s
}

// NewDatabaseConnection opens a pool and pings it before returning.
func NewDatabaseConnection(ctx context.Context, config DatabaseConfig) (*pgxpool.Pool, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	poolConfig, err := pgxpool.ParseConfig(config.ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	poolConfig.MaxConns = defaultMaxConns
	if config.MaxConnections > 0 {
		poolConfig.MaxConns = int32(config.MaxConnections) //nolint:gosec // bounded by configuration validation
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	timeout := config.PingTimeout
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if pingErr := pool.Ping(pingCtx); pingErr != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database %s:%d/%s: %w", config.Host, config.Port, config.Database, pingErr)
	}
	return pool, nil
}
