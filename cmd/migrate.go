package cmd

import (
	"textembedder/internal/adapter/outbound/repository"
	"textembedder/internal/application/common/slogger"
	"textembedder/internal/config"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Prepare the database",
		Long: `Install the pgvector extension and, for the postgres status backend, create
the batch status table. The vector index table itself is created by the worker
once it knows the embedding dimension.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			pool, err := newDatabasePool(ctx, cfg.Database, "migrate")
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := repository.EnsureVectorExtension(ctx, pool); err != nil {
				return err
			}
			if cfg.Status.Backend == config.StatusBackendPostgres {
				if err := repository.NewPostgreSQLBatchStatusRepository(pool).EnsureSchema(ctx); err != nil {
					return err
				}
			}

			slogger.Info(ctx, "Database migrated", slogger.Fields{"status_backend": cfg.Status.Backend})
			return nil
		},
	}
}

func init() { //nolint:gochecknoinits // Standard Cobra CLI pattern for command registration
	rootCmd.AddCommand(newMigrateCmd())
}
