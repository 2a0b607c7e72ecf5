package cmd

import (
	"context"
	"errors"
	"fmt"

	"textembedder/internal/adapter/outbound/repository"

	"github.com/spf13/cobra"
)

// documentPurger deletes every document while keeping the index schema.
type documentPurger interface {
	Purge(ctx context.Context) (int64, error)
}

func newPurgeCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete every document from the vector index",
		Long: `Delete every document from the vector index. The index table, its
dimension and its search indexes are kept, so the worker can keep writing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !force {
				return errors.New("refusing to purge without --force")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			pool, err := newDatabasePool(cmd.Context(), cfg.Database, "purge")
			if err != nil {
				return err
			}
			defer pool.Close()

			index, err := repository.NewPostgreSQLVectorIndex(pool, cfg.Index.Name)
			if err != nil {
				return fmt.Errorf("vector index: %w", err)
			}
			return runPurge(cmd.Context(), cmd, index, cfg.Index.Name)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Confirm deleting all documents")
	return cmd
}

func runPurge(ctx context.Context, cmd *cobra.Command, index documentPurger, name string) error {
	deleted, err := index.Purge(ctx)
	if err != nil {
		return fmt.Errorf("purge %s: %w", name, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %d documents from %s\n", deleted, name)
	return nil
}

func init() { //nolint:gochecknoinits // Standard Cobra CLI pattern for command registration
	rootCmd.AddCommand(newPurgeCmd())
}
