// Package cmd implements the textembedder command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"textembedder/internal/application/common/slogger"
	"textembedder/internal/config"
	"textembedder/internal/version"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. TEXTEMBED_WORKER_CONCURRENCY.
const EnvPrefix = "TEXTEMBED"

//nolint:gochecknoglobals // Standard Cobra CLI pattern.
var (
	cfgFile string
	rootCmd = newRootCmd()
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "textembedder",
		Short: "Embed extracted document text into a vector index",
		Long: `textembedder ingests batches of extracted document text.

The worker pulls batch announcements from NATS JetStream, reads each batch file
from object storage, embeds every text unit through the configured model
service, writes the vectors to a pgvector index and records the batch status.

The api command serves search, manual indexing and batch status lookups over
the same index.`,
		Version:       version.Get().Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate(version.Get().Full())
	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		slogger.ErrorWithErrorNoCtx(err, "Command failed", slogger.Fields{"command": strings.Join(os.Args[1:], " ")})
		os.Exit(1)
	}
}

func init() { //nolint:gochecknoinits // Standard Cobra CLI pattern for command registration
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./configs/config.yaml)")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", "json", "Log format (json, text)")

	if err := viper.BindPFlag("log.level", flags.Lookup("log-level")); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding log-level flag: %v\n", err)
	}
	if err := viper.BindPFlag("log.format", flags.Lookup("log-format")); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding log-format flag: %v\n", err)
	}
}

func initConfig() {
	if err := setupViper(viper.GetViper(), cfgFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
	}
}

// setupViper registers defaults, the config file and environment overrides on v.
// A missing default config file is not an error; an explicit one is.
func setupViper(v *viper.Viper, file string) error {
	config.SetDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}
	return nil
}

// loadConfig decodes and validates the configuration and applies the log settings.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if err := slogger.Configure(cfg.Log.Level, cfg.Log.Format); err != nil {
		return nil, fmt.Errorf("configure logging: %w", err)
	}
	return cfg, nil
}
