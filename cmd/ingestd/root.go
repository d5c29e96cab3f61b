package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/ingestd/internal/config"
	"github.com/hyperjump/ingestd/pkg/utils"
)

const defaultConfigPath = "/usr/local/etc/ingestd/config.yaml"

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	envFile    string
	debug      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "ingestd",
		Short: "Download a document and persist it as a searchable vector index",
		Long: `ingestd downloads a document by URL, extracts its text, splits it into
overlapping chunks, embeds each chunk and atomically replaces the index
snapshot on disk.

Run 'ingestd serve' for the HTTP API or 'ingestd ingest <url>' for a one-shot run.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.SetVersionTemplate("ingestd version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfigPath, "config file path")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the config")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newIngestCmd(opts))
	cmd.AddCommand(newVerifyCmd(opts))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// loadConfig loads the .env file, then the config, then INGESTD_* overrides.
// When path is the default and ./config.yaml exists, that file is used instead,
// so running from a project directory picks up the project's config.
// Returns the config and the path that was actually loaded.
func loadConfig(opts *rootOptions) (*config.Config, string, error) {
	if err := config.LoadDotEnv(opts.envFile); err != nil {
		return nil, "", err
	}
	path := opts.configPath
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, err := os.Stat(fallback); err == nil {
				path = fallback
			}
		}
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, "", err
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	if opts.debug {
		cfg.Debug = true
	}
	return cfg, path, nil
}

// setup loads config and builds the logger. Callers must Sync the logger.
func setup(opts *rootOptions) (*config.Config, *zap.Logger, error) {
	cfg, path, err := loadConfig(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Debug("config loaded",
		zap.String("config_path", path),
		zap.Bool("debug", cfg.Debug),
		zap.String("index_path", cfg.Index.Path),
		zap.String("index_type", cfg.Index.Type),
		zap.String("embedding_provider", cfg.Embedding.Provider))
	return cfg, logger, nil
}
