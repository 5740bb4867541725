package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kirillkom/virtual-tryon/internal/config"
	"github.com/kirillkom/virtual-tryon/internal/observability/logging"
)

const serviceName = "tryon-cli"

type globalOptions struct {
	backendURL string
	catalog    string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:          "tryon",
		Short:        "Drive a virtual try-on session against the try-on backend",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return config.LoadDotEnv()
		},
	}
	root.PersistentFlags().StringVar(&opts.backendURL, "backend", "", "try-on backend base URL (overrides TRYON_API_BASE_URL)")
	root.PersistentFlags().StringVar(&opts.catalog, "catalog", "", "garment catalog YAML (overrides CATALOG_PATH)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")

	root.AddCommand(newRunCmd(opts), newCatalogCmd(opts))
	return root
}

// loadConfig applies command-line overrides on top of the environment.
func (o *globalOptions) loadConfig() config.Config {
	cfg := config.Load()
	if o.backendURL != "" {
		cfg.TryOnAPIBaseURL = o.backendURL
	}
	if o.catalog != "" {
		cfg.CatalogPath = o.catalog
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	return cfg
}

func newLogger(cfg config.Config) *slog.Logger {
	return logging.NewTextLogger(os.Stderr, serviceName, cfg.LogLevel)
}
