// Package cli implements the docqa command line.
package cli

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"docqa/internal/app"
	"docqa/internal/config"
	"docqa/internal/logger"
)

var version = "dev"

var (
	cfgPath   string
	logLevel  string
	logFormat string

	// appOptions lets tests substitute backends.
	appOptions []app.Option
)

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Ask questions about a document",
	Long: `docqa answers natural-language questions about a document.

The document is split into overlapping chunks which are uploaded to a
search store. Each question retrieves the most relevant chunks and asks
a language model to answer using only that context.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config file (default ./config.yaml or ~/.config/docqa/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format override (console, json)")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets the version printed by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

func loadConfig() (*config.AppConfig, error) {
	_ = godotenv.Load()
	if cfgPath != "" {
		return config.Load(cfgPath)
	}
	cfg, _, err := config.LoadDefault()
	return cfg, err
}

func newLogger(cmd *cobra.Command, cfg *config.AppConfig) zerolog.Logger {
	level, format := cfg.Log.Level, cfg.Log.Format
	if logLevel != "" {
		level = logLevel
	}
	if logFormat != "" {
		format = logFormat
	}
	return logger.New(level, format, cmd.ErrOrStderr())
}

// newApp loads configuration and wires the service for one command run.
func newApp(cmd *cobra.Command) (*app.App, zerolog.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load config: %w", err)
	}
	log := newLogger(cmd, cfg)
	a, err := app.New(commandContext(cmd), cfg, log, appOptions...)
	if err != nil {
		return nil, log, err
	}
	return a, log, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func closeApp(a *app.App, log zerolog.Logger) {
	if err := a.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close search store")
	}
}
