package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/avvvet/intentbot/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	// Load .env file if it exists (for development)
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}

	if err := newRootCmd(config.New()).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ intentbot: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	root := &cobra.Command{
		Use:           "intentbot",
		Short:         "Intent-classifying chatbot",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("intents", "", "path to the intent definitions file (env INTENTS_PATH)")
	root.PersistentFlags().String("log-level", "", "debug, info, warn or error (env LOG_LEVEL)")
	root.PersistentFlags().Float64("test-size", 0, "fraction of examples held out for evaluation (env TEST_SIZE)")
	root.PersistentFlags().String("addr", "", "HTTP listen address (env HTTP_ADDR)")
	bindFlag(v, root, config.KeyIntentsPath, "intents")
	bindFlag(v, root, config.KeyLogLevel, "log-level")
	bindFlag(v, root, config.KeyTestSize, "test-size")
	bindFlag(v, root, config.KeyHTTPAddr, "addr")

	serve := newServeCmd(v)
	root.AddCommand(
		serve,
		newPredictCmd(v),
		newEvaluateCmd(v),
	)

	// Run the server when no subcommand is given.
	root.RunE = serve.RunE

	return root
}

// bindFlag binds a persistent flag to a config key. Only a flag that was
// actually set overrides the environment.
func bindFlag(v *viper.Viper, cmd *cobra.Command, key, flag string) {
	if err := v.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", flag, err))
	}
}

// loadConfig resolves the configuration and builds the process logger.
func loadConfig(v *viper.Viper, stderr io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, newLogger(cfg, stderr), nil
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
