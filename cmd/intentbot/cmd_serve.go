package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/avvvet/intentbot/internal/intents"
	"github.com/avvvet/intentbot/internal/transport"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the chat web server (and the NATS responder when NATS_URL is set)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(v, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			logger.Info("🚀 Starting intentbot", "service", cfg.ServiceName)

			a, err := bootstrap(cfg, logger, true)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			defer a.Close(ctx)

			if cfg.WatchIntents {
				if err := intents.Watch(ctx, cfg.IntentsPath, logger, nil); err != nil {
					logger.Warn("⚠️ Definitions watcher disabled", "err", err)
				}
			}

			if cfg.NatsURL != "" {
				logger.Info("📡 Connecting to NATS...", "url", cfg.NatsURL)
				natsTransport, err := transport.NewNATSTransport(cfg, a.handler, logger)
				if err != nil {
					return err
				}
				defer func() {
					if err := natsTransport.Close(); err != nil {
						logger.Warn("⚠️ Error closing NATS transport", "err", err)
					}
				}()

				if err := natsTransport.Start(); err != nil {
					return err
				}
			}

			srv := transport.NewHTTPServer(cfg.HTTPAddr, a.handler, a.stats, a.intents.Len(), logger)
			err = srv.Run(ctx)
			logger.Info("👋 intentbot stopped")
			return err
		},
	}

	return cmd
}
