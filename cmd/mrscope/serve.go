package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/drewdunne/mrscope/internal/config"
	"github.com/drewdunne/mrscope/internal/logging"
	"github.com/drewdunne/mrscope/internal/server"
)

var serveTransport string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the tools over the Model Context Protocol",
	Long: `Serves fetch_mr_details, analyze_code_changes and store_in_confluence.
With the stdio transport (the default) stdout carries the protocol and logs go
to stderr. With the http transport the tools are served on /mcp next to
/health and /metrics, plus a webhook endpoint when webhook.secret is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(func(cfg *config.Config) {
			if serveTransport != "" {
				cfg.Server.Transport = serveTransport
			}
		})
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if dir := a.cfg.Logging.Dir; dir != "" {
			scheduler := logging.NewCleanupScheduler(
				logging.NewCleaner(dir, a.cfg.Logging.RetentionDays), 24*time.Hour, a.logger)
			scheduler.Start()
			defer scheduler.Stop()
		}

		srv := server.New(a.cfg, a.dispatcher)
		a.logger.Info().
			Str("transport", a.cfg.Server.Transport).
			Str("source", a.registry.Source().Name()).
			Str("version", server.Version).
			Msg("mrscope started")
		if a.cfg.Webhook.Enabled() {
			a.logger.Info().Str("path", server.WebhookPath(a.cfg.Source.Provider)).Msg("webhook endpoint enabled")
		}

		if a.cfg.Server.Transport == config.TransportHTTP {
			return srv.ListenAndServeWithShutdown(ctx)
		}

		err = srv.ServeStdio(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			return errors.Wrap(err, "stdio server")
		}
		a.logger.Info().Msg("server stopped cleanly")
		os.Stderr.Sync()
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveTransport, "transport", "", "Transport to serve on: stdio or http (default from config)")
	rootCmd.AddCommand(serveCmd)
}
