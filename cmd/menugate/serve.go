package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/mchmarny/menugate/pkg/config"
	"github.com/mchmarny/menugate/pkg/logger"
	"github.com/mchmarny/menugate/pkg/menu"
	"github.com/mchmarny/menugate/pkg/metric"
	"github.com/mchmarny/menugate/pkg/server"
	"github.com/mchmarny/menugate/pkg/source"
)

func newServeCmd() *cobra.Command {
	var (
		port     int
		location string
		token    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve resolved menus over HTTP",
		Long: `Serves GET /menu?role=<role> with the menu resolved for that role,
plus /healthz, /readyz and /metrics. Settings come from MENUGATE_* variables;
flags override them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			if lvl := serveLogLevel(cmd, cfg); lvl != "" {
				logger.SetDefault(version, lvl)
			}

			flags := cmd.Flags()
			if flags.Changed("port") {
				cfg.Port = port
			}
			if flags.Changed("source") {
				cfg.Source = location
			}
			if flags.Changed("token") {
				cfg.SourceToken = token
			}

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg)
		},
	}

	cmd.Flags().IntVar(&port, "port", server.DefaultPort, "port to run the server on")
	cmd.Flags().StringVar(&location, "source", "", "menu file path or http(s) URL")
	cmd.Flags().StringVar(&token, "token", "", "bearer token for a remote source")

	return cmd
}

// serveLogLevel returns the configured level to apply, or empty when
// --log-level was given and already took effect.
func serveLogLevel(cmd *cobra.Command, cfg config.Config) string {
	if f := cmd.Flag("log-level"); f != nil && f.Changed {
		return ""
	}
	return cfg.LogLevel
}

func serve(ctx context.Context, cfg config.Config) error {
	slog.Info("starting menugate", "version", version, "commit", commit, "date", date)

	reg := prometheus.NewRegistry()
	rec := metric.NewRecorder(reg)

	src, err := source.New(source.Config{
		Location: cfg.Source,
		Token:    cfg.SourceToken,
		Timeout:  cfg.FetchTimeout,
		TTL:      cfg.CacheTTL,
		Observer: rec,
	})
	if err != nil {
		return err
	}

	return menu.Run(ctx, src, rec,
		server.WithPort(cfg.Port),
		server.WithShutdownTimeout(cfg.ShutdownTimeout),
		server.WithRegistry(reg),
		server.WithMetrics(),
	)
}
