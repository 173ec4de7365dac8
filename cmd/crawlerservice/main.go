// Package main runs the crawler service on its own listener.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aifixr/feed-gateway/internal/api"
	"github.com/aifixr/feed-gateway/internal/config"
	"github.com/aifixr/feed-gateway/internal/crawlersvc"
	"github.com/aifixr/feed-gateway/internal/logging"
	"github.com/aifixr/feed-gateway/internal/server"
	"github.com/aifixr/feed-gateway/internal/tracing"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfgPath string
		port    int
	)
	cmd := &cobra.Command{
		Use:          "crawlerservice",
		Short:        "Serve the crawler capabilities standalone",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			logger, cleanup, err := logging.Setup("crawlerservice", cfg.Logging.Development)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			tp, err := tracing.Init(ctx, "crawlerservice", cfg.Tracing.Exporter, os.Stderr)
			if err != nil {
				return fmt.Errorf("init tracing: %w", err)
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
				defer cancel()
				if err := tp.Shutdown(shutdownCtx); err != nil {
					logger.Warn("tracer shutdown failed", zap.Error(err))
				}
			}()
			return run(ctx, cfg, logger)
		},
	}
	cmd.Flags().StringVar(&cfgPath, "config", "", "path to a YAML config file")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides server.port and PORT)")
	return cmd
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	handler, closeUnit, err := build(cfg, logger)
	if err != nil {
		return err
	}
	defer closeUnit()
	return server.Run(ctx, cfg.Server.Port, handler, cfg.ShutdownTimeout(), logger)
}

// build wires the crawler router against the unit's own catalog. A capability
// that fails to resolve is logged and keeps failing per request.
func build(cfg config.Config, logger *zap.Logger) (http.Handler, func(), error) {
	svc, err := crawlersvc.New(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("init crawler unit: %w", err)
	}

	rt := crawlersvc.NewRouter(svc.Catalog(), nil, logger.Named("router"))
	if err := rt.Resolve(); err != nil {
		logger.Warn("capabilities unavailable", zap.Error(err))
	}

	r := api.NewRouter(logger)
	rt.Register(r)
	return r, svc.Close, nil
}
