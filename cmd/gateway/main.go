// Package main runs the aggregation gateway.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aifixr/feed-gateway/internal/capability"
	"github.com/aifixr/feed-gateway/internal/config"
	"github.com/aifixr/feed-gateway/internal/crawlersvc"
	"github.com/aifixr/feed-gateway/internal/gateway"
	"github.com/aifixr/feed-gateway/internal/logging"
	"github.com/aifixr/feed-gateway/internal/router"
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
		Use:          "gateway",
		Short:        "Serve every capability router behind one listener",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cmd.Flags().Changed("port") {
				cfg.Gateway.Port = port
			}

			logger, cleanup, err := logging.Setup("gateway", cfg.Logging.Development)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			tp, err := tracing.Init(ctx, "gateway", cfg.Tracing.Exporter, os.Stderr)
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
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides gateway.port and PORT)")
	return cmd
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	gw, closeUnits, err := build(cfg, logger)
	if err != nil {
		logger.Error("gateway startup failed", zap.Error(err))
		return err
	}
	defer closeUnits()

	for _, m := range gw.Mounts() {
		logger.Info("serving router", zap.String("router", m.Name), zap.String("prefix", m.Prefix))
	}
	return server.Run(ctx, cfg.Gateway.Port, gw.Handler(), cfg.ShutdownTimeout(), logger)
}

// build assembles the parent catalog from every deployment unit and the
// gateway over it. Resolution failures surface here, before any listener opens.
func build(cfg config.Config, logger *zap.Logger) (*gateway.Gateway, func(), error) {
	crawler, err := crawlersvc.New(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("init crawler unit: %w", err)
	}

	parent := capability.NewCatalog()
	if err := parent.Include(crawlersvc.Namespace, crawler.Catalog()); err != nil {
		crawler.Close()
		return nil, nil, fmt.Errorf("include crawler unit: %w", err)
	}

	registry := gateway.NewRegistry()
	if err := registry.Register(crawlersvc.Name, func(parent *capability.Catalog) *router.Router {
		return crawlersvc.NewRouter(nil, parent, logger.Named("router"))
	}); err != nil {
		crawler.Close()
		return nil, nil, err
	}

	gw, err := gateway.New(gateway.OptionsFromConfig(cfg), registry, parent, logger)
	if err != nil {
		crawler.Close()
		return nil, nil, err
	}
	return gw, crawler.Close, nil
}
