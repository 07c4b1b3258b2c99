// Package main serves the market views over HTTP and WebSocket:
// - /markets, /markets/{asset1}/{asset2}, /pairs, /orders, /trades
// - /ws/markets pushes the market list every stream interval
// - /metrics exposes Prometheus metrics
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"

	"dex-markets/internal/api"
	"dex-markets/internal/app"
	"dex-markets/internal/config"
	"dex-markets/internal/logging"
	"dex-markets/internal/observability"
)

func main() {
	// Parse flags (config file and environment supply everything else)
	configFile := flag.String("config", os.Getenv("DEX_CONFIG"), "Path to YAML config file")
	listenAddr := flag.String("listen", "", "HTTP listen address (overrides config)")
	migrate := flag.Bool("migrate", false, "Apply embedded migrations to the configured databases")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *listenAddr != "" {
		cfg.HTTP.ListenAddr = *listenAddr
	}
	if *migrate {
		cfg.Ledger.Migrate = true
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// Match GOMAXPROCS to the container CPU quota
	undo, err := maxprocs.Set(maxprocs.Logger(logger.Sugar().Infof))
	defer undo()
	if err != nil {
		logger.Warn("failed to set GOMAXPROCS", zap.Error(err))
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open backends: %w", err)
	}
	defer b.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics("dex_markets", reg)

	server := api.NewServer(cfg.HTTP.ListenAddr, b.Service(metrics), logger,
		api.WithMetrics(metrics),
		api.WithStreamInterval(cfg.HTTP.StreamInterval),
		api.WithRequestTimeout(cfg.HTTP.RequestTimeout),
	)

	// Channel to signal completion
	done := make(chan struct{})
	defer close(done)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down", zap.Stringer("signal", sig))
			cancel()
		case <-done:
			return
		}

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Warn("received second signal, forcing exit", zap.Stringer("signal", sig))
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Warn("graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	return server.Start(ctx)
}
