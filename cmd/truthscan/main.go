package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/truthscan-ai/truthscan/internal/config"
	"github.com/truthscan-ai/truthscan/internal/redact"
	"github.com/truthscan-ai/truthscan/internal/server"
	"github.com/truthscan-ai/truthscan/internal/telemetry"
)

var version = "dev"

func main() {
	addrFlag := flag.String("addr", "", "HTTP listen address (overrides config)")
	configPath := flag.String("config", "truthscan.yaml", "Path to TruthScan config file")
	flag.Parse()

	envFile := config.LoadDotEnv()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "path", *configPath, redact.Err(err))
		os.Exit(1)
	}
	if *addrFlag != "" {
		cfg.Server.Addr = *addrFlag
	}
	if err := config.Validate(cfg); err != nil {
		slog.Error("invalid config", redact.Err(err))
		os.Exit(1)
	}

	logger := config.NewLogger(cfg.Logging, os.Stderr)
	slog.SetDefault(logger)
	if envFile != "" {
		logger.Info("loaded environment file", "path", envFile)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svcVersion := cfg.Telemetry.Version
	if svcVersion == "" {
		svcVersion = version
	}
	tel, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:  cfg.Telemetry.Enabled,
		Endpoint: cfg.Telemetry.Endpoint,
		Protocol: cfg.Telemetry.Protocol,
		Service:  cfg.Telemetry.Service,
		Version:  svcVersion,
	}, logger)
	if err != nil {
		logger.Error("failed to set up telemetry", redact.Err(err))
		os.Exit(1)
	}

	srv, err := server.New(ctx, cfg, server.Options{Logger: logger, Telemetry: tel})
	if err != nil {
		logger.Error("failed to build server", redact.Err(err))
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", redact.Err(err))
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", redact.Err(err))
	}
	tel.Shutdown(shutdownCtx)
	logger.Info("TruthScan exited")
}
