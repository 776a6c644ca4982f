// Package main provides the entry point for the employees API service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/devrev/employees-api/internal/config"
	"github.com/devrev/employees-api/internal/health"
	"github.com/devrev/employees-api/internal/metrics"
	"github.com/devrev/employees-api/internal/server"
	"github.com/devrev/employees-api/internal/service"
	"github.com/devrev/employees-api/internal/storage/remote"
	"github.com/devrev/employees-api/internal/storage/scratch"
	"github.com/devrev/employees-api/internal/storage/spreadsheet"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	printConfig := flag.Bool("print-config", false, "print the effective configuration and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if *printConfig {
		out, err := cfg.YAML()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		os.Stdout.Write(out)
		return
	}

	logger := initLogger(cfg.Logging)
	defer logger.Sync()

	logger.Info("starting employees API",
		zap.Int("server_port", cfg.Server.Port),
		zap.String("file_path", cfg.Storage.FilePath),
		zap.String("object_name", cfg.Remote.ObjectName),
		zap.Bool("remote_configured", cfg.Remote.Endpoint != "" && cfg.Remote.Bucket != ""),
	)

	// Initialize metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(registry)

	// Storage
	tmp := scratch.New(cfg.Storage.ScratchDir)
	syncer := remote.NewSyncer(cfg.Remote.ObjectName, cfg.Storage.FilePath, tmp, remote.S3Opener(cfg.Remote), m, logger)
	store := spreadsheet.NewStore(cfg.Storage.FilePath, cfg.Storage.SheetName, tmp, syncer, m, logger)
	employees := service.NewEmployeeService(store, &sync.Mutex{}, logger)

	// Pull the latest copy before serving; a failure only means we start
	// from whatever is on disk.
	if res := syncer.Download(context.Background()); !res.OK {
		logger.Warn("startup download skipped", zap.String("result", res.Label()))
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	healthCheck := health.NewHealthCheck(func(ctx context.Context) error {
		_, err := store.Read(ctx)
		return err
	}, m, logger)
	if err := healthCheck.Check(ctx); err != nil {
		logger.Error("spreadsheet is not readable", zap.Error(err))
	}
	go healthCheck.Run(ctx)

	// Start metrics server if enabled
	var metricsServer *metrics.MetricsServer
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewMetricsServer(cfg.Metrics.Port, cfg.Metrics.Path, registry, logger)
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.Error("metrics server error", zap.Error(err))
			}
		}()
	}

	httpServer := server.NewServer(cfg, employees, healthCheck, m, logger)

	errChan := make(chan error, 1)
	go func() {
		if err := httpServer.Start(); err != nil {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		logger.Error("server error", zap.Error(err))
	}

	logger.Info("initiating graceful shutdown")
	healthCheck.Drain()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", zap.Error(err))
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown metrics server", zap.Error(err))
		}
	}

	logger.Info("employees API shutdown complete")
}

// initLogger initializes the zap logger.
func initLogger(cfg config.LoggingConfig) *zap.Logger {
	var level zapcore.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zcfg zap.Config
	if cfg.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}

	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.OutputPaths = []string{"stdout"}
	zcfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := zcfg.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}
