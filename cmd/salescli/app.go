package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/config"
	"github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/infrastructure"
	"github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/operations"
	"github.com/ViennaKaggle/prudential-life-insurance-assessment/internal/store"
)

// app bundles what every subcommand needs
type app struct {
	cfg       *config.Config
	paths     *config.Paths
	logger    *slog.Logger
	providers *infrastructure.OTelProviders
	tracer    *operations.OperationTracer
	closers   []io.Closer
}

// newApp loads configuration, applies flag overrides and starts logging and telemetry
func newApp(ctx context.Context, opts *rootOptions) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.dataDir != "" {
		cfg.Paths.DataDir = opts.dataDir
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	paths := config.ResolvePaths(cfg.Paths)
	if err := paths.EnsureDirectories(); err != nil {
		return nil, err
	}
	paths.LogPathResolution()

	a := &app{cfg: cfg, paths: paths, logger: logger}

	otelCfg := infrastructure.OTelConfigFrom(cfg.Telemetry)
	if cfg.Telemetry.TraceFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Telemetry.TraceFile), 0755); err != nil {
			return nil, fmt.Errorf("failed to create trace directory: %w", err)
		}
		traceFile, err := os.OpenFile(cfg.Telemetry.TraceFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open trace file: %w", err)
		}
		otelCfg.TraceWriter = traceFile
		a.closers = append(a.closers, traceFile)
	}

	providers, err := infrastructure.InitializeOTel(ctx, otelCfg, logger)
	if err != nil {
		a.close(ctx)
		return nil, err
	}
	a.providers = providers

	tracer, err := operations.NewOperationTracer(providers)
	if err != nil {
		a.close(ctx)
		return nil, err
	}
	a.tracer = tracer
	return a, nil
}

// openStore opens the run database
func (a *app) openStore() (*store.Store, error) {
	db, err := store.Open(a.paths.DatabaseFile)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, db)
	return db, nil
}

// close pushes metrics, flushes telemetry and releases resources
func (a *app) close(ctx context.Context) {
	if a.providers != nil {
		if err := a.providers.PushMetrics(ctx); err != nil {
			a.logger.WarnContext(ctx, "metrics_push_failed", slog.String("error", err.Error()))
		}
		if err := a.providers.Shutdown(context.WithoutCancel(ctx)); err != nil {
			a.logger.WarnContext(ctx, "otel_shutdown_failed", slog.String("error", err.Error()))
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.WarnContext(ctx, "close_failed", slog.String("error", err.Error()))
		}
	}
	if err := infrastructure.CloseLogFile(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to close log file: %v\n", err)
	}
}
