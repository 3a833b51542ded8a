package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/auth"
	"fintrack/internal/backend"
	"fintrack/internal/budget"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	apphttp "fintrack/internal/http"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := cli.LoadEnvFile(); err != nil {
		cli.SetupLogger("info", log.ComponentApp).Error("Failed to load .env file", log.FieldError, err)
		os.Exit(1)
	}

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.SetupLogger("info", log.ComponentApp).Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentApp)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := cli.SignalContext(context.Background(), logger)
	defer stop()

	be, err := backend.New(ctx, cfg, logger.WithComponent(log.ComponentBackend).Slog())
	if err != nil {
		return err
	}
	defer func() {
		if err := be.Cleanup(); err != nil {
			logger.Warn("Backend cleanup failed", log.FieldError, err)
		}
	}()

	ledgerOpts := []ledger.Option{
		ledger.WithStartingBalance(cfg.StartingBalance),
		ledger.WithLogger(logger.WithComponent(log.ComponentLedger).Slog()),
	}
	if cfg.LegacyEditTotals {
		logger.Warn("Legacy edit totals enabled, edits will inflate running totals")
		ledgerOpts = append(ledgerOpts, ledger.WithLegacyEditTotals())
	}

	finance := services.NewFinanceService(
		ledger.NewStore(be.Store, ledgerOpts...),
		budget.NewStore(be.Store, logger.WithComponent(log.ComponentBudget).Slog()),
		services.WithNotifier(be.Notifier),
		services.WithCurrencySymbol(cfg.CurrencySymbol),
	)
	authSvc := auth.NewService(be.Store,
		auth.WithSessionTTL(cfg.SessionTTL),
		auth.WithLogger(logger.WithComponent(log.ComponentAuth).Slog()),
	)

	srv := apphttp.NewServer(cfg.Addr(), finance, authSvc,
		apphttp.WithLogger(logger),
		apphttp.WithReadiness(be.Ready),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting fintrack server",
			"port", cfg.Port, "backend", cfg.DataBackend, "alerts_published", be.AlertsPublished)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
			return err
		}
		m := srv.Metrics()
		logger.Info("HTTP server stopped",
			"total_requests", m.TotalRequests, "server_errors", m.ServerErrors)
		return nil
	})
	return g.Wait()
}
