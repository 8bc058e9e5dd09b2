// Package main is the fundledgerd server binary. It wires configuration,
// the database pool, migrations, stores, services, and the HTTP router,
// then serves until SIGINT or SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/reliefline/fundledger/internal/api"
	"github.com/reliefline/fundledger/internal/config"
	"github.com/reliefline/fundledger/internal/db"
	"github.com/reliefline/fundledger/internal/db/migrations"
	"github.com/reliefline/fundledger/internal/dbpool"
	"github.com/reliefline/fundledger/internal/service"
	"github.com/reliefline/fundledger/internal/store"
)

// shutdownTimeout bounds how long in-flight requests may run after a
// termination signal before the listener is torn down.
const shutdownTimeout = 15 * time.Second

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	} else {
		log.WithField("log_level", cfg.LogLevel).Warn("unknown LOG_LEVEL, keeping info")
	}

	gin.SetMode(gin.ReleaseMode)

	if err := run(log, cfg); err != nil {
		log.WithError(err).Fatal("fundledgerd exited")
	}
}

func run(log *logrus.Logger, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := dbpool.NewPool(ctx, cfg.DatabaseURL.Value(), int32(cfg.DBMaxConns))
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           buildRouter(ctx, pool, log, cfg),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.WithFields(logrus.Fields{
			"addr":    srv.Addr,
			"version": config.Version,
			"schema":  db.SchemaVersion(),
		}).Info("fundledgerd listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}

		return nil
	})

	return g.Wait()
}

// buildRouter assembles stores, services, and handlers into the HTTP router.
func buildRouter(ctx context.Context, pool *dbpool.Pool, log *logrus.Logger, cfg *config.Config) http.Handler {
	base := store.Base{Pool: pool, Log: log}

	budgetStore := store.NewBudgetStore(base)
	ledgerStore := store.NewLedgerStore(base)
	notifyStore := store.NewNotificationStore(base)
	reconStore := store.NewReconcileStore(base)

	notifier := service.NewNotifyService(notifyStore, budgetStore, log, cfg.NotifyDedupe)
	ledgerSvc := service.NewLedgerService(budgetStore, ledgerStore, notifier, log, service.LedgerOptions{
		ReallocRatio:      cfg.ReallocRatio,
		WriteRetries:      cfg.CASMaxRetries,
		MissingBudgetZero: cfg.MissingBudgetPolicy == "zero",
	})

	deps := &api.RouterDeps{
		Log:           log,
		Pool:          pool,
		Budgets:       service.NewBudgetService(budgetStore, log),
		Ledger:        ledgerSvc,
		History:       service.NewHistoryService(ledgerStore, log),
		Imports:       service.NewImportService(ledgerSvc, log, cfg.ImportWorkers),
		Reconcile:     service.NewReconcileService(reconStore, log, cfg.ReconcileEpsilon),
		Notifications: notifier,
		APIKeys:       cfg.APIKeyValues(),
		CORSOrigins:   cfg.CORSOrigins,
		Version:       config.Version,
	}

	return api.NewRouter(ctx, deps)
}
