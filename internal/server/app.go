// Package server wires the ledger application together: configuration,
// storage backend, services, the HTTP API, and graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/verarta/artledger/internal/logging"
	"github.com/verarta/artledger/internal/server/config"
	"github.com/verarta/artledger/internal/server/httpapi"
	"github.com/verarta/artledger/internal/server/repositories/memstore"
	"github.com/verarta/artledger/internal/server/repositories/repomanager"
	"github.com/verarta/artledger/internal/server/services"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	store  repomanager.Store
	server *httpapi.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	store, err := newStore(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("store init error: %w", err)
	}

	quota := services.NewQuotaService(store, logger)
	ledger := services.NewLedgerService(store, quota, logger)
	escrow := services.NewEscrowService(store, logger)
	audit := services.NewAuditService(store, logger)
	archive := services.NewArchiveService(store, cfg, logger)

	srv := httpapi.NewServer(cfg, ledger, quota, escrow, audit, archive)

	return &App{config: cfg, logger: logger, store: store, server: srv}, nil
}

// newStore selects the storage backend from the DSN. The "memory:" scheme
// yields the in-memory store used in development and tests.
func newStore(dsn string) (repomanager.Store, error) {
	if dsn == "memory:" {
		return memstore.NewMemoryStore(), nil
	}
	return repomanager.NewPostgresStore(dsn)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app", "addr", app.config.EndpointAddrHTTP)

	if err := app.store.RunMigrations(ctx); err != nil {
		return fmt.Errorf("migrations error: %w", err)
	}

	app.initSignalHandler(cancelFunc)

	errCh := make(chan error, 1)
	go func() {
		if err := app.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(shutdownCtx, "server shutdown error", "error", err.Error())
	}
	if err := app.store.Close(); err != nil {
		app.logger.Error(shutdownCtx, "store close error", "error", err.Error())
	}

	return nil
}
