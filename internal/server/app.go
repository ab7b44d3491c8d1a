// Package server initializes and runs the sync server: it selects the
// persistence backend, wires the engine and blob services, and handles
// graceful shutdown.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dpetrovs/localsync/internal/common"
	"github.com/dpetrovs/localsync/internal/logging"
	"github.com/dpetrovs/localsync/internal/server/api"
	"github.com/dpetrovs/localsync/internal/server/config"
	"github.com/dpetrovs/localsync/internal/server/repositories/repomanager"
	"github.com/dpetrovs/localsync/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	repo   repomanager.RepositoryManager
	server *api.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout)

	rm, err := initRepositoryManager(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	ss := services.NewSyncService(rm.Records(), rm.Durable(), cfg, logger)
	bs := services.NewBlobService(cfg, logger)
	srv := api.NewServer(cfg, logger, ss, bs)

	return &App{config: cfg, logger: logger, repo: rm, server: srv}, nil
}

// initRepositoryManager picks the backend. A configured DSN means
// PostgreSQL with migrations applied up front; otherwise the in-memory
// substitute, unless the config demands durable storage.
func initRepositoryManager(ctx context.Context, cfg *config.Config, logger logging.Logger) (repomanager.RepositoryManager, error) {
	if cfg.DatabaseDSN != "" {
		rm, err := repomanager.NewPostgresRepositoryManager(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		if err := rm.RunMigrations(ctx); err != nil {
			return nil, fmt.Errorf("migration error: %w", err)
		}
		return rm, nil
	}

	if cfg.RequireDurable {
		return nil, common.ErrNotDurable
	}

	logger.Warn(ctx, "no database configured, state is process-local and will not survive a restart")
	return repomanager.NewInMemoryRepositoryManager(), nil
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

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	err := app.server.Run(ctx)

	if cerr := app.repo.Close(); cerr != nil {
		app.logger.Error(ctx, "error closing repository", "error", cerr)
	}

	return err
}
