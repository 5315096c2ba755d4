// Package loansweeper содержит приложение периодического обхода кредитов.
package loansweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/credit-risk-engine/internal/config"
	loanservice "github.com/magabrotheeeer/credit-risk-engine/internal/services/loan"
	schedulerservice "github.com/magabrotheeeer/credit-risk-engine/internal/services/scheduler"
	"github.com/magabrotheeeer/credit-risk-engine/internal/storage/repository"
)

// App представляет приложение обхода кредитов.
type App struct {
	scheduler *schedulerservice.SchedulerService
	interval  time.Duration
	db        *repository.Storage
	logger    *slog.Logger
}

func waitForDB(db *repository.Storage) error {
	for range 10 {
		err := repository.CheckDatabaseReady(db)
		if err == nil {
			return nil
		}
		time.Sleep(3 * time.Second)
	}
	return fmt.Errorf("database not ready after retries")
}

// New создает новый экземпляр приложения обхода кредитов.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err := waitForDB(db); err != nil {
		return nil, err
	}

	loanService := loanservice.NewLoanService(db, db, db, nil, logger)
	scheduler := schedulerservice.NewSchedulerService(loanService, nil, logger)

	return &App{
		scheduler: scheduler,
		interval:  cfg.LoanSweepInterval,
		db:        db,
		logger:    logger,
	}, nil
}

// Run гоняет обход кредитов до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	a.scheduler.RunLoanSweep(ctx, a.interval)

	a.logger.Info("shutting down loan sweeper")
	if err := a.db.DB.Close(); err != nil {
		a.logger.Error("failed to close storage", "error", err)
	}
	return nil
}
