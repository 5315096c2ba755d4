// Package investmentsweeper содержит приложение периодического пересчёта
// инвестиционного скоринга.
package investmentsweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/credit-risk-engine/internal/cache"
	"github.com/magabrotheeeer/credit-risk-engine/internal/config"
	investmentservice "github.com/magabrotheeeer/credit-risk-engine/internal/services/investment"
	schedulerservice "github.com/magabrotheeeer/credit-risk-engine/internal/services/scheduler"
	"github.com/magabrotheeeer/credit-risk-engine/internal/storage/repository"
)

// App представляет приложение инвестиционного пересчёта.
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

// New создает новый экземпляр приложения инвестиционного пересчёта.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err := waitForDB(db); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	investmentService := investmentservice.NewInvestmentService(db, db, cacheRedis, logger)
	scheduler := schedulerservice.NewSchedulerService(nil, investmentService, logger)

	return &App{
		scheduler: scheduler,
		interval:  cfg.InvestmentSweepInterval,
		db:        db,
		logger:    logger,
	}, nil
}

// Run гоняет инвестиционные проходы до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	a.scheduler.RunInvestmentSweep(ctx, a.interval)

	a.logger.Info("shutting down investment sweeper")
	if err := a.db.DB.Close(); err != nil {
		a.logger.Error("failed to close storage", "error", err)
	}
	return nil
}
