package creditriskengine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/credit-risk-engine/internal/cache"
	"github.com/magabrotheeeer/credit-risk-engine/internal/config"
	"github.com/magabrotheeeer/credit-risk-engine/internal/lib/jwt"
	"github.com/magabrotheeeer/credit-risk-engine/internal/migrations"
	"github.com/magabrotheeeer/credit-risk-engine/internal/rabbitmq"
	billsplitservice "github.com/magabrotheeeer/credit-risk-engine/internal/services/billsplit"
	engagementservice "github.com/magabrotheeeer/credit-risk-engine/internal/services/engagement"
	investmentservice "github.com/magabrotheeeer/credit-risk-engine/internal/services/investment"
	loanservice "github.com/magabrotheeeer/credit-risk-engine/internal/services/loan"
	misconductservice "github.com/magabrotheeeer/credit-risk-engine/internal/services/misconduct"
	"github.com/magabrotheeeer/credit-risk-engine/internal/storage/repository"
)

// App представляет приложение административной поверхности.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	conn   *amqp.Connection
	ch     *amqp.Channel
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

// New создает новый экземпляр приложения.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	if err := waitForDB(db); err != nil {
		return nil, err
	}
	if err := migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetEngagementQueues())
	if err != nil {
		closeResources(nil, conn, logger)
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	publisher := rabbitmq.NewChannelPublisher(ch)
	engagementService := engagementservice.NewEngagementService(db, db, publisher, logger)
	loanService := loanservice.NewLoanService(db, db, db, nil, logger)
	billSplitService := billsplitservice.NewBillSplitService(db, db, db, logger)
	misconductService := misconductservice.NewMisconductService(db, db, db, engagementService, logger)
	investmentService := investmentservice.NewInvestmentService(db, db, cacheRedis, logger)

	maker := jwt.NewMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, &Services{
		Loan:       loanService,
		BillSplit:  billSplitService,
		Misconduct: misconductService,
		Investment: investmentService,
	}, maker, db, conn, cacheRedis)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		conn:   conn,
		ch:     ch,
	}, nil
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", "error", err)
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", "error", err)
		}
	}
}

// Run запускает HTTP-сервер и останавливает его по отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		closeResources(a.ch, a.conn, a.logger)
		if closeErr := a.db.DB.Close(); closeErr != nil {
			a.logger.Error("failed to close storage", "error", closeErr)
		}
		return err
	}
}
