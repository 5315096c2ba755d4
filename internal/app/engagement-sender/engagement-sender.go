// Package engagementsender содержит приложение почтовой доставки событий
// вовлечённости из брокера.
package engagementsender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/credit-risk-engine/internal/config"
	"github.com/magabrotheeeer/credit-risk-engine/internal/lib/smtp"
	"github.com/magabrotheeeer/credit-risk-engine/internal/rabbitmq"
	engagementservice "github.com/magabrotheeeer/credit-risk-engine/internal/services/engagement"
)

// App представляет приложение почтовой доставки.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *engagementservice.SenderService
	logger        *slog.Logger
}

// New создает новый экземпляр приложения почтовой доставки.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetEngagementQueues())
	if err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			logger.Error("failed to close connection", "error", closeErr)
		}
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	transport := smtp.NewTransport(cfg, logger)
	senderService := engagementservice.NewSenderService(transport, logger)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		logger:        logger,
	}, nil
}

// Run подписывается на очереди событий и работает до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	if err := rabbitmq.ConsumerMessage(ctx, a.ch, "engagement.tips", a.senderService.SendTipNotification); err != nil {
		a.logger.Error("failed to start engagement.tips consumer", slog.Any("err", err))
		return err
	}

	if err := rabbitmq.ConsumerMessage(ctx, a.ch, "engagement.punishments", a.senderService.SendPunishmentNotification); err != nil {
		a.logger.Error("failed to start engagement.punishments consumer", slog.Any("err", err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("engagement sender shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}

	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}

	return nil
}
