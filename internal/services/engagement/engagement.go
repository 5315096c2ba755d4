// Package services содержит подсистему вовлечённости: выдачу финансовых
// советов и уведомлений о наказаниях. Сервис фиксирует выданный совет в
// хранилище и публикует событие в брокер, откуда его забирает отправитель
// почтовых уведомлений.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/magabrotheeeer/credit-risk-engine/internal/models"
	"github.com/magabrotheeeer/credit-risk-engine/internal/rabbitmq"
)

// financialTips — каталог советов, выдаваемых случайным образом.
var financialTips = []string{
	"Откладывайте не менее десяти процентов дохода до остальных трат.",
	"Погашайте кредит с наибольшей ставкой в первую очередь.",
	"Держите подушку безопасности на три месяца расходов.",
	"Не инвестируйте деньги, потеря которых для вас критична.",
	"Сверяйте выписку по счёту хотя бы раз в неделю.",
	"Оплачивайте общие счета сразу, пока сумма не обросла штрафами.",
	"Перед крупной покупкой выждите сутки и пересчитайте бюджет.",
}

// TipRepository определяет учёт выданных советов.
type TipRepository interface {
	RecordTip(ctx context.Context, cnp, tip string) error
	CountTipsForUser(ctx context.Context, cnp string) (int, error)
}

// UserProvider отдаёт данные получателя уведомления.
type UserProvider interface {
	GetUser(ctx context.Context, cnp string) (*models.User, error)
}

// Publisher публикует событие в обменник брокера.
type Publisher interface {
	Publish(exchange, routingKey string, message any) error
}

// EngagementService выдаёт советы и сообщения пользователям.
type EngagementService struct {
	tips      TipRepository
	users     UserProvider
	publisher Publisher
	pickTip   func() string
	now       func() time.Time
	log       *slog.Logger
}

// NewEngagementService создает новый экземпляр EngagementService.
func NewEngagementService(tips TipRepository, users UserProvider,
	publisher Publisher, log *slog.Logger) *EngagementService {
	return &EngagementService{
		tips:      tips,
		users:     users,
		publisher: publisher,
		pickTip: func() string {
			return financialTips[rand.Intn(len(financialTips))]
		},
		now: time.Now,
		log: log,
	}
}

// GiveRandomTip выдаёт пользователю случайный совет: фиксирует его в
// хранилище и публикует событие для почтовой рассылки.
func (s *EngagementService) GiveRandomTip(ctx context.Context, cnp string) error {
	const op = "services.engagement.GiveRandomTip"

	user, err := s.users.GetUser(ctx, cnp)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tip := s.pickTip()
	if err := s.tips.RecordTip(ctx, cnp, tip); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	event := models.TipEvent{
		UserCNP:  cnp,
		Email:    user.Email,
		FullName: user.FullName(),
		Tip:      tip,
		SentAt:   s.now(),
	}
	if err := s.publisher.Publish(rabbitmq.EngagementExchange, rabbitmq.RoutingKeyTip, event); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("tip dispatched", slog.String("user", cnp))
	return nil
}

// GiveMessage публикует пользователю произвольное сообщение.
func (s *EngagementService) GiveMessage(ctx context.Context, cnp, text string) error {
	const op = "services.engagement.GiveMessage"

	user, err := s.users.GetUser(ctx, cnp)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	event := models.PunishmentEvent{
		UserCNP:  cnp,
		Email:    user.Email,
		FullName: user.FullName(),
		Message:  text,
		SentAt:   s.now(),
	}
	if err := s.publisher.Publish(rabbitmq.EngagementExchange, rabbitmq.RoutingKeyPunishment, event); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("message dispatched", slog.String("user", cnp))
	return nil
}

// CountTipsForUser возвращает число советов, выданных пользователю.
func (s *EngagementService) CountTipsForUser(ctx context.Context, cnp string) (int, error) {
	const op = "services.engagement.CountTipsForUser"

	count, err := s.tips.CountTipsForUser(ctx, cnp)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
