// Package services содержит применение штрафов за нарушения в чате:
// списание внутренней валюты, учёт нарушений и независимые
// пост-эффекты (совет, уведомление о наказании, журнал активности).
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/credit-risk-engine/internal/lib/sl"
	"github.com/magabrotheeeer/credit-risk-engine/internal/models"
)

// Базовый штраф и порог нарушений, после которого штраф растёт линейно.
const (
	basePenalty      = 15
	offenseThreshold = 3
	// Каждый третий совет сопровождается сообщением о наказании
	punishmentEvery = 3
)

// ReportRepository определяет доступ к жалобам из чата.
type ReportRepository interface {
	GetChatReport(ctx context.Context, id int) (*models.ChatReport, error)
	DeleteChatReport(ctx context.Context, id int) error
}

// GemPenalizer — способность хранилища атомарно применить штраф
// к балансу пользователя. Заменяет динамическую проверку типа
// из прежней реализации: все хранилища пользователей обязаны её уметь.
type GemPenalizer interface {
	ApplyGemPenalty(ctx context.Context, cnp string, penalty int) error
}

// UserRepository определяет доступ к пользователям.
type UserRepository interface {
	GemPenalizer
	GetUser(ctx context.Context, cnp string) (*models.User, error)
	UpsertActivityLog(ctx context.Context, cnp, activity string, amount int) error
}

// HistoryRecorder записывает суточные срезы кредитного рейтинга.
type HistoryRecorder interface {
	UpsertCreditScoreHistory(ctx context.Context, cnp string, date time.Time, score int) error
}

// EngagementDispatcher — внешняя подсистема советов и сообщений.
type EngagementDispatcher interface {
	GiveRandomTip(ctx context.Context, cnp string) error
	GiveMessage(ctx context.Context, cnp, text string) error
	CountTipsForUser(ctx context.Context, cnp string) (int, error)
}

// MisconductService применяет штрафы по жалобам из чата.
type MisconductService struct {
	reports    ReportRepository
	users      UserRepository
	history    HistoryRecorder
	engagement EngagementDispatcher
	now        func() time.Time
	log        *slog.Logger
}

// NewMisconductService создает новый экземпляр MisconductService.
func NewMisconductService(reports ReportRepository, users UserRepository,
	history HistoryRecorder, engagement EngagementDispatcher, log *slog.Logger) *MisconductService {
	return &MisconductService{
		reports:    reports,
		users:      users,
		history:    history,
		engagement: engagement,
		now:        time.Now,
		log:        log,
	}
}

// Penalty возвращает размер штрафа для пользователя с данным числом
// нарушений: фиксированные 15 ниже порога, 15 за каждое нарушение
// начиная с третьего.
func Penalty(offenses int) int {
	if offenses >= offenseThreshold {
		return basePenalty * offenses
	}
	return basePenalty
}

// PunishUser применяет штраф по жалобе. Списание валюты и учёт
// нарушения — основная мутация, её ошибка прерывает операцию.
// Остальные шаги независимы: ошибка любого из них логируется
// и не мешает выполнению следующих.
func (s *MisconductService) PunishUser(ctx context.Context, reportID int) error {
	const op = "services.misconduct.PunishUser"

	report, err := s.reports.GetChatReport(ctx, reportID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	user, err := s.users.GetUser(ctx, report.ReportedUserCNP)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	penalty := Penalty(user.NumberOfOffenses)
	if err := s.users.ApplyGemPenalty(ctx, user.CNP, penalty); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("applied misconduct penalty", slog.String("user", user.CNP),
		slog.Int("penalty", penalty), slog.Int("offenses", user.NumberOfOffenses+1))

	// Значение для истории считается от рейтинга, но сам рейтинг
	// не меняется: валютой наказания остаётся баланс гемов
	historyScore := user.CreditScore - penalty

	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"record credit score history", func(ctx context.Context) error {
			return s.history.UpsertCreditScoreHistory(ctx, user.CNP, s.now(), historyScore)
		}},
		{"delete chat report", func(ctx context.Context) error {
			return s.reports.DeleteChatReport(ctx, reportID)
		}},
		{"give random tip", func(ctx context.Context) error {
			return s.engagement.GiveRandomTip(ctx, user.CNP)
		}},
		{"send punishment message", func(ctx context.Context) error {
			count, err := s.engagement.CountTipsForUser(ctx, user.CNP)
			if err != nil {
				return err
			}
			if count == 0 || count%punishmentEvery != 0 {
				return nil
			}
			text := fmt.Sprintf("You have received a penalty of %d gems for inappropriate behaviour.", penalty)
			return s.engagement.GiveMessage(ctx, user.CNP, text)
		}},
		{"update activity log", func(ctx context.Context) error {
			return s.users.UpsertActivityLog(ctx, user.CNP, "misconduct_penalty", penalty)
		}},
	}

	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			s.log.Error("post-punishment step failed", slog.String("step", step.name),
				slog.String("user", user.CNP), sl.Err(err))
		}
	}
	return nil
}
