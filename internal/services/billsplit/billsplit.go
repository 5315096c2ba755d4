// Package services содержит разрешение отчётов о неоплаченных долях
// общих счетов: вычисление тяжести нарушения и применение штрафа
// к кредитному рейтингу должника.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/magabrotheeeer/credit-risk-engine/internal/lib/sl"
	"github.com/magabrotheeeer/credit-risk-engine/internal/models"
)

// Срок оплаты доли счёта после исходной транзакции.
const paymentGraceDays = 30

// BillSplitRepository определяет методы хранилища для разрешения отчётов.
type BillSplitRepository interface {
	GetBillSplitReport(ctx context.Context, id int) (*models.BillSplitReport, error)
	DeleteBillSplitReport(ctx context.Context, id int) error
	SumTransactionsSince(ctx context.Context, cnp string, since time.Time) (float64, error)
}

// UserRepository определяет доступ к скорингу должника.
type UserRepository interface {
	GetUser(ctx context.Context, cnp string) (*models.User, error)
	UpdateCreditScore(ctx context.Context, cnp string, score int) error
	IncrementBillSharesPaid(ctx context.Context, cnp string) error
}

// HistoryRecorder записывает суточные срезы кредитного рейтинга.
type HistoryRecorder interface {
	UpsertCreditScoreHistory(ctx context.Context, cnp string, date time.Time, score int) error
}

// BillSplitService реализует скоринг отчётов о разделении счетов.
type BillSplitService struct {
	reports BillSplitRepository
	users   UserRepository
	history HistoryRecorder
	now     func() time.Time
	log     *slog.Logger
}

// NewBillSplitService создает новый экземпляр BillSplitService.
func NewBillSplitService(reports BillSplitRepository, users UserRepository,
	history HistoryRecorder, log *slog.Logger) *BillSplitService {
	return &BillSplitService{
		reports: reports,
		users:   users,
		history: history,
		now:     time.Now,
		log:     log,
	}
}

// Gravity вычисляет тяжесть нарушения: линейные рампы по просрочке
// и сумме доли, каждая с насыщением на 50. Отрицательное значение
// рампы по времени (просрочка 0 дней) зажимается в 0.
func Gravity(daysPastDue int, billShare float64) float64 {
	timeFactor := float64(daysPastDue-1) * 50 / 20
	if timeFactor < 0 {
		timeFactor = 0
	}
	if timeFactor > 50 {
		timeFactor = 50
	}

	amountFactor := (billShare - 1) * 50 / 999
	if amountFactor < 0 {
		amountFactor = 0
	}
	if amountFactor > 50 {
		amountFactor = 50
	}

	return timeFactor + amountFactor
}

// SolveBillSplitReport применяет штраф к рейтингу должника и удаляет отчёт.
// Если должник располагал средствами для оплаты (текущий рейтинг плюс
// сумма транзакций с даты отчёта покрывают долю), тяжесть увеличивается на 10%.
func (s *BillSplitService) SolveBillSplitReport(ctx context.Context, reportID int) error {
	const op = "services.billsplit.SolveBillSplitReport"

	report, err := s.reports.GetBillSplitReport(ctx, reportID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	user, err := s.users.GetUser(ctx, report.ReportedUserCNP)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	today := s.now()
	dueDate := report.DateOfTransaction.AddDate(0, 0, paymentGraceDays)
	daysPastDue := 0
	if today.After(dueDate) {
		daysPastDue = int(today.Sub(dueDate).Hours() / 24)
	}

	gravity := Gravity(daysPastDue, report.BillShare)

	transactionSum, err := s.reports.SumTransactionsSince(ctx, report.ReportedUserCNP, report.DateOfTransaction)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	couldHavePaid := float64(user.CreditScore)+transactionSum >= report.BillShare
	if couldHavePaid {
		gravity *= 1.10
	}

	newScore := int(math.Floor(float64(user.CreditScore) - 0.20*gravity))
	if newScore < 0 {
		newScore = 0
	}

	s.log.Info("resolved bill split report", slog.Int("report_id", reportID),
		slog.String("user", report.ReportedUserCNP),
		slog.Float64("gravity", gravity), slog.Int("new_score", newScore),
		slog.Bool("could_have_paid", couldHavePaid))

	if err := s.users.UpdateCreditScore(ctx, report.ReportedUserCNP, newScore); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.history.UpsertCreditScoreHistory(ctx, report.ReportedUserCNP, today, newScore); err != nil {
		s.log.Warn("failed to record credit score history", sl.Err(err))
	}
	if err := s.users.IncrementBillSharesPaid(ctx, report.ReportedUserCNP); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.reports.DeleteBillSplitReport(ctx, reportID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
