// Package services содержит бизнес-логику жизненного цикла кредитов:
// выдачу по заявке, фиксацию платежей и периодический проход,
// продвигающий конечный автомат статусов с начислением штрафов.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/credit-risk-engine/internal/lib/month"
	"github.com/magabrotheeeer/credit-risk-engine/internal/lib/sl"
	"github.com/magabrotheeeer/credit-risk-engine/internal/metrics"
	"github.com/magabrotheeeer/credit-risk-engine/internal/models"
)

// LoanRepository определяет методы хранилища кредитов и заявок.
type LoanRepository interface {
	GetLoanRequest(ctx context.Context, id int) (*models.LoanRequest, error)
	MarkLoanRequestSolved(ctx context.Context, id int) error
	CreateLoan(ctx context.Context, loan models.Loan) (int, error)
	GetLoan(ctx context.Context, id int) (*models.Loan, error)
	ListAllLoans(ctx context.Context) ([]*models.Loan, error)
	ListLoansByUser(ctx context.Context, cnp string) ([]*models.Loan, error)
	UpdateLoanState(ctx context.Context, id int, status models.LoanStatus, penalty float64) error
	IncrementLoanPayment(ctx context.Context, id int, paid float64) error
	DeleteLoan(ctx context.Context, id int) error
}

// UserRepository определяет доступ к скорингу пользователей.
type UserRepository interface {
	GetUser(ctx context.Context, cnp string) (*models.User, error)
	UpdateCreditScore(ctx context.Context, cnp string, score int) error
}

// HistoryRecorder записывает суточные срезы кредитного рейтинга.
type HistoryRecorder interface {
	UpsertCreditScoreHistory(ctx context.Context, cnp string, date time.Time, score int) error
}

// CreditScoreCalculator вычисляет новый кредитный рейтинг пользователя
// при завершении или просрочке кредита. Формула внешняя по отношению
// к движку и внедряется при сборке сервиса.
type CreditScoreCalculator func(user *models.User, loan *models.Loan) int

// Границы рейтинга для формулы завершения кредита.
const (
	completionScoreMin = 100
	completionScoreMax = 850
)

// DefaultCreditScoreCalculator — формула по умолчанию: бонус за
// завершение без штрафа, вычет накопленного штрафа либо фиксированный
// вычет за просрочку. Результат зажимается в [100, 850].
func DefaultCreditScoreCalculator(user *models.User, loan *models.Loan) int {
	score := user.CreditScore
	switch loan.Status {
	case models.LoanStatusCompleted:
		if loan.Penalty > 0 {
			score -= int(loan.Penalty)
		} else {
			score += 20
		}
	case models.LoanStatusOverdue:
		score -= 50
	case models.LoanStatusActive:
		// Активный кредит рейтинг не меняет
	}
	if score < completionScoreMin {
		return completionScoreMin
	}
	if score > completionScoreMax {
		return completionScoreMax
	}
	return score
}

// LoanService реализует жизненный цикл кредитов.
type LoanService struct {
	loans                 LoanRepository
	users                 UserRepository
	history               HistoryRecorder
	computeNewCreditScore CreditScoreCalculator
	now                   func() time.Time
	log                   *slog.Logger
}

// NewLoanService создает новый экземпляр LoanService.
// Если calc равен nil, используется DefaultCreditScoreCalculator.
func NewLoanService(loans LoanRepository, users UserRepository, history HistoryRecorder,
	calc CreditScoreCalculator, log *slog.Logger) *LoanService {
	if calc == nil {
		calc = DefaultCreditScoreCalculator
	}
	return &LoanService{
		loans:                 loans,
		users:                 users,
		history:               history,
		computeNewCreditScore: calc,
		now:                   time.Now,
		log:                   log,
	}
}

// AddLoan выдаёт кредит по заявке: считает ставку из соотношения
// riskScore/creditScore, срок в полных месяцах и ежемесячный платёж,
// создаёт кредит в статусе active и помечает заявку решённой.
func (s *LoanService) AddLoan(ctx context.Context, requestID int) (int, error) {
	const op = "services.loan.AddLoan"

	req, err := s.loans.GetLoanRequest(ctx, requestID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if req.Status == models.LoanRequestSolved {
		return 0, fmt.Errorf("%s: loan request %d already solved", op, requestID)
	}

	user, err := s.users.GetUser(ctx, req.UserCNP)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if user.CreditScore <= 0 {
		return 0, fmt.Errorf("%s: user %s has non-positive credit score", op, user.CNP)
	}

	numberOfMonths := month.WholeMonthsBetween(req.ApplicationDate, req.RepaymentDate)
	if numberOfMonths <= 0 {
		return 0, fmt.Errorf("%s: repayment date must be at least one month after application", op)
	}

	interestRate := float64(user.RiskScore) / float64(user.CreditScore) * 100
	monthlyPayment := req.Amount * (1 + interestRate/100) / float64(numberOfMonths)

	loan := models.Loan{
		UserCNP:                  req.UserCNP,
		Amount:                   req.Amount,
		ApplicationDate:          req.ApplicationDate,
		RepaymentDate:            req.RepaymentDate,
		InterestRate:             interestRate,
		NumberOfMonths:           numberOfMonths,
		MonthlyPaymentAmount:     monthlyPayment,
		MonthlyPaymentsCompleted: 0,
		RepaidAmount:             0,
		Penalty:                  0,
		Status:                   models.LoanStatusActive,
	}

	id, err := s.loans.CreateLoan(ctx, loan)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("created new loan", slog.Int("id", id), slog.String("user", req.UserCNP),
		slog.Float64("interest_rate", interestRate))

	if err := s.loans.MarkLoanRequestSolved(ctx, requestID); err != nil {
		s.log.Warn("failed to mark loan request solved", slog.Int("request_id", requestID), sl.Err(err))
	}

	return id, nil
}

// CheckLoans выполняет пакетный проход по всем кредитам. Ошибки отдельных
// кредитов собираются в отчёт и не прерывают обработку остальных;
// отмена контекста останавливает проход между кредитами.
func (s *LoanService) CheckLoans(ctx context.Context) (*models.SweepReport, error) {
	const op = "services.loan.CheckLoans"

	report := &models.SweepReport{
		RunID:     uuid.New().String(),
		StartedAt: s.now(),
	}
	timer := time.Now()
	defer func() {
		metrics.SweepDuration.WithLabelValues("loans").Observe(time.Since(timer).Seconds())
	}()

	loans, err := s.loans.ListAllLoans(ctx)
	if err != nil {
		return report, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("starting loan sweep", slog.String("run_id", report.RunID),
		slog.Int("loans", len(loans)))

	for _, loan := range loans {
		select {
		case <-ctx.Done():
			return report, fmt.Errorf("%s: %w", op, ctx.Err())
		default:
		}

		if err := s.checkLoan(ctx, loan, report); err != nil {
			s.log.Error("failed to process loan", slog.Int("loan_id", loan.ID), sl.Err(err))
			report.AddError(strconv.Itoa(loan.ID), err)
			metrics.SweepItemsFailed.WithLabelValues("loans").Inc()
			continue
		}
		report.Processed++
		metrics.SweepItemsProcessed.WithLabelValues("loans").Inc()
	}

	s.log.Info("loan sweep finished", slog.String("run_id", report.RunID),
		slog.Int("processed", report.Processed), slog.Int("failed", report.Failed))
	return report, nil
}

// checkLoan продвигает один кредит по конечному автомату статусов.
func (s *LoanService) checkLoan(ctx context.Context, loan *models.Loan, report *models.SweepReport) error {
	today := s.now()
	wasOverdue := loan.Status == models.LoanStatusOverdue
	penalty := 0.0

	if loan.MonthlyPaymentsCompleted >= loan.NumberOfMonths {
		// Все платежи внесены: терминальный статус и пересчёт рейтинга
		loan.Status = models.LoanStatusCompleted
		if err := s.updateUserScore(ctx, loan, wasOverdue, today); err != nil {
			return err
		}
	} else {
		monthsPassed := month.WholeMonthsBetween(loan.ApplicationDate, today)
		if monthsPassed > loan.MonthlyPaymentsCompleted {
			overdueDays := month.OverdueDays(loan.ApplicationDate, loan.MonthlyPaymentsCompleted, today)
			penalty = 0.1 * float64(overdueDays)
		}

		if today.After(loan.RepaymentDate) && loan.Status == models.LoanStatusActive {
			loan.Status = models.LoanStatusOverdue
			loan.Penalty = penalty
			if err := s.updateUserScore(ctx, loan, true, today); err != nil {
				return err
			}
			report.Overdue++
			metrics.LoansOverdue.Inc()
		}
	}

	if loan.Status == models.LoanStatusCompleted {
		if err := s.loans.DeleteLoan(ctx, loan.ID); err != nil {
			return err
		}
		report.Completed++
		metrics.LoansCompleted.Inc()
		return nil
	}
	return s.loans.UpdateLoanState(ctx, loan.ID, loan.Status, penalty)
}

// updateUserScore пересчитывает и сохраняет рейтинг владельца кредита.
// Срез истории пишется для перехода в overdue и для завершения
// кредита, ранее бывшего просроченным.
func (s *LoanService) updateUserScore(ctx context.Context, loan *models.Loan, withHistory bool, today time.Time) error {
	user, err := s.users.GetUser(ctx, loan.UserCNP)
	if err != nil {
		return err
	}
	newScore := s.computeNewCreditScore(user, loan)
	if err := s.users.UpdateCreditScore(ctx, user.CNP, newScore); err != nil {
		return err
	}
	if withHistory {
		if err := s.history.UpsertCreditScoreHistory(ctx, user.CNP, today, newScore); err != nil {
			return err
		}
	}
	return nil
}

// IncrementMonthlyPaymentsCompleted фиксирует очередной платёж по кредиту:
// счётчик платежей увеличивается на единицу, к возвращённой сумме
// прибавляется ежемесячный платёж плюс переданный штраф.
func (s *LoanService) IncrementMonthlyPaymentsCompleted(ctx context.Context, loanID int, penalty float64) error {
	const op = "services.loan.IncrementMonthlyPaymentsCompleted"

	loan, err := s.loans.GetLoan(ctx, loanID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	paid := loan.MonthlyPaymentAmount + penalty
	if err := s.loans.IncrementLoanPayment(ctx, loanID, paid); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("loan payment recorded", slog.Int("loan_id", loanID), slog.Float64("paid", paid))
	return nil
}

// ListLoans возвращает кредиты пользователя.
func (s *LoanService) ListLoans(ctx context.Context, cnp string) ([]*models.Loan, error) {
	const op = "services.loan.ListLoans"
	loans, err := s.loans.ListLoansByUser(ctx, cnp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return loans, nil
}
