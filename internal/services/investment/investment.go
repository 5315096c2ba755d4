// Package services содержит инвестиционный контур скоринга: пересчёт
// рейтинга рискованности по торговой активности, пересчёт ROI по
// закрытым позициям и производный от них пересчёт кредитного рейтинга.
// Все три прохода идемпотентны и безопасны для повторного запуска.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/credit-risk-engine/internal/lib/sl"
	"github.com/magabrotheeeer/credit-risk-engine/internal/metrics"
	"github.com/magabrotheeeer/credit-risk-engine/internal/models"
)

// Параметры прохода пересчёта рейтинга рискованности.
const (
	riskWindowDays    = 7
	lossRateThreshold = 0.35
	riskStep          = 5

	lowActivityPerDay  = 2.0
	highActivityPerDay = 5.0

	lowInvestedRatio  = 0.10
	highInvestedRatio = 0.30
)

// Границы рейтингов инвестиционного контура.
const (
	riskScoreMin = 1
	riskScoreMax = 100

	investmentCreditMin = 100
	investmentCreditMax = 700
)

// Время жизни кешированной сводки портфелей.
const portfolioCacheTTL = 5 * time.Minute

const portfolioCacheKey = "portfolio:summary"

// InvestmentRepository определяет доступ к торговым позициям.
type InvestmentRepository interface {
	ListInvestmentsByUser(ctx context.Context, cnp string) ([]*models.Investment, error)
	CloseInvestment(ctx context.Context, id int, investorCNP string, amountReturned decimal.Decimal) error
}

// UserRepository определяет доступ к скорингу пользователей.
type UserRepository interface {
	GetUser(ctx context.Context, cnp string) (*models.User, error)
	ListUserCNPs(ctx context.Context) ([]string, error)
	UpdateRiskScore(ctx context.Context, cnp string, riskScore int) error
	UpdateROI(ctx context.Context, cnp string, roi decimal.Decimal) error
	UpdateCreditScore(ctx context.Context, cnp string, score int) error
}

// Cache описывает методы для кеширования сводок.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// InvestmentService реализует инвестиционный контур скоринга.
type InvestmentService struct {
	investments InvestmentRepository
	users       UserRepository
	cache       Cache
	now         func() time.Time
	log         *slog.Logger
}

// NewInvestmentService создает новый экземпляр InvestmentService.
func NewInvestmentService(investments InvestmentRepository, users UserRepository,
	cache Cache, log *slog.Logger) *InvestmentService {
	return &InvestmentService{
		investments: investments,
		users:       users,
		cache:       cache,
		now:         time.Now,
		log:         log,
	}
}

// sweepUsers обходит всех пользователей, изолируя ошибки отдельных
// записей в отчёте прохода. Отмена контекста останавливает проход.
func (s *InvestmentService) sweepUsers(ctx context.Context, sweepName string,
	perUser func(ctx context.Context, cnp string) error) (*models.SweepReport, error) {
	op := "services.investment." + sweepName

	report := &models.SweepReport{
		RunID:     uuid.New().String(),
		StartedAt: s.now(),
	}
	timer := time.Now()
	defer func() {
		metrics.SweepDuration.WithLabelValues(sweepName).Observe(time.Since(timer).Seconds())
	}()

	cnps, err := s.users.ListUserCNPs(ctx)
	if err != nil {
		return report, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("starting investment sweep", slog.String("sweep", sweepName),
		slog.String("run_id", report.RunID), slog.Int("users", len(cnps)))

	for _, cnp := range cnps {
		select {
		case <-ctx.Done():
			return report, fmt.Errorf("%s: %w", op, ctx.Err())
		default:
		}

		if err := perUser(ctx, cnp); err != nil {
			s.log.Error("failed to process user", slog.String("sweep", sweepName),
				slog.String("user", cnp), sl.Err(err))
			report.AddError(cnp, err)
			metrics.SweepItemsFailed.WithLabelValues(sweepName).Inc()
			continue
		}
		report.Processed++
		metrics.SweepItemsProcessed.WithLabelValues(sweepName).Inc()
	}

	s.log.Info("investment sweep finished", slog.String("sweep", sweepName),
		slog.String("run_id", report.RunID),
		slog.Int("processed", report.Processed), slog.Int("failed", report.Failed))
	return report, nil
}

// CalculateAndUpdateRiskScore пересчитывает рейтинг рискованности всех
// пользователей по торговой активности за семидневное окно от их
// последней сделки.
func (s *InvestmentService) CalculateAndUpdateRiskScore(ctx context.Context) (*models.SweepReport, error) {
	return s.sweepUsers(ctx, "investment_risk", s.updateRiskScoreForUser)
}

func (s *InvestmentService) updateRiskScoreForUser(ctx context.Context, cnp string) error {
	investments, err := s.investments.ListInvestmentsByUser(ctx, cnp)
	if err != nil {
		return err
	}
	if len(investments) == 0 {
		return nil
	}
	user, err := s.users.GetUser(ctx, cnp)
	if err != nil {
		return err
	}

	change := RiskScoreChange(investments, user.Income)
	newRisk := user.RiskScore + change
	if newRisk < riskScoreMin {
		newRisk = riskScoreMin
	}
	if newRisk > riskScoreMax {
		newRisk = riskScoreMax
	}
	if newRisk == user.RiskScore {
		return nil
	}
	return s.users.UpdateRiskScore(ctx, cnp, newRisk)
}

// RiskScoreChange считает смещение рейтинга рискованности по трём
// сигналам: доле убыточных сделок, частоте торговли и отношению
// вложений к доходу. Окно — riskWindowDays от последней сделки.
func RiskScoreChange(investments []*models.Investment, income int) int {
	latest := investments[0].InvestmentDate
	for _, inv := range investments {
		if inv.InvestmentDate.After(latest) {
			latest = inv.InvestmentDate
		}
	}
	windowStart := latest.AddDate(0, 0, -riskWindowDays)

	var recent []*models.Investment
	for _, inv := range investments {
		if !inv.InvestmentDate.Before(windowStart) {
			recent = append(recent, inv)
		}
	}

	profitable := 0
	closed := 0
	totalInvested := decimal.Zero
	tradingDays := map[string]struct{}{}
	for _, inv := range recent {
		totalInvested = totalInvested.Add(inv.AmountInvested)
		tradingDays[inv.InvestmentDate.Format("2006-01-02")] = struct{}{}
		if inv.IsOpen() {
			continue
		}
		closed++
		if inv.IsProfitable() {
			profitable++
		}
	}

	change := 0
	if closed > 0 {
		lossRate := float64(closed-profitable) / float64(closed)
		if lossRate > lossRateThreshold {
			change += len(recent) * riskStep
		} else {
			change -= profitable * riskStep
		}
	}

	avgTradesPerDay := float64(len(tradingDays)) / float64(riskWindowDays)
	if avgTradesPerDay < lowActivityPerDay {
		change -= riskStep
	} else if avgTradesPerDay > highActivityPerDay {
		change += riskStep
	}

	if income > 0 {
		investedRatio, _ := totalInvested.Div(decimal.NewFromInt(int64(income))).Float64()
		if investedRatio < lowInvestedRatio {
			change -= riskStep
		} else if investedRatio > highInvestedRatio {
			change += riskStep
		}
	}

	return change
}

// CalculateAndUpdateROI пересчитывает ROI всех пользователей по их
// закрытым позициям. Без закрытых позиций или при нулевом вложенном
// капитале ROI равен 1 — нейтральному значению, не влияющему
// на кредитный рейтинг.
func (s *InvestmentService) CalculateAndUpdateROI(ctx context.Context) (*models.SweepReport, error) {
	return s.sweepUsers(ctx, "investment_roi", s.updateROIForUser)
}

func (s *InvestmentService) updateROIForUser(ctx context.Context, cnp string) error {
	investments, err := s.investments.ListInvestmentsByUser(ctx, cnp)
	if err != nil {
		return err
	}
	roi := ComputeROI(investments)
	return s.users.UpdateROI(ctx, cnp, roi)
}

// ComputeROI возвращает отношение возвращённого капитала к вложенному
// по закрытым позициям; 1 при их отсутствии либо нулевых вложениях.
func ComputeROI(investments []*models.Investment) decimal.Decimal {
	totalInvested := decimal.Zero
	totalReturned := decimal.Zero
	closed := 0
	for _, inv := range investments {
		if inv.IsOpen() {
			continue
		}
		closed++
		totalInvested = totalInvested.Add(inv.AmountInvested)
		totalReturned = totalReturned.Add(*inv.AmountReturned)
	}
	if closed == 0 || totalInvested.IsZero() {
		return decimal.NewFromInt(1)
	}
	return totalReturned.Div(totalInvested)
}

// CreditScoreUpdateInvestmentsBased пересчитывает кредитный рейтинг всех
// пользователей из их рейтинга рискованности и ROI. Результат
// зажимается в [100, 700] — диапазон инвестиционного контура.
func (s *InvestmentService) CreditScoreUpdateInvestmentsBased(ctx context.Context) (*models.SweepReport, error) {
	return s.sweepUsers(ctx, "investment_credit", s.updateCreditScoreForUser)
}

func (s *InvestmentService) updateCreditScoreForUser(ctx context.Context, cnp string) error {
	user, err := s.users.GetUser(ctx, cnp)
	if err != nil {
		return err
	}
	newScore := InvestmentCreditScore(user.CreditScore, user.RiskScore, user.ROI)
	if newScore == user.CreditScore {
		return nil
	}
	return s.users.UpdateCreditScore(ctx, cnp, newScore)
}

// InvestmentCreditScore применяет к рейтингу вычет пропорционально
// рискованности и поправку по ROI.
func InvestmentCreditScore(creditScore, riskScore int, roi decimal.Decimal) int {
	score := float64(creditScore)
	score -= score * float64(riskScore) / 100

	roiValue, _ := roi.Float64()
	switch {
	case roiValue <= 0:
		score -= 100
	case roiValue < 1:
		score -= math.Floor(10 / roiValue)
	default:
		score += math.Floor(10 * roiValue)
	}

	result := int(score)
	if result < investmentCreditMin {
		return investmentCreditMin
	}
	if result > investmentCreditMax {
		return investmentCreditMax
	}
	return result
}

// CloseInvestment закрывает открытую позицию пользователя.
// Повторное закрытие отклоняется хранилищем и возвращается вызывающему
// как нефатальная ошибка.
func (s *InvestmentService) CloseInvestment(ctx context.Context, id int, investorCNP string, amountReturned decimal.Decimal) error {
	const op = "services.investment.CloseInvestment"

	if amountReturned.IsNegative() {
		return fmt.Errorf("%s: amount returned must not be negative", op)
	}
	if err := s.investments.CloseInvestment(ctx, id, investorCNP, amountReturned); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("investment closed", slog.Int("id", id), slog.String("user", investorCNP))

	if err := s.cache.Invalidate(portfolioCacheKey); err != nil {
		s.log.Warn("failed to invalidate portfolio cache", sl.Err(err))
	}
	return nil
}

// GetPortfolioSummary возвращает сводку портфелей всех пользователей
// хотя бы с одной позицией. Сводка кешируется.
func (s *InvestmentService) GetPortfolioSummary(ctx context.Context) ([]*models.PortfolioSummary, error) {
	const op = "services.investment.GetPortfolioSummary"

	var cached []*models.PortfolioSummary
	found, err := s.cache.Get(portfolioCacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read portfolio cache", sl.Err(err))
	}
	if found {
		return cached, nil
	}

	cnps, err := s.users.ListUserCNPs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var result []*models.PortfolioSummary
	for _, cnp := range cnps {
		investments, err := s.investments.ListInvestmentsByUser(ctx, cnp)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if len(investments) == 0 {
			continue
		}
		user, err := s.users.GetUser(ctx, cnp)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		totalInvested := decimal.Zero
		totalReturned := decimal.Zero
		for _, inv := range investments {
			totalInvested = totalInvested.Add(inv.AmountInvested)
			if !inv.IsOpen() {
				totalReturned = totalReturned.Add(*inv.AmountReturned)
			}
		}
		averageROI := decimal.Zero
		if !totalInvested.IsZero() {
			averageROI = totalReturned.Div(totalInvested)
		}
		result = append(result, &models.PortfolioSummary{
			UserCNP:       user.CNP,
			FullName:      user.FullName(),
			RiskScore:     user.RiskScore,
			TotalInvested: totalInvested,
			TotalReturned: totalReturned,
			AverageROI:    averageROI,
		})
	}

	if err := s.cache.Set(portfolioCacheKey, result, portfolioCacheTTL); err != nil {
		s.log.Warn("failed to cache portfolio summary", sl.Err(err))
	}
	return result, nil
}
