// Package services содержит планировщик пакетных проходов: периодический
// обход кредитов и инвестиционный пересчёт скоринга. Каждый цикл
// запускается сразу при старте и далее по тикеру до отмены контекста.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/credit-risk-engine/internal/lib/sl"
	"github.com/magabrotheeeer/credit-risk-engine/internal/models"
)

// LoanSweeper запускает обход всех кредитов.
type LoanSweeper interface {
	CheckLoans(ctx context.Context) (*models.SweepReport, error)
}

// InvestmentSweeper запускает проходы инвестиционного контура.
type InvestmentSweeper interface {
	CalculateAndUpdateRiskScore(ctx context.Context) (*models.SweepReport, error)
	CalculateAndUpdateROI(ctx context.Context) (*models.SweepReport, error)
	CreditScoreUpdateInvestmentsBased(ctx context.Context) (*models.SweepReport, error)
}

// SchedulerService управляет расписанием пакетных проходов.
type SchedulerService struct {
	loans       LoanSweeper
	investments InvestmentSweeper
	log         *slog.Logger
}

// NewSchedulerService создает новый экземпляр SchedulerService.
func NewSchedulerService(loans LoanSweeper, investments InvestmentSweeper, log *slog.Logger) *SchedulerService {
	return &SchedulerService{
		loans:       loans,
		investments: investments,
		log:         log,
	}
}

// RunLoanSweep гоняет обход кредитов с заданным интервалом до отмены
// контекста.
func (s *SchedulerService) RunLoanSweep(ctx context.Context, interval time.Duration) {
	s.runLoanSweep(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("loan sweep scheduler stopped")
			return
		case <-ticker.C:
			s.runLoanSweep(ctx)
		}
	}
}

func (s *SchedulerService) runLoanSweep(ctx context.Context) {
	s.log.Info("starting scheduled loan sweep")
	report, err := s.loans.CheckLoans(ctx)
	if err != nil {
		s.log.Error("loan sweep failed", sl.Err(err))
		return
	}
	s.log.Info("loan sweep done", slog.String("run_id", report.RunID),
		slog.Int("processed", report.Processed), slog.Int("failed", report.Failed))
}

// RunInvestmentSweep гоняет три инвестиционных прохода с заданным
// интервалом до отмены контекста. Порядок фиксированный: сначала
// рискованность, затем ROI, затем производный кредитный рейтинг.
func (s *SchedulerService) RunInvestmentSweep(ctx context.Context, interval time.Duration) {
	s.runInvestmentSweep(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("investment sweep scheduler stopped")
			return
		case <-ticker.C:
			s.runInvestmentSweep(ctx)
		}
	}
}

func (s *SchedulerService) runInvestmentSweep(ctx context.Context) {
	s.log.Info("starting scheduled investment sweep")

	passes := []struct {
		name string
		run  func(ctx context.Context) (*models.SweepReport, error)
	}{
		{"risk score", s.investments.CalculateAndUpdateRiskScore},
		{"roi", s.investments.CalculateAndUpdateROI},
		{"credit score", s.investments.CreditScoreUpdateInvestmentsBased},
	}
	for _, pass := range passes {
		report, err := pass.run(ctx)
		if err != nil {
			s.log.Error("investment pass failed", slog.String("pass", pass.name), sl.Err(err))
			continue
		}
		s.log.Info("investment pass done", slog.String("pass", pass.name),
			slog.String("run_id", report.RunID),
			slog.Int("processed", report.Processed), slog.Int("failed", report.Failed))
	}
}
