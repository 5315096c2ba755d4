// Package sweep реализует HTTP-обработчики ручного запуска проходов
// инвестиционного контура. Один Handler монтируется трижды, по одному
// на каждый проход.
package sweep

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/credit-risk-engine/internal/api/response"
	"github.com/magabrotheeeer/credit-risk-engine/internal/lib/sl"
	"github.com/magabrotheeeer/credit-risk-engine/internal/models"
)

// Pass идентифицирует проход инвестиционного контура.
type Pass string

const (
	// PassRisk — пересчёт рейтинга рискованности.
	PassRisk Pass = "risk"
	// PassROI — пересчёт ROI.
	PassROI Pass = "roi"
	// PassCredit — пересчёт кредитного рейтинга.
	PassCredit Pass = "credit"
)

// Handler управляет HTTP-запросами на запуск инвестиционного прохода.
type Handler struct {
	log     *slog.Logger
	service Service
	pass    Pass
}

// Service описывает интерфейс проходов инвестиционного контура.
type Service interface {
	CalculateAndUpdateRiskScore(ctx context.Context) (*models.SweepReport, error)
	CalculateAndUpdateROI(ctx context.Context) (*models.SweepReport, error)
	CreditScoreUpdateInvestmentsBased(ctx context.Context) (*models.SweepReport, error)
}

// New создает новый Handler для заданного прохода.
func New(log *slog.Logger, service Service, pass Pass) *Handler {
	return &Handler{
		log:     log,
		service: service,
		pass:    pass,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.investment.sweep"
	log := h.log.With(
		slog.String("op", op),
		slog.String("pass", string(h.pass)),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var report *models.SweepReport
	var err error
	switch h.pass {
	case PassRisk:
		report, err = h.service.CalculateAndUpdateRiskScore(r.Context())
	case PassROI:
		report, err = h.service.CalculateAndUpdateROI(r.Context())
	case PassCredit:
		report, err = h.service.CreditScoreUpdateInvestmentsBased(r.Context())
	default:
		log.Error("unknown investment pass")
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("unknown investment pass"))
		return
	}
	if err != nil {
		log.Error("investment sweep failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("investment sweep failed"))
		return
	}

	log.Info("investment sweep finished", slog.String("run_id", report.RunID),
		slog.Int("processed", report.Processed), slog.Int("failed", report.Failed))
	render.JSON(w, r, response.OKWithData(report))
}
