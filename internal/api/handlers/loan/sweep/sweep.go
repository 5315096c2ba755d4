// Package sweep реализует HTTP-обработчик ручного запуска обхода
// кредитов. Возвращает отчёт прохода с числом обработанных и
// отказавших записей.
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

// Handler управляет HTTP-запросами на запуск обхода кредитов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс обхода кредитов.
type Service interface {
	CheckLoans(ctx context.Context) (*models.SweepReport, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.loan.sweep"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	report, err := h.service.CheckLoans(r.Context())
	if err != nil {
		log.Error("loan sweep failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("loan sweep failed"))
		return
	}

	log.Info("loan sweep finished", slog.String("run_id", report.RunID),
		slog.Int("processed", report.Processed), slog.Int("failed", report.Failed))
	render.JSON(w, r, response.OKWithData(report))
}
