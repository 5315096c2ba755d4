// Package solve реализует HTTP-обработчик разрешения отчёта о
// неоплаченном разделении счёта.
package solve

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/credit-risk-engine/internal/api/response"
	"github.com/magabrotheeeer/credit-risk-engine/internal/lib/sl"
	"github.com/magabrotheeeer/credit-risk-engine/internal/models"
)

// Handler управляет HTTP-запросами на разрешение отчётов.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс разрешения отчёта.
type Service interface {
	SolveBillSplitReport(ctx context.Context, reportID int) error
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billsplit.solve"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyBillSplitSolve
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	if err := h.service.SolveBillSplitReport(r.Context(), req.ReportID); err != nil {
		log.Error("failed to solve bill split report", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to solve bill split report"))
		return
	}

	log.Info("bill split report solved", slog.Int("report_id", req.ReportID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"report_id": req.ReportID,
	}))
}
