// Package close реализует HTTP-обработчик закрытия торговой позиции.
// Повторное закрытие той же позиции возвращает 409 Conflict.
package close

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"
	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/credit-risk-engine/internal/api/response"
	"github.com/magabrotheeeer/credit-risk-engine/internal/lib/sl"
	"github.com/magabrotheeeer/credit-risk-engine/internal/models"
	"github.com/magabrotheeeer/credit-risk-engine/internal/storage/repository"
)

// Handler управляет HTTP-запросами на закрытие позиций.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс закрытия позиции.
type Service interface {
	CloseInvestment(ctx context.Context, id int, investorCNP string, amountReturned decimal.Decimal) error
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
	const op = "handlers.investment.close"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	idStr := chi.URLParam(r, "id")
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		log.Error("invalid investment id", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid investment id"))
		return
	}

	var req models.DummyInvestmentClose
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

	amount, err := decimal.NewFromString(req.AmountReturned)
	if err != nil {
		log.Error("invalid amount returned", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid amount returned"))
		return
	}

	if err := h.service.CloseInvestment(r.Context(), id, req.InvestorCNP, amount); err != nil {
		switch {
		case errors.Is(err, repository.ErrInvestmentAlreadyClosed):
			log.Error("investment already processed", slog.Int("id", id))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("investment already processed"))
		case errors.Is(err, repository.ErrInvestmentNotFound):
			log.Error("investment not found", slog.Int("id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("investment not found"))
		default:
			log.Error("failed to close investment", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to close investment"))
		}
		return
	}

	log.Info("investment closed", slog.Int("id", id), slog.String("user", req.InvestorCNP))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"investment_id": id,
	}))
}
