// Package list реализует HTTP-обработчик получения кредитов
// пользователя.
package list

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

// Handler управляет HTTP-запросами на получение списка кредитов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс чтения кредитов пользователя.
type Service interface {
	ListLoans(ctx context.Context, cnp string) ([]*models.Loan, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.loan.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	cnp := r.URL.Query().Get("cnp")
	if cnp == "" {
		log.Error("missing cnp query parameter")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing cnp query parameter"))
		return
	}

	loans, err := h.service.ListLoans(r.Context(), cnp)
	if err != nil {
		log.Error("failed to list loans", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list loans"))
		return
	}

	log.Info("loans listed", slog.String("user", cnp), slog.Int("count", len(loans)))
	render.JSON(w, r, response.OKWithData(loans))
}
