// Package portfolio реализует HTTP-обработчик получения сводки
// портфелей инвесторов.
package portfolio

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

// Handler управляет HTTP-запросами на получение сводки портфелей.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс чтения сводки портфелей.
type Service interface {
	GetPortfolioSummary(ctx context.Context) ([]*models.PortfolioSummary, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.investment.portfolio"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	summary, err := h.service.GetPortfolioSummary(r.Context())
	if err != nil {
		log.Error("failed to get portfolio summary", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to get portfolio summary"))
		return
	}

	log.Info("portfolio summary ready", slog.Int("users", len(summary)))
	render.JSON(w, r, response.OKWithData(summary))
}
