// Package health реализует HTTP-обработчик проверки готовности движка.
package health

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/credit-risk-engine/internal/api/response"
	"github.com/magabrotheeeer/credit-risk-engine/internal/cache"
	"github.com/magabrotheeeer/credit-risk-engine/internal/lib/sl"
	"github.com/magabrotheeeer/credit-risk-engine/internal/storage/repository"
)

// Handler отвечает на запросы проверки готовности.
type Handler struct {
	log     *slog.Logger
	storage *repository.Storage
	rabbit  *amqp.Connection
	cache   *cache.Cache
}

// New создает новый Handler с зависимостями для проверки.
func New(log *slog.Logger, storage *repository.Storage, rabbit *amqp.Connection, cache *cache.Cache) *Handler {
	return &Handler{
		log:     log,
		storage: storage,
		rabbit:  rabbit,
		cache:   cache,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"

	if err := repository.CheckDatabaseReady(h.storage); err != nil {
		h.log.Error("database is not ready", slog.String("op", op), sl.Err(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("database is not ready"))
		return
	}
	if h.rabbit.IsClosed() {
		h.log.Error("rabbitmq connection is closed", slog.String("op", op))
		w.WriteHeader(http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("rabbitmq is not ready"))
		return
	}
	if err := h.cache.Db.Ping(r.Context()).Err(); err != nil {
		h.log.Error("redis is not ready", slog.String("op", op), sl.Err(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("cache is not ready"))
		return
	}

	w.WriteHeader(http.StatusOK)
	render.JSON(w, r, response.OKWithData(map[string]any{
		"status": "ok",
	}))
}
