// Package creditriskengine предоставляет маршруты административной
// поверхности движка.
package creditriskengine

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/streadway/amqp"
	"golang.org/x/time/rate"

	billsplitsolve "github.com/magabrotheeeer/credit-risk-engine/internal/api/handlers/billsplit/solve"
	"github.com/magabrotheeeer/credit-risk-engine/internal/api/handlers/health"
	investmentclose "github.com/magabrotheeeer/credit-risk-engine/internal/api/handlers/investment/close"
	investmentportfolio "github.com/magabrotheeeer/credit-risk-engine/internal/api/handlers/investment/portfolio"
	investmentsweep "github.com/magabrotheeeer/credit-risk-engine/internal/api/handlers/investment/sweep"
	loancreate "github.com/magabrotheeeer/credit-risk-engine/internal/api/handlers/loan/create"
	loanlist "github.com/magabrotheeeer/credit-risk-engine/internal/api/handlers/loan/list"
	loanpayment "github.com/magabrotheeeer/credit-risk-engine/internal/api/handlers/loan/payment"
	loansweep "github.com/magabrotheeeer/credit-risk-engine/internal/api/handlers/loan/sweep"
	misconductpunish "github.com/magabrotheeeer/credit-risk-engine/internal/api/handlers/misconduct/punish"
	"github.com/magabrotheeeer/credit-risk-engine/internal/api/middlewarectx"
	"github.com/magabrotheeeer/credit-risk-engine/internal/cache"
	"github.com/magabrotheeeer/credit-risk-engine/internal/lib/jwt"
	billsplitservice "github.com/magabrotheeeer/credit-risk-engine/internal/services/billsplit"
	investmentservice "github.com/magabrotheeeer/credit-risk-engine/internal/services/investment"
	loanservice "github.com/magabrotheeeer/credit-risk-engine/internal/services/loan"
	misconductservice "github.com/magabrotheeeer/credit-risk-engine/internal/services/misconduct"
	"github.com/magabrotheeeer/credit-risk-engine/internal/storage/repository"
)

// Services объединяет бизнес-сервисы, доступные через HTTP.
type Services struct {
	Loan       *loanservice.LoanService
	BillSplit  *billsplitservice.BillSplitService
	Misconduct *misconductservice.MisconductService
	Investment *investmentservice.InvestmentService
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, services *Services, maker *jwt.Maker,
	db *repository.Storage, rabbit *amqp.Connection, cacheRedis *cache.Cache) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	limiter := rate.NewLimiter(1, 3)

	r.Route("/api/v1", func(r chi.Router) {
		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(maker, logger))
			r.Use(middlewarectx.RateLimitMiddleware(limiter, logger))

			r.Post("/loans", loancreate.New(logger, services.Loan).ServeHTTP)
			r.Post("/loans/sweep", loansweep.New(logger, services.Loan).ServeHTTP)
			r.Post("/loans/{id}/payments", loanpayment.New(logger, services.Loan).ServeHTTP)
			r.Get("/loans/list", loanlist.New(logger, services.Loan).ServeHTTP)

			r.Post("/billsplit/solve", billsplitsolve.New(logger, services.BillSplit).ServeHTTP)
			r.Post("/misconduct/punish", misconductpunish.New(logger, services.Misconduct).ServeHTTP)

			r.Post("/investments/sweep/risk",
				investmentsweep.New(logger, services.Investment, investmentsweep.PassRisk).ServeHTTP)
			r.Post("/investments/sweep/roi",
				investmentsweep.New(logger, services.Investment, investmentsweep.PassROI).ServeHTTP)
			r.Post("/investments/sweep/credit",
				investmentsweep.New(logger, services.Investment, investmentsweep.PassCredit).ServeHTTP)
			r.Post("/investments/{id}/close", investmentclose.New(logger, services.Investment).ServeHTTP)
			r.Get("/investments/portfolio", investmentportfolio.New(logger, services.Investment).ServeHTTP)
		})

		// Проверка готовности без аутентификации
		r.Get("/health", health.New(logger, db, rabbit, cacheRedis).ServeHTTP)
	})

	r.Handle("/metrics", promhttp.Handler())
}
