// Package metrics содержит счётчики Prometheus для пакетных проходов движка.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики пакетных проходов. Label "sweep" различает проход по кредитам
// и три инвестиционных прохода.
var (
	// SweepItemsProcessed — количество успешно обработанных записей.
	SweepItemsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "credit_engine_sweep_items_processed_total",
		Help: "Total number of records processed by batch sweeps.",
	}, []string{"sweep"})

	// SweepItemsFailed — количество записей, обработка которых завершилась ошибкой.
	SweepItemsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "credit_engine_sweep_items_failed_total",
		Help: "Total number of records failed during batch sweeps.",
	}, []string{"sweep"})

	// SweepDuration — длительность пакетных проходов.
	SweepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "credit_engine_sweep_duration_seconds",
		Help:    "Duration of batch sweeps.",
		Buckets: prometheus.DefBuckets,
	}, []string{"sweep"})

	// LoansCompleted — кредиты, достигшие терминального статуса за проход.
	LoansCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "credit_engine_loans_completed_total",
		Help: "Total number of loans completed by the loan sweep.",
	})

	// LoansOverdue — кредиты, переведённые в статус overdue за проход.
	LoansOverdue = promauto.NewCounter(prometheus.CounterOpts{
		Name: "credit_engine_loans_overdue_total",
		Help: "Total number of loans marked overdue by the loan sweep.",
	})
)
