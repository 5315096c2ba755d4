package models

import "time"

// SweepError — ошибка обработки одной записи внутри пакетного прохода.
// Key идентифицирует запись (id кредита либо CNP пользователя).
type SweepError struct {
	Key string `json:"key"`
	Err string `json:"error"`
}

// SweepReport — итог одного пакетного прохода. Ошибки отдельных записей
// собираются сюда и не прерывают обработку остальных.
type SweepReport struct {
	RunID     string       `json:"run_id"`
	StartedAt time.Time    `json:"started_at"`
	Processed int          `json:"processed"`
	Completed int          `json:"completed"`
	Overdue   int          `json:"overdue"`
	Failed    int          `json:"failed"`
	Errors    []SweepError `json:"errors,omitempty"`
}

// AddError фиксирует ошибку обработки одной записи.
func (r *SweepReport) AddError(key string, err error) {
	r.Failed++
	r.Errors = append(r.Errors, SweepError{Key: key, Err: err.Error()})
}

// DummyLoanCreate — JSON-запрос на выдачу кредита по заявке.
type DummyLoanCreate struct {
	LoanRequestID int `json:"loan_request_id" validate:"required,gt=0"`
}

// DummyLoanPayment — JSON-запрос на фиксацию ежемесячного платежа.
type DummyLoanPayment struct {
	Penalty float64 `json:"penalty" validate:"gte=0"`
}

// DummyBillSplitSolve — JSON-запрос на разрешение отчёта о разделении счёта.
type DummyBillSplitSolve struct {
	ReportID int `json:"report_id" validate:"required,gt=0"`
}

// DummyPunish — JSON-запрос на применение штрафа по жалобе из чата.
type DummyPunish struct {
	ReportID int `json:"report_id" validate:"required,gt=0"`
}

// DummyInvestmentClose — JSON-запрос на закрытие позиции.
// Сумма приходит строкой и парсится в decimal на стороне сервиса.
type DummyInvestmentClose struct {
	InvestorCNP    string `json:"investor_cnp" validate:"required"`
	AmountReturned string `json:"amount_returned" validate:"required"`
}
