package models

import "time"

// LoanStatus описывает конечный автомат статуса кредита.
// Допустимые переходы: active → overdue → completed и active → completed.
// Из completed переходов нет: кредит в этом статусе удаляется из хранилища.
type LoanStatus string

const (
	// LoanStatusActive — кредит обслуживается по графику.
	LoanStatusActive LoanStatus = "active"
	// LoanStatusOverdue — дата полного погашения прошла, кредит не закрыт.
	LoanStatusOverdue LoanStatus = "overdue"
	// LoanStatusCompleted — все ежемесячные платежи внесены, терминальный статус.
	LoanStatusCompleted LoanStatus = "completed"
)

// Loan представляет выданный кредит одного пользователя.
type Loan struct {
	ID                       int        // Идентификатор кредита
	UserCNP                  string     // Владелец кредита
	Amount                   float64    // Тело кредита
	ApplicationDate          time.Time  // Дата выдачи
	RepaymentDate            time.Time  // Плановая дата полного погашения
	InterestRate             float64    // Ставка в процентных пунктах
	NumberOfMonths           int        // Срок кредита в месяцах
	MonthlyPaymentAmount     float64    // Размер ежемесячного платежа
	MonthlyPaymentsCompleted int        // Сколько платежей уже внесено
	RepaidAmount             float64    // Сумма, возвращённая заёмщиком
	Penalty                  float64    // Накопленный штраф за просрочку
	Status                   LoanStatus // Текущий статус
}

// LoanRequest — заявка на кредит. Кредитом становится только через
// явный вызов AddLoan; собственный Status заявки ("Solved" либо пусто)
// не связан с Loan.Status.
type LoanRequest struct {
	ID              int       // Идентификатор заявки
	UserCNP         string    // Заявитель
	Amount          float64   // Запрошенная сумма
	ApplicationDate time.Time // Дата подачи заявки
	RepaymentDate   time.Time // Желаемая дата погашения
	Status          string    // "Solved" после выдачи кредита
}

// LoanRequestSolved — значение Status решённой заявки.
const LoanRequestSolved = "Solved"
