// Package repository реализует хранилище кредитного движка на PostgreSQL:
// пользователи с агрегированным скорингом, кредиты и заявки, инвестиции,
// отчёты о разделении счетов и история кредитного рейтинга.
// Все мутации скоринга выполняются узкими UPDATE только по полям
// конкретного продюсера, границы значений проверяются на каждой записи.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Ошибки хранилища, проверяются через errors.Is.
var (
	// ErrUserNotFound — пользователь с таким CNP отсутствует.
	ErrUserNotFound = errors.New("user not found")
	// ErrLoanNotFound — кредит с таким id отсутствует.
	ErrLoanNotFound = errors.New("loan not found")
	// ErrLoanRequestNotFound — заявка на кредит отсутствует.
	ErrLoanRequestNotFound = errors.New("loan request not found")
	// ErrReportNotFound — отчёт (bill-split либо жалоба из чата) отсутствует.
	ErrReportNotFound = errors.New("report not found")
	// ErrInvestmentNotFound — позиция с таким id отсутствует.
	ErrInvestmentNotFound = errors.New("investment not found")
	// ErrInvestmentAlreadyClosed — позиция уже закрыта, повторное закрытие запрещено.
	ErrInvestmentAlreadyClosed = errors.New("investment already processed")
	// ErrScoreOutOfRange — значение скоринга вне допустимого диапазона, запись отклонена.
	ErrScoreOutOfRange = errors.New("score out of allowed range")
)

// Жёсткие границы значений, проверяемые на каждой записи скоринга.
// Продюсеры зажимают значения в собственные более узкие диапазоны
// до обращения к хранилищу; здесь проверяется их объединение.
const (
	CreditScoreMin = 0
	CreditScoreMax = 1000
	RiskScoreMin   = 1
	RiskScoreMax   = 100
)

// Storage инкапсулирует соединение с PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL и проверяет его работоспособность.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// CheckDatabaseReady проверяет готовность базы данных.
func CheckDatabaseReady(storage *Storage) error {
	var exists bool
	err := storage.DB.QueryRow(`SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'users'
    )`).Scan(&exists)
	if err != nil || !exists {
		return fmt.Errorf("required table users missing or query error: %w", err)
	}
	return nil
}
