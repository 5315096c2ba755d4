package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Investment — торговая позиция пользователя.
// Открытая позиция представлена AmountReturned == nil; в хранилище ей
// соответствует сигнальное значение -1, преобразование делает репозиторий.
// Закрыть позицию можно ровно один раз.
type Investment struct {
	ID             int              // Идентификатор позиции
	InvestorCNP    string           // Владелец позиции
	AmountInvested decimal.Decimal  // Вложенный капитал
	AmountReturned *decimal.Decimal // Возврат; nil — позиция ещё открыта
	InvestmentDate time.Time        // Дата открытия
}

// IsOpen сообщает, открыта ли позиция.
func (i *Investment) IsOpen() bool {
	return i.AmountReturned == nil
}

// IsProfitable сообщает, закрыта ли позиция с прибылью.
// Для открытой позиции всегда false.
func (i *Investment) IsProfitable() bool {
	return i.AmountReturned != nil && i.AmountReturned.GreaterThan(i.AmountInvested)
}

// PortfolioSummary — агрегированная сводка портфеля одного пользователя.
// Формируется только для пользователей хотя бы с одной позицией.
type PortfolioSummary struct {
	UserCNP       string          `json:"user_cnp"`
	FullName      string          `json:"full_name"`
	RiskScore     int             `json:"risk_score"`
	TotalInvested decimal.Decimal `json:"total_invested"`
	TotalReturned decimal.Decimal `json:"total_returned"`
	AverageROI    decimal.Decimal `json:"average_roi"`
}
