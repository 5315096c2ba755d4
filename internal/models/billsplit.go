package models

import "time"

// BillSplitReport — обвинение в неуплате доли общего счёта:
// ReportedUserCNP должен ReportingUserCNP сумму BillShare
// с даты DateOfTransaction. После скоринга отчёт удаляется,
// аудиторский след остаётся только в истории кредитного рейтинга.
type BillSplitReport struct {
	ID                int       // Идентификатор отчёта
	ReportedUserCNP   string    // Должник
	ReportingUserCNP  string    // Кредитор по счёту
	DateOfTransaction time.Time // Дата исходной транзакции
	BillShare         float64   // Неоплаченная доля
}

// ChatReport — жалоба на поведение пользователя в чате.
// Обрабатывается сервисом наказаний и удаляется после применения штрафа.
type ChatReport struct {
	ID              int    // Идентификатор жалобы
	ReportedUserCNP string // Нарушитель
	SubmitterCNP    string // Автор жалобы
	Reason          string // Краткое описание нарушения
}
