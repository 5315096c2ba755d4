package models

import "time"

// CreditScoreHistory — суточный срез кредитного рейтинга пользователя.
// На пользователя и календарный день хранится не более одной записи,
// повторная запись за тот же день перезаписывает значение.
type CreditScoreHistory struct {
	ID      int       // Идентификатор записи
	UserCNP string    // Пользователь
	Date    time.Time // Календарный день среза
	Score   int       // Значение рейтинга на этот день
}
