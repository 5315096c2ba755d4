// Package models содержит доменные структуры кредитного движка:
// пользователь с агрегированным скорингом, кредиты, отчёты о разделении
// счетов, инвестиции и история кредитного рейтинга.
package models

import "github.com/shopspring/decimal"

// User представляет пользователя с точки зрения кредитного движка.
// CNP — непрозрачный строковый идентификатор фиксированной длины,
// движок его не разбирает и не валидирует по формату.
// Поля CreditScore, RiskScore и ROI изменяются четырьмя независимыми
// продюсерами; каждая запись в хранилище идёт узким UPDATE только
// по полям конкретного продюсера.
type User struct {
	CNP                    string          // Идентификатор пользователя
	FirstName              string          // Имя
	LastName               string          // Фамилия
	Email                  string          // Электронная почта
	CreditScore            int             // Кредитный рейтинг
	RiskScore              int             // Рейтинг рискованности торговли, [1,100]
	ROI                    decimal.Decimal // Отношение возвращённого капитала к вложенному
	GemBalance             int             // Баланс внутренней валюты
	NumberOfOffenses       int             // Количество зафиксированных нарушений в чате
	NumberOfBillSharesPaid int             // Количество закрытых долей общих счетов
	Income                 int             // Месячный доход
}

// FullName возвращает отображаемое имя пользователя для сводок.
func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
