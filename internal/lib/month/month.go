// Package month содержит календарную арифметику для графиков кредитов.
package month

import (
	"time"
)

// WholeMonthsBetween считает количество полных календарных месяцев
// между двумя датами. Если to раньше from, возвращает 0.
func WholeMonthsBetween(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}

	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())

	// Неполный месяц не считается
	if to.Day() < from.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// OverdueDays считает количество дней просрочки очередного платежа:
// разницу в днях между today и датой, на которую должен был прийтись
// платёж номер paymentsCompleted+1. Если срок ещё не наступил, возвращает 0.
func OverdueDays(applicationDate time.Time, paymentsCompleted int, today time.Time) int {
	due := applicationDate.AddDate(0, paymentsCompleted, 0)
	if !today.After(due) {
		return 0
	}
	return int(today.Sub(due).Hours() / 24)
}
