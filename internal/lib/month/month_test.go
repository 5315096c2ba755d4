package month

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWholeMonthsBetween(t *testing.T) {
	tests := []struct {
		name string
		from time.Time
		to   time.Time
		want int
	}{
		{"exact year", date(2025, time.January, 15), date(2026, time.January, 15), 12},
		{"partial month not counted", date(2025, time.January, 15), date(2025, time.March, 14), 1},
		{"same day", date(2025, time.January, 15), date(2025, time.January, 15), 0},
		{"to before from", date(2025, time.May, 1), date(2025, time.April, 1), 0},
		{"day boundary inclusive", date(2025, time.January, 31), date(2025, time.March, 31), 2},
		{"cross year", date(2025, time.November, 10), date(2026, time.February, 10), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WholeMonthsBetween(tt.from, tt.to); got != tt.want {
				t.Errorf("WholeMonthsBetween() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestOverdueDays(t *testing.T) {
	app := date(2025, time.January, 1)

	tests := []struct {
		name      string
		completed int
		today     time.Time
		want      int
	}{
		{"not yet due", 2, date(2025, time.February, 20), 0},
		{"due today", 2, date(2025, time.March, 1), 0},
		{"five days late", 2, date(2025, time.March, 6), 5},
		{"no payments yet", 0, date(2025, time.January, 22), 21},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OverdueDays(app, tt.completed, tt.today); got != tt.want {
				t.Errorf("OverdueDays() = %d, want %d", got, tt.want)
			}
		})
	}
}
