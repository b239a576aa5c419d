package formatting

import (
	"time"

	"github.com/Freeeeeet/doctor_booking_bot/internal/model"
)

// FormatDate форматирует дату для текста экрана
func FormatDate(t time.Time) string {
	return t.Format("02.01.2006")
}

// FormatDateWithWeekday форматирует дату с днём недели
func FormatDateWithWeekday(t time.Time) string {
	return t.Format("Mon, 02.01.2006")
}

// FormatDayButton короткая подпись кнопки даты
func FormatDayButton(t time.Time) string {
	return t.Format("Mon 02.01")
}

// FormatAPIDate переводит дату из формата API в формат экрана.
// Нераспознанная строка возвращается как есть.
func FormatAPIDate(s string) string {
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return s
	}
	return FormatDate(t)
}

// NextDays возвращает n календарных дней начиная с from
func NextDays(from time.Time, n int) []time.Time {
	start := model.DateOnly(from)
	days := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		days = append(days, start.AddDate(0, 0, i))
	}
	return days
}
