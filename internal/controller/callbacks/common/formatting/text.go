package formatting

import (
	"fmt"
	"math"
	"strings"
)

// NotAvailable заглушка для пустых полей карточки
const NotAvailable = "N/A"

// OrNA возвращает значение или N/A
func OrNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return NotAvailable
	}
	return s
}

// PtrOrNA то же для необязательного поля
func PtrOrNA(s *string) string {
	if s == nil {
		return NotAvailable
	}
	return OrNA(*s)
}

// IntOrNA для числовых необязательных полей, ноль считается пустым
func IntOrNA(n *int) string {
	if n == nil || *n == 0 {
		return NotAvailable
	}
	return fmt.Sprintf("%d", *n)
}

// FormatStars рисует оценку 0-5 звёздами с шагом в половину
func FormatStars(rating float64) string {
	if rating < 0 {
		rating = 0
	}
	if rating > 5 {
		rating = 5
	}
	halves := int(math.Round(rating * 2))
	full := halves / 2
	half := halves % 2

	var sb strings.Builder
	sb.WriteString(strings.Repeat("★", full))
	if half == 1 {
		sb.WriteString("½")
	}
	sb.WriteString(strings.Repeat("☆", 5-full-half))
	return sb.String()
}

// FormatRating число оценки без лишних нулей: 4, 4.5
func FormatRating(rating float64) string {
	return fmt.Sprintf("%g", rating)
}
