// Package validation общие правила проверки полей форм.
// Функции без состояния; результат по полю: Field.
package validation

import (
	"math"
	"regexp"
	"strings"
)

const (
	// RegexEmail local-part "@" domain "." tld без пробелов
	RegexEmail = `^[^\s@]+@[^\s@]+\.[^\s@]+$`

	MsgRequired     = "Please fill out this field."
	MsgInvalidEmail = "Enter valid email"
	MsgOutOfRange   = "Value is out of range"
)

var emailRe = regexp.MustCompile(RegexEmail)

// Field результат проверки одного поля
type Field struct {
	IsValid bool
	IsEmpty bool
	Message string
}

// Required проверяет, что значение заполнено
func Required(value string) bool {
	return strings.TrimSpace(value) != ""
}

// IsValidEmail проверяет формат email
func IsValidEmail(value string) bool {
	return emailRe.MatchString(value)
}

// InRange проверяет min <= value <= max
func InRange(value, min, max float64) bool {
	if math.IsNaN(value) {
		return false
	}
	return value >= min && value <= max
}

// IsHalfStep проверяет, что значение кратно 0.5
func IsHalfStep(value float64) bool {
	return math.Mod(value*2, 1) == 0
}

// RequiredField проверка обязательного поля
func RequiredField(value string) Field {
	if !Required(value) {
		return Field{IsValid: false, IsEmpty: true, Message: MsgRequired}
	}
	return Field{IsValid: true}
}

// EmailField проверка обязательного email.
// Формат проверяется только у непустого значения.
func EmailField(value string) Field {
	f := RequiredField(value)
	if f.IsEmpty {
		return f
	}
	if !IsValidEmail(value) {
		return Field{IsValid: false, IsEmpty: false, Message: MsgInvalidEmail}
	}
	return f
}

// RangeField проверка обязательного числового поля в диапазоне
func RangeField(value, min, max float64) Field {
	if value == 0 {
		return Field{IsValid: false, IsEmpty: true, Message: MsgRequired}
	}
	if !InRange(value, min, max) {
		return Field{IsValid: false, Message: MsgOutOfRange}
	}
	return Field{IsValid: true}
}

// AllValid true, если все поля формы валидны
func AllValid(fields map[string]Field) bool {
	for _, f := range fields {
		if !f.IsValid {
			return false
		}
	}
	return true
}
