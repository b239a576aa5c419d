package validation

import "fmt"

// FieldError локальная ошибка валидации конкретного поля, до сети не доходит
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewFieldError создаёт ошибку поля
func NewFieldError(field, message string) *FieldError {
	return &FieldError{Field: field, Message: message}
}
