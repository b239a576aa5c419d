package validation

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("halfstep", validateHalfStep)
	validate.RegisterValidation("email_form", validateEmailForm)
}

// Struct проверяет структуру по тегам validate.
// Первая ошибка возвращается как *FieldError.
func Struct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return NewFieldError(fe.Field(), fmt.Sprintf("failed on '%s'", fe.Tag()))
	}
	return fmt.Errorf("validate struct: %w", err)
}

func validateHalfStep(fl validator.FieldLevel) bool {
	return IsHalfStep(fl.Field().Float())
}

func validateEmailForm(fl validator.FieldLevel) bool {
	return IsValidEmail(fl.Field().String())
}
