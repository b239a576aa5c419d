package common

import (
	"errors"
	"sort"
	"strings"

	"github.com/Freeeeeet/doctor_booking_bot/internal/booking"
	"github.com/Freeeeeet/doctor_booking_bot/internal/gateway"
	"github.com/Freeeeeet/doctor_booking_bot/internal/listing"
	"github.com/Freeeeeet/doctor_booking_bot/internal/rating"
	"github.com/Freeeeeet/doctor_booking_bot/internal/service"
	"github.com/Freeeeeet/doctor_booking_bot/internal/validation"
)

// Общие ошибки для обработчиков
var (
	ErrNoMessage           = errors.New("no message in callback")
	ErrInvalidFormat       = errors.New("invalid callback format")
	ErrScreenExpired       = errors.New("screen is no longer active")
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
)

// ErrorMessage возвращает пользовательское сообщение для ошибки
func ErrorMessage(err error) string {
	var fieldErr *validation.FieldError
	var formErr *service.FormError

	switch {
	case errors.As(err, &fieldErr):
		return "⚠️ " + fieldErr.Message
	case errors.As(err, &formErr):
		return "⚠️ " + formMessage(formErr)
	case errors.Is(err, service.ErrInvalidCredentials):
		return "❌ " + service.MsgInvalidCredentials
	case errors.Is(err, booking.ErrAuthRequired),
		errors.Is(err, listing.ErrAuthRequired),
		errors.Is(err, rating.ErrAuthRequired):
		return "🔒 " + booking.MsgLoginRequired + ". Use /login"
	case errors.Is(err, booking.ErrSubmitInFlight), errors.Is(err, rating.ErrSubmitInFlight):
		return "⏳ Request in progress, please wait"
	case errors.Is(err, booking.ErrIdentityUnresolved):
		return "⏳ " + booking.MsgIdentityUnresolved
	case errors.Is(err, booking.ErrSlotsNotReady):
		return "⏳ Time slots are still loading"
	case errors.Is(err, booking.ErrUnknownTimeSlot):
		return "❌ This time slot is not available"
	case errors.Is(err, booking.ErrAlreadyAccepted):
		return "✅ Appointment already booked"
	case errors.Is(err, rating.ErrAlreadySubmitted):
		return "✅ Rating already submitted"
	case errors.Is(err, booking.ErrDoctorUnresolved), errors.Is(err, ErrDoctorNotFound):
		return "❌ Doctor details are unavailable"
	case errors.Is(err, rating.ErrAppointmentUnresolved), errors.Is(err, ErrAppointmentNotFound):
		return "❌ Appointment not found"
	case errors.Is(err, ErrScreenExpired),
		errors.Is(err, booking.ErrClosed),
		errors.Is(err, listing.ErrClosed),
		errors.Is(err, rating.ErrClosed):
		return "⌛ This screen is no longer active, open it again"
	case errors.Is(err, ErrNoMessage):
		return "❌ Message processing error"
	case errors.Is(err, ErrInvalidFormat):
		return "❌ Invalid data format"
	case gateway.Classify(err) == gateway.KindAuthRequired:
		return "🔒 Your session has expired. Use /login"
	case gateway.Classify(err) == gateway.KindTransport:
		return "❌ Service is unavailable. Please try again later."
	default:
		return "❌ Something went wrong"
	}
}

func formMessage(e *service.FormError) string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		if !f.IsValid {
			msgs = append(msgs, f.Message)
		}
	}
	sort.Strings(msgs)
	return strings.Join(msgs, "\n⚠️ ")
}
