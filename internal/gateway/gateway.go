// Package gateway описывает контракт удалённого API клиники, от которого
// зависят контроллеры бронирования, и классификацию его отказов.
package gateway

import (
	"context"

	"github.com/Freeeeeet/doctor_booking_bot/internal/model"
)

// DoctorFilter фильтр списка врачей, пустая специальность означает "все"
type DoctorFilter struct {
	Speciality string
}

// Gateway набор удалённых вызовов, которыми пользуется ядро
type Gateway interface {
	ListDoctors(ctx context.Context, filter DoctorFilter) ([]model.Doctor, error)
	ListSpecialities(ctx context.Context) ([]string, error)
	ListAvailableSlots(ctx context.Context, doctorID, date string) (*model.SlotList, error)
	GetCurrentUser(ctx context.Context) (*model.User, error)
	// SubmitBooking возвращает accepted=false без ошибки, если слот уже занят
	SubmitBooking(ctx context.Context, draft model.AppointmentDraft) (bool, error)
	SubmitRating(ctx context.Context, rating model.RatingSubmission) error
	ListUserAppointments(ctx context.Context) ([]model.Appointment, error)
}

// Credentials результат успешного входа
type Credentials struct {
	AccessToken string `json:"accessToken"`
	EmailID     string `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
}

// Authenticator вход и выход в API клиники
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*Credentials, error)
	Logout(ctx context.Context, accessToken string) error
}
