package listing

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/doctor_booking_bot/internal/gateway"
	"github.com/Freeeeeet/doctor_booking_bot/internal/model"
)

const (
	MsgNoDoctors          = "No doctors available for the selected speciality."
	MsgDoctorsFailed      = "Failed to fetch doctors. Please try again later."
	MsgSpecialitiesFailed = "Failed to fetch speciality options. Please try again later."

	MsgAppointmentsLogin  = "Login to see appointments"
	MsgNoAppointments     = "You have no appointments."
	MsgAppointmentsFailed = "Failed to fetch appointments. Please try again later."
)

// AllSpecialities селектор "все специальности"
const AllSpecialities = ""

// DoctorSource вызовы для списка врачей
type DoctorSource interface {
	ListDoctors(ctx context.Context, filter gateway.DoctorFilter) ([]model.Doctor, error)
	ListSpecialities(ctx context.Context) ([]string, error)
}

// AppointmentSource вызов для списка записей пользователя
type AppointmentSource interface {
	ListUserAppointments(ctx context.Context) ([]model.Appointment, error)
}

// DoctorList список врачей с фильтром по специальности
type DoctorList = Controller[string, model.Doctor]

// AppointmentList записи текущего пользователя, селектора нет
type AppointmentList = Controller[struct{}, model.Appointment]

// NewDoctorList создаёт список врачей; варианты специальностей грузятся один раз
func NewDoctorList(src DoctorSource, logger *zap.Logger, onChange func()) *DoctorList {
	return New(Config[string, model.Doctor]{
		Name: "doctors",
		Fetch: func(ctx context.Context, speciality string) ([]model.Doctor, error) {
			return src.ListDoctors(ctx, gateway.DoctorFilter{Speciality: speciality})
		},
		Options: src.ListSpecialities,
		Initial: AllSpecialities,
		Messages: Messages{
			Empty:         MsgNoDoctors,
			Failed:        MsgDoctorsFailed,
			OptionsFailed: MsgSpecialitiesFailed,
		},
		Logger:   logger,
		OnChange: onChange,
	})
}

// NewAppointmentList создаёт список записей; без сессии показывает приглашение войти
func NewAppointmentList(src AppointmentSource, session *model.Session, now func() time.Time, logger *zap.Logger, onChange func()) *AppointmentList {
	return New(Config[struct{}, model.Appointment]{
		Name: "appointments",
		Fetch: func(ctx context.Context, _ struct{}) ([]model.Appointment, error) {
			return src.ListUserAppointments(ctx)
		},
		Messages: Messages{
			Empty:        MsgNoAppointments,
			Failed:       MsgAppointmentsFailed,
			AuthRequired: MsgAppointmentsLogin,
		},
		RequireAuth: true,
		Session:     session,
		Now:         now,
		Logger:      logger,
		OnChange:    onChange,
	})
}
