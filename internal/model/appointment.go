package model

import "time"

// DateLayout формат даты приёма в API
const DateLayout = "2006-01-02"

// NotAvailable значение по умолчанию для необязательных текстовых полей записи
const NotAvailable = "NA"

// AppointmentDraft черновик записи к врачу, отправляется один раз
type AppointmentDraft struct {
	DoctorID            string `json:"doctorId" validate:"required"`
	DoctorName          string `json:"doctorName" validate:"required"`
	UserID              string `json:"userId" validate:"required"`
	UserName            string `json:"userName" validate:"required"`
	UserEmailID         string `json:"userEmailId" validate:"required,email"`
	TimeSlot            string `json:"timeSlot" validate:"required"`
	AppointmentDate     string `json:"appointmentDate" validate:"required,datetime=2006-01-02"`
	Symptoms            string `json:"symptoms"`
	PriorMedicalHistory string `json:"priorMedicalHistory"`
}

// Appointment подтверждённая запись из списка записей пользователя
type Appointment struct {
	AppointmentID       string `json:"appointmentId"`
	DoctorID            string `json:"doctorId"`
	DoctorName          string `json:"doctorName"`
	AppointmentDate     string `json:"appointmentDate"`
	TimeSlot            string `json:"timeSlot,omitempty"`
	Status              string `json:"status,omitempty"`
	Symptoms            string `json:"symptoms"`
	PriorMedicalHistory string `json:"priorMedicalHistory"`
}

// SlotList свободные слоты врача на дату (снимок на момент запроса)
type SlotList struct {
	DoctorID      string   `json:"doctorId"`
	AvailableDate string   `json:"availableDate"`
	TimeSlots     []string `json:"timeSlot"`
}

// Has проверяет, есть ли слот в списке
func (s *SlotList) Has(slot string) bool {
	for _, ts := range s.TimeSlots {
		if ts == slot {
			return true
		}
	}
	return false
}

// DateOnly отбрасывает время, оставляя календарную дату в той же локации
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// FormatDate форматирует дату для API
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
