package model

// RatingSubmission оценка завершённого приёма
type RatingSubmission struct {
	AppointmentID string  `json:"appointmentId" validate:"required"`
	DoctorID      string  `json:"doctorId" validate:"required"`
	Rating        float64 `json:"rating" validate:"gte=0.5,lte=5,halfstep"`
	Comment       string  `json:"comment"`
}
