package booking

import (
	"errors"

	"github.com/Freeeeeet/doctor_booking_bot/internal/validation"
)

const (
	MsgSelectTimeSlot     = "Select a time slot"
	MsgPastDate           = "Appointment date cannot be in the past"
	MsgLoginRequired      = "Please login to book an appointment"
	MsgSlotsFailed        = "Failed to fetch available time slots. Please try again later."
	MsgUserFailed         = "Failed to fetch user details. Please ensure you're logged in."
	MsgIdentityUnresolved = "Your identity could not be confirmed yet. Please try again in a moment."
	MsgSlotConflict       = "Either the slot is already booked or not available"
	MsgBookingFailed      = "Failed to book appointment. Please try again later."
	MsgBookingSuccessful  = "Booking Successful"
)

// Локальные ошибки полей, до сети не доходят
var (
	ErrTimeSlotMissing = validation.NewFieldError("timeSlot", MsgSelectTimeSlot)
	ErrPastDate        = validation.NewFieldError("appointmentDate", MsgPastDate)
)

var (
	ErrAuthRequired       = errors.New("authentication required")
	ErrDoctorUnresolved   = errors.New("doctor is not resolved")
	ErrIdentityUnresolved = errors.New("user identity is not resolved")
	ErrUnknownTimeSlot    = errors.New("time slot is not in the loaded list")
	ErrSlotsNotReady      = errors.New("time slots are not loaded")
	ErrSubmitInFlight     = errors.New("booking submit already in flight")
	ErrAlreadyAccepted    = errors.New("booking already accepted")
	ErrNotMounted         = errors.New("controller is not mounted")
	ErrClosed             = errors.New("controller is closed")
)
