package common

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot/models"

	"github.com/Freeeeeet/doctor_booking_bot/internal/booking"
	"github.com/Freeeeeet/doctor_booking_bot/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/doctor_booking_bot/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/doctor_booking_bot/internal/listing"
	"github.com/Freeeeeet/doctor_booking_bot/internal/model"
	"github.com/Freeeeeet/doctor_booking_bot/internal/rating"
)

// MsgDoctorUnavailable карточка врача без данных
const MsgDoctorUnavailable = "Error: Doctor details are unavailable."

// DoctorsSnapshot состояние списка врачей
type DoctorsSnapshot = listing.Snapshot[string, model.Doctor]

// AppointmentsSnapshot состояние списка записей
type AppointmentsSnapshot = listing.Snapshot[struct{}, model.Appointment]

// DoctorTitle "Dr. Имя Фамилия"
func DoctorTitle(d model.Doctor) string {
	return "Dr. " + d.FullName()
}

// BuildDoctorListScreen формирует экран списка врачей с фильтром по специальности
func BuildDoctorListScreen(s DoctorsSnapshot, page int) (string, *models.InlineKeyboardMarkup) {
	var sb strings.Builder
	sb.WriteString("👩‍⚕️ Doctors\n\n")
	sb.WriteString("Speciality: " + specialityLabel(s.Selector) + "\n")
	if s.OptionsError != "" {
		sb.WriteString("⚠️ " + s.OptionsError + "\n")
	}
	sb.WriteString("\n")

	switch s.View {
	case listing.ViewIdle, listing.ViewLoading:
		sb.WriteString("⏳ Loading doctors...")
	case listing.ViewError:
		sb.WriteString("❌ " + s.Message)
	case listing.ViewEmpty:
		sb.WriteString(s.Message)
	case listing.ViewItems:
		sb.WriteString("Choose a doctor:")
	}

	kb := keyboard.NewBuilder()

	specs := []models.InlineKeyboardButton{
		keyboard.Marked(s.Selector == listing.AllSpecialities, "All", DoctorsSpeciality),
	}
	for _, opt := range s.Options {
		specs = append(specs, keyboard.Marked(s.Selector == opt, opt, DoctorsSpeciality+opt))
	}
	kb.Grid(3, specs...)

	if s.View != listing.ViewEmpty {
		start, end, pages, current := keyboard.PageBounds(len(s.Items), DoctorsPageSize, page)
		for _, d := range s.Items[start:end] {
			label := fmt.Sprintf("%s · %s · %s", DoctorTitle(d), formatting.OrNA(d.Speciality), formatting.FormatStars(d.Rating))
			kb.Row(keyboard.Button(label, DoctorView+d.ID))
		}
		kb.AddPagination(DoctorsPage, current, pages)
	}

	if s.View == listing.ViewError || s.OptionsError != "" {
		kb.Row(keyboard.Button("🔄 Retry", DoctorsReload))
	}

	return sb.String(), kb.Build()
}

// BuildDoctorCardScreen формирует карточку врача
func BuildDoctorCardScreen(d *model.Doctor) (string, *models.InlineKeyboardMarkup) {
	if d == nil || strings.TrimSpace(d.ID) == "" {
		kb := keyboard.NewBuilder().
			Row(keyboard.Button("⬅️ Back", DoctorsBack)).
			Build()
		return "❌ " + MsgDoctorUnavailable, kb
	}

	text := fmt.Sprintf(
		"👩‍⚕️ %s\n\n"+
			"Total Experience: %s\n"+
			"Speciality: %s\n"+
			"Date of Birth: %s\n"+
			"City: %s\n"+
			"Email: %s\n"+
			"Mobile: %s\n"+
			"Rating: %s",
		DoctorTitle(*d),
		formatting.IntOrNA(d.TotalYearsOfExp),
		formatting.OrNA(d.Speciality),
		formatting.PtrOrNA(d.DOB),
		formatting.OrNA(d.City()),
		formatting.PtrOrNA(d.EmailID),
		formatting.PtrOrNA(d.Mobile),
		formatting.FormatStars(d.Rating),
	)

	kb := keyboard.NewBuilder().
		Row(keyboard.Button("📅 Book Appointment", BookOpen+d.ID)).
		Row(keyboard.Button("⬅️ Back", DoctorsBack)).
		Build()
	return text, kb
}

// BuildBookingScreen формирует экран записи к врачу.
// today задаёт первый день в ряду выбора даты.
func BuildBookingScreen(s booking.Snapshot, today time.Time) (string, *models.InlineKeyboardMarkup) {
	var sb strings.Builder
	sb.WriteString("📅 Book Appointment\n\n")
	sb.WriteString("Doctor: " + DoctorTitle(s.Doctor) + "\n")

	if s.AuthRequired {
		sb.WriteString("\n🔒 " + booking.MsgLoginRequired + ". Use /login")
		kb := keyboard.NewBuilder().
			Row(keyboard.Button("⬅️ Doctors", DoctorsOpen)).
			Build()
		return sb.String(), kb
	}

	if !s.Date.IsZero() {
		sb.WriteString("Date: " + formatting.FormatDateWithWeekday(s.Date) + "\n")
	}
	if s.PastDate {
		sb.WriteString("⚠️ " + booking.MsgPastDate + "\n")
	}

	slot := "not selected"
	if s.SelectedTimeSlot != "" {
		slot = s.SelectedTimeSlot
	}
	sb.WriteString("Time slot: " + slot + "\n")
	if s.TimeSlotMissing {
		sb.WriteString("⚠️ " + booking.MsgSelectTimeSlot + "\n")
	}
	sb.WriteString("Symptoms: " + orDash(s.Symptoms) + "\n")
	sb.WriteString("Prior Medical History: " + orDash(s.PriorMedicalHistory) + "\n")

	sb.WriteString("\n")
	switch {
	case s.SlotsLoading:
		sb.WriteString("⏳ Loading time slots...\n")
	case s.SlotsError != "":
		sb.WriteString("❌ " + s.SlotsError + "\n")
	case s.Phase != booking.PhaseIdle && len(s.Slots) == 0:
		sb.WriteString("No time slots available for this date.\n")
	}
	if s.UserLoading {
		sb.WriteString("⏳ Loading your details...\n")
	} else if s.UserError != "" {
		sb.WriteString("❌ " + s.UserError + "\n")
	}

	switch s.Phase {
	case booking.PhaseSubmitting:
		sb.WriteString("⏳ Booking...\n")
	case booking.PhaseSubmitAccepted:
		sb.WriteString("✅ " + s.Banner + "\n")
	default:
		if s.Banner != "" {
			sb.WriteString("❌ " + s.Banner + "\n")
		}
	}

	kb := keyboard.NewBuilder()
	if s.Phase == booking.PhaseSubmitAccepted {
		kb.Row(
			keyboard.Button("📋 My Appointments", AppointmentsOpen),
			keyboard.Button("👩‍⚕️ Doctors", DoctorsOpen),
		)
		return strings.TrimRight(sb.String(), "\n"), kb.Build()
	}

	days := formatting.NextDays(today, BookingDays)
	dates := make([]models.InlineKeyboardButton, 0, len(days))
	for _, d := range days {
		dates = append(dates, keyboard.Marked(
			sameDay(d, s.Date),
			formatting.FormatDayButton(d),
			BookDate+model.FormatDate(d),
		))
	}
	kb.Grid(4, dates...)

	slots := make([]models.InlineKeyboardButton, 0, len(s.Slots))
	for _, ts := range s.Slots {
		slots = append(slots, keyboard.Marked(ts == s.SelectedTimeSlot, ts, BookSlot+ts))
	}
	kb.Grid(3, slots...)

	kb.Row(
		keyboard.Button("📝 Symptoms", BookSymptoms),
		keyboard.Button("📋 Medical History", BookHistory),
	)
	if s.SlotsError != "" || s.UserError != "" {
		kb.Row(keyboard.Button("🔄 Retry", BookRetry))
	}
	if s.Phase == booking.PhaseSubmitError || s.Phase == booking.PhaseSubmitConflict {
		kb.Row(keyboard.Button("✖️ Dismiss", BookDismiss))
	}
	kb.Row(keyboard.Button("✅ Book Appointment", BookSubmit))
	kb.Row(keyboard.Button("⬅️ Doctors", DoctorsOpen))

	return strings.TrimRight(sb.String(), "\n"), kb.Build()
}

// BuildAppointmentsScreen формирует список записей пользователя
func BuildAppointmentsScreen(s AppointmentsSnapshot) (string, *models.InlineKeyboardMarkup) {
	var sb strings.Builder
	sb.WriteString("📋 My Appointments\n\n")

	kb := keyboard.NewBuilder()
	switch s.View {
	case listing.ViewAuthRequired:
		sb.WriteString("🔒 " + s.Message + ". Use /login")
		return sb.String(), kb.Build()
	case listing.ViewIdle, listing.ViewLoading:
		sb.WriteString("⏳ Loading appointments...")
	case listing.ViewError:
		sb.WriteString("❌ " + s.Message)
	case listing.ViewEmpty:
		sb.WriteString(s.Message)
	}

	if s.View != listing.ViewEmpty {
		for i, a := range s.Items {
			if i > 0 || s.View != listing.ViewItems {
				sb.WriteString("\n\n")
			}
			sb.WriteString(FormatAppointment(a))
			kb.Row(keyboard.Button(
				fmt.Sprintf("⭐ Rate Appointment · %s", a.DoctorName),
				RateOpen+a.AppointmentID,
			))
		}
	}

	if s.View == listing.ViewError {
		kb.Row(keyboard.Button("🔄 Retry", AppointmentsReload))
	} else {
		kb.Row(keyboard.Button("🔄 Refresh", AppointmentsReload))
	}
	return sb.String(), kb.Build()
}

// FormatAppointment текст одной записи
func FormatAppointment(a model.Appointment) string {
	lines := []string{
		"👩‍⚕️ " + a.DoctorName,
		"Date: " + formatting.FormatAPIDate(a.AppointmentDate),
	}
	if a.TimeSlot != "" {
		lines = append(lines, "Time: "+a.TimeSlot)
	}
	lines = append(lines,
		"Symptoms: "+a.Symptoms,
		"Prior Medical History: "+a.PriorMedicalHistory,
	)
	return strings.Join(lines, "\n")
}

// BuildRatingScreen формирует форму оценки приёма
func BuildRatingScreen(s rating.Snapshot, doctorName string) (string, *models.InlineKeyboardMarkup) {
	var sb strings.Builder
	sb.WriteString("⭐ Rate Appointment\n\n")
	if doctorName != "" {
		sb.WriteString("Doctor: " + doctorName + "\n")
	}

	if s.Submitted {
		sb.WriteString(fmt.Sprintf("Rating: %s (%s)\n\n", formatting.FormatStars(s.Rating), formatting.FormatRating(s.Rating)))
		sb.WriteString("✅ Thank you! Your rating has been submitted.")
		kb := keyboard.NewBuilder().
			Row(keyboard.Button("📋 My Appointments", AppointmentsOpen)).
			Build()
		return sb.String(), kb
	}

	if s.Rating > 0 {
		sb.WriteString(fmt.Sprintf("Rating: %s (%s)\n", formatting.FormatStars(s.Rating), formatting.FormatRating(s.Rating)))
	} else {
		sb.WriteString("Rating: not selected\n")
	}
	if s.RatingMissing {
		sb.WriteString("⚠️ " + rating.MsgRatingRequired + "\n")
	}
	sb.WriteString("Comment: " + orDash(s.Comment) + "\n")

	switch {
	case s.Submitting:
		sb.WriteString("\n⏳ Submitting...")
	case s.AuthRequired:
		sb.WriteString("\n🔒 " + s.Banner + ". Use /login")
	case s.Banner != "":
		sb.WriteString("\n❌ " + s.Banner)
	}

	kb := keyboard.NewBuilder()
	stars := make([]models.InlineKeyboardButton, 0, 10)
	for v := rating.MinRating; v <= rating.MaxRating; v += 0.5 {
		stars = append(stars, keyboard.Marked(
			v == s.Rating,
			formatting.FormatRating(v),
			RateStars+formatting.FormatRating(v),
		))
	}
	kb.Grid(5, stars...)
	kb.Row(keyboard.Button("💬 Comment", RateComment))
	kb.Row(keyboard.Button("✅ Submit", RateSubmit))
	kb.Row(keyboard.Button("⬅️ My Appointments", AppointmentsOpen))

	return strings.TrimRight(sb.String(), "\n"), kb.Build()
}

func specialityLabel(s string) string {
	if s == listing.AllSpecialities {
		return "All"
	}
	return s
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "—"
	}
	return s
}
