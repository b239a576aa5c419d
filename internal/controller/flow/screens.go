package flow

import (
	"sync"
	"time"

	"github.com/go-telegram/bot/models"

	"github.com/Freeeeeet/doctor_booking_bot/internal/booking"
	"github.com/Freeeeeet/doctor_booking_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/doctor_booking_bot/internal/listing"
	"github.com/Freeeeeet/doctor_booking_bot/internal/model"
	"github.com/Freeeeeet/doctor_booking_bot/internal/rating"
)

// DoctorsScreen список врачей и карточка выбранного врача в одном сообщении
type DoctorsScreen struct {
	live *live
	list *listing.DoctorList

	mu       sync.Mutex
	page     int
	card     bool
	selected *model.Doctor
}

// List контроллер списка
func (s *DoctorsScreen) List() *listing.DoctorList {
	return s.list
}

// SelectSpeciality меняет фильтр и возвращает на первую страницу
func (s *DoctorsScreen) SelectSpeciality(speciality string) error {
	s.mu.Lock()
	s.page = 0
	s.card = false
	s.selected = nil
	s.mu.Unlock()

	err := s.list.SelectFilter(speciality)
	s.live.Invalidate()
	return err
}

// SetPage переключает страницу списка
func (s *DoctorsScreen) SetPage(page int) {
	s.mu.Lock()
	s.page = page
	s.mu.Unlock()
	s.live.Invalidate()
}

// ShowDoctor открывает карточку врача из текущего списка.
// Врач, которого нет в списке, показывается карточкой "недоступно".
func (s *DoctorsScreen) ShowDoctor(doctorID string) {
	d, ok := s.Doctor(doctorID)

	s.mu.Lock()
	s.card = true
	s.selected = nil
	if ok {
		s.selected = &d
	}
	s.mu.Unlock()
	s.live.Invalidate()
}

// Back возвращает к списку
func (s *DoctorsScreen) Back() {
	s.mu.Lock()
	s.card = false
	s.selected = nil
	s.mu.Unlock()
	s.live.Invalidate()
}

// Doctor ищет врача в загруженном списке
func (s *DoctorsScreen) Doctor(doctorID string) (model.Doctor, bool) {
	for _, d := range s.list.Snapshot().Items {
		if d.ID == doctorID {
			return d, true
		}
	}
	return model.Doctor{}, false
}

func (s *DoctorsScreen) render() (string, *models.InlineKeyboardMarkup) {
	s.mu.Lock()
	card, selected, page := s.card, s.selected, s.page
	s.mu.Unlock()

	if card {
		return common.BuildDoctorCardScreen(selected)
	}
	return common.BuildDoctorListScreen(s.list.Snapshot(), page)
}

func (s *DoctorsScreen) message() *live { return s.live }

func (s *DoctorsScreen) close() {
	s.list.Close()
	s.live.Stop()
}

func (s *DoctorsScreen) wait() {
	s.list.Wait()
	s.live.Wait()
}

// BookingScreen сценарий записи к врачу
type BookingScreen struct {
	live *live
	ctrl *booking.Controller
	now  func() time.Time
}

func (s *BookingScreen) render() (string, *models.InlineKeyboardMarkup) {
	return common.BuildBookingScreen(s.ctrl.Snapshot(), s.now())
}

func (s *BookingScreen) message() *live { return s.live }

func (s *BookingScreen) close() {
	s.ctrl.Close()
	s.live.Stop()
}

func (s *BookingScreen) wait() {
	s.ctrl.Wait()
	s.live.Wait()
}

// AppointmentsScreen записи пользователя
type AppointmentsScreen struct {
	live *live
	list *listing.AppointmentList
}

// Appointment ищет запись в загруженном списке
func (s *AppointmentsScreen) Appointment(appointmentID string) (model.Appointment, bool) {
	for _, a := range s.list.Snapshot().Items {
		if a.AppointmentID == appointmentID {
			return a, true
		}
	}
	return model.Appointment{}, false
}

func (s *AppointmentsScreen) render() (string, *models.InlineKeyboardMarkup) {
	return common.BuildAppointmentsScreen(s.list.Snapshot())
}

func (s *AppointmentsScreen) message() *live { return s.live }

func (s *AppointmentsScreen) close() {
	s.list.Close()
	s.live.Stop()
}

func (s *AppointmentsScreen) wait() {
	s.list.Wait()
	s.live.Wait()
}

// RatingScreen форма оценки приёма
type RatingScreen struct {
	live       *live
	ctrl       *rating.Controller
	doctorName string
}

func (s *RatingScreen) render() (string, *models.InlineKeyboardMarkup) {
	return common.BuildRatingScreen(s.ctrl.Snapshot(), s.doctorName)
}

func (s *RatingScreen) message() *live { return s.live }

func (s *RatingScreen) close() {
	s.ctrl.Close()
	s.live.Stop()
}

func (s *RatingScreen) wait() {
	s.ctrl.Wait()
	s.live.Wait()
}
