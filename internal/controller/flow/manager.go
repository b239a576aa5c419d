// Package flow держит активный экран каждого пользователя: контроллер
// сценария и сообщение чата, которое перерисовывается при его изменениях.
//
// У пользователя одновременно открыт один экран. Открытие нового экрана
// закрывает предыдущий, и поздние ответы сервера для старого экрана
// больше ничего не меняют.
package flow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/doctor_booking_bot/internal/booking"
	"github.com/Freeeeeet/doctor_booking_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/doctor_booking_bot/internal/gateway"
	"github.com/Freeeeeet/doctor_booking_bot/internal/listing"
	"github.com/Freeeeeet/doctor_booking_bot/internal/model"
	"github.com/Freeeeeet/doctor_booking_bot/internal/rating"
)

// ErrShutdown менеджер остановлен
var ErrShutdown = errors.New("flow manager is shut down")

// Sessions источник текущей сессии пользователя
type Sessions interface {
	Current(ctx context.Context, telegramID int64) (*model.Session, error)
}

// GatewayFactory возвращает клиент API от имени сессии (nil - анонимно)
type GatewayFactory func(session *model.Session) gateway.Gateway

// Target куда рисовать экран. MessageID 0 означает новое сообщение.
type Target struct {
	UserID    int64
	ChatID    int64
	MessageID int
}

// Config зависимости менеджера
type Config struct {
	Messenger Messenger
	Sessions  Sessions
	Gateways  GatewayFactory
	Now       func() time.Time
	Logger    *zap.Logger
}

type screen interface {
	message() *live
	close()
	wait()
}

// Manager реестр активных экранов по пользователям
type Manager struct {
	msgr     Messenger
	sessions Sessions
	gateways GatewayFactory
	now      func() time.Time
	logger   *zap.Logger

	mu       sync.Mutex
	screens  map[int64]screen
	shutdown bool
	pending  sync.WaitGroup
}

// NewManager создаёт менеджер экранов
func NewManager(cfg Config) *Manager {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Manager{
		msgr:     cfg.Messenger,
		sessions: cfg.Sessions,
		gateways: cfg.Gateways,
		now:      cfg.Now,
		logger:   cfg.Logger,
		screens:  make(map[int64]screen),
	}
}

// OpenDoctors открывает список врачей
func (m *Manager) OpenDoctors(ctx context.Context, t Target) error {
	sess, err := m.session(ctx, t.UserID)
	if err != nil {
		return err
	}

	s := &DoctorsScreen{}
	s.live = newLive(m.msgr, t.ChatID, t.MessageID, m.logger)
	s.live.render = s.render
	s.list = listing.NewDoctorList(m.gateways(sess), m.userLogger(t.UserID), s.live.Invalidate)

	if err := m.replace(t.UserID, s); err != nil {
		return err
	}
	if err := s.list.Mount(); err != nil {
		return err
	}
	s.live.Invalidate()
	return nil
}

// OpenBooking открывает запись к врачу из открытого списка врачей
func (m *Manager) OpenBooking(ctx context.Context, t Target, doctorID string) error {
	doctors, err := lookup[*DoctorsScreen](m, t.UserID, t.MessageID)
	if err != nil {
		return err
	}
	doctor, ok := doctors.Doctor(doctorID)
	if !ok {
		return common.ErrDoctorNotFound
	}

	sess, err := m.session(ctx, t.UserID)
	if err != nil {
		return err
	}

	s := &BookingScreen{now: m.now}
	s.live = newLive(m.msgr, t.ChatID, t.MessageID, m.logger)
	s.live.render = s.render
	s.ctrl, err = booking.New(booking.Config{
		Gateway:  m.gateways(sess),
		Doctor:   doctor,
		Session:  sess,
		Now:      m.now,
		Logger:   m.userLogger(t.UserID),
		OnChange: s.live.Invalidate,
		OnAccepted: func(draft model.AppointmentDraft) {
			m.logger.Info("Appointment booked",
				zap.Int64("telegram_id", t.UserID),
				zap.String("doctor_id", draft.DoctorID),
				zap.String("date", draft.AppointmentDate),
				zap.String("time_slot", draft.TimeSlot))
			m.finish(t.UserID, s)
		},
	})
	if err != nil {
		return err
	}

	if err := m.replace(t.UserID, s); err != nil {
		return err
	}
	if err := s.ctrl.Mount(); err != nil && !errors.Is(err, booking.ErrAuthRequired) {
		return err
	}
	s.live.Invalidate()
	return nil
}

// OpenAppointments открывает записи пользователя
func (m *Manager) OpenAppointments(ctx context.Context, t Target) error {
	sess, err := m.session(ctx, t.UserID)
	if err != nil {
		return err
	}

	s := &AppointmentsScreen{}
	s.live = newLive(m.msgr, t.ChatID, t.MessageID, m.logger)
	s.live.render = s.render
	s.list = listing.NewAppointmentList(m.gateways(sess), sess, m.now, m.userLogger(t.UserID), s.live.Invalidate)

	if err := m.replace(t.UserID, s); err != nil {
		return err
	}
	if err := s.list.Mount(); err != nil && !errors.Is(err, listing.ErrAuthRequired) {
		return err
	}
	s.live.Invalidate()
	return nil
}

// OpenRating открывает форму оценки записи из открытого списка записей
func (m *Manager) OpenRating(ctx context.Context, t Target, appointmentID string) error {
	appts, err := lookup[*AppointmentsScreen](m, t.UserID, t.MessageID)
	if err != nil {
		return err
	}
	appt, ok := appts.Appointment(appointmentID)
	if !ok {
		return common.ErrAppointmentNotFound
	}

	sess, err := m.session(ctx, t.UserID)
	if err != nil {
		return err
	}

	s := &RatingScreen{doctorName: appt.DoctorName}
	s.live = newLive(m.msgr, t.ChatID, t.MessageID, m.logger)
	s.live.render = s.render
	s.ctrl, err = rating.New(rating.Config{
		Gateway:       m.gateways(sess),
		AppointmentID: appt.AppointmentID,
		DoctorID:      appt.DoctorID,
		Session:       sess,
		Now:           m.now,
		Logger:        m.userLogger(t.UserID),
		OnChange:      s.live.Invalidate,
		OnClosed: func(r model.RatingSubmission) {
			m.logger.Info("Appointment rated",
				zap.Int64("telegram_id", t.UserID),
				zap.String("appointment_id", r.AppointmentID),
				zap.Float64("rating", r.Rating))
			m.finish(t.UserID, s)
		},
	})
	if err != nil {
		return err
	}

	if err := m.replace(t.UserID, s); err != nil {
		return err
	}
	s.live.Invalidate()
	return nil
}

// Doctors открытый список врачей. messageID 0 пропускает проверку сообщения.
func (m *Manager) Doctors(userID int64, messageID int) (*DoctorsScreen, error) {
	return lookup[*DoctorsScreen](m, userID, messageID)
}

// Booking открытый сценарий записи
func (m *Manager) Booking(userID int64, messageID int) (*booking.Controller, error) {
	s, err := lookup[*BookingScreen](m, userID, messageID)
	if err != nil {
		return nil, err
	}
	return s.ctrl, nil
}

// Appointments открытый список записей
func (m *Manager) Appointments(userID int64, messageID int) (*listing.AppointmentList, error) {
	s, err := lookup[*AppointmentsScreen](m, userID, messageID)
	if err != nil {
		return nil, err
	}
	return s.list, nil
}

// Rating открытая форма оценки
func (m *Manager) Rating(userID int64, messageID int) (*rating.Controller, error) {
	s, err := lookup[*RatingScreen](m, userID, messageID)
	if err != nil {
		return nil, err
	}
	return s.ctrl, nil
}

// Close закрывает активный экран пользователя, если он есть
func (m *Manager) Close(userID int64) {
	m.mu.Lock()
	s, ok := m.screens[userID]
	delete(m.screens, userID)
	m.mu.Unlock()

	if ok {
		m.retire(s)
	}
}

// Shutdown закрывает все экраны и ждёт завершения их вызовов и отрисовок
func (m *Manager) Shutdown() {
	m.mu.Lock()
	m.shutdown = true
	all := make([]screen, 0, len(m.screens))
	for id, s := range m.screens {
		all = append(all, s)
		delete(m.screens, id)
	}
	m.mu.Unlock()

	for _, s := range all {
		m.retire(s)
	}
	m.pending.Wait()
}

// Wait ждёт завершения вызовов и отрисовок всех экранов, включая закрытые
func (m *Manager) Wait() {
	m.mu.Lock()
	all := make([]screen, 0, len(m.screens))
	for _, s := range m.screens {
		all = append(all, s)
	}
	m.mu.Unlock()

	for _, s := range all {
		s.wait()
	}
	m.pending.Wait()
}

func (m *Manager) replace(userID int64, s screen) error {
	m.mu.Lock()
	if m.shutdown {
		m.mu.Unlock()
		s.close()
		return ErrShutdown
	}
	old, ok := m.screens[userID]
	m.screens[userID] = s
	m.mu.Unlock()

	if ok {
		if old.message().chatID == s.message().chatID {
			s.message().follow(old.message())
		}
		m.retire(old)
	}
	return nil
}

// finish снимает экран после успешного завершения сценария.
// Последняя отрисовка уже запрошена контроллером и будет выполнена.
func (m *Manager) finish(userID int64, s screen) {
	m.mu.Lock()
	cur, ok := m.screens[userID]
	if ok && cur == s {
		delete(m.screens, userID)
	}
	m.mu.Unlock()

	if ok && cur == s {
		m.retire(s)
	}
}

// retire закрывает экран сразу, а дожидается его вызовов в фоне:
// finish вызывается изнутри завершающегося вызова контроллера.
func (m *Manager) retire(s screen) {
	s.close()
	m.pending.Add(1)
	go func() {
		defer m.pending.Done()
		s.wait()
	}()
}

func (m *Manager) session(ctx context.Context, userID int64) (*model.Session, error) {
	if m.sessions == nil {
		return nil, nil
	}
	sess, err := m.sessions.Current(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

func (m *Manager) userLogger(userID int64) *zap.Logger {
	return m.logger.With(zap.Int64("telegram_id", userID))
}

func lookup[S screen](m *Manager, userID int64, messageID int) (S, error) {
	var zero S

	m.mu.Lock()
	cur, ok := m.screens[userID]
	m.mu.Unlock()
	if !ok {
		return zero, common.ErrScreenExpired
	}
	s, ok := cur.(S)
	if !ok {
		return zero, common.ErrScreenExpired
	}
	if messageID != 0 && cur.message().MessageID() != messageID {
		return zero, common.ErrScreenExpired
	}
	return s, nil
}
