// Package rating отправляет оценку завершённого приёма
package rating

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/doctor_booking_bot/internal/gateway"
	"github.com/Freeeeeet/doctor_booking_bot/internal/model"
	"github.com/Freeeeeet/doctor_booking_bot/internal/validation"
)

const (
	MinRating = 0.5
	MaxRating = 5.0

	MsgRatingRequired = "Please select a rating before submitting."
	MsgInvalidRating  = "Rating must be between 0.5 and 5 in steps of 0.5."
	MsgSubmitFailed   = "An error occurred while submitting your rating. Please try again later."
	MsgLoginRequired  = "Please login to rate an appointment"
)

var (
	ErrRatingMissing = validation.NewFieldError("rating", MsgRatingRequired)
	ErrInvalidRating = validation.NewFieldError("rating", MsgInvalidRating)
)

var (
	ErrAppointmentUnresolved = errors.New("appointment is not resolved")
	ErrSubmitInFlight        = errors.New("rating submit already in flight")
	ErrAlreadySubmitted      = errors.New("rating already submitted")
	ErrClosed                = errors.New("rating form is closed")
	ErrAuthRequired          = errors.New("authentication required")
)

// Gateway вызов отправки оценки
type Gateway interface {
	SubmitRating(ctx context.Context, rating model.RatingSubmission) error
}

// Config зависимости формы оценки
type Config struct {
	Gateway       Gateway
	AppointmentID string
	DoctorID      string
	Session       *model.Session // только чтение
	Now           func() time.Time
	Logger        *zap.Logger

	OnChange func()
	// OnClosed сигнал хосту закрыть форму после успешной отправки
	OnClosed func(rating model.RatingSubmission)
}

// Snapshot состояние формы для отрисовки
type Snapshot struct {
	AppointmentID string
	DoctorID      string
	Rating        float64
	Comment       string
	RatingMissing bool
	Submitting    bool
	Submitted     bool
	Banner        string
	AuthRequired  bool
}

// Controller форма оценки одного приёма
type Controller struct {
	mu   sync.Mutex
	idle *sync.Cond

	gw       Gateway
	session  *model.Session
	now      func() time.Time
	logger   *zap.Logger
	onChange func()
	onClosed func(model.RatingSubmission)

	appointmentID string
	doctorID      string
	rating        float64
	comment       string
	ratingMissing bool
	inFlight      bool
	submitted     bool
	banner        string
	authRequired  bool
	pending       int
	closed        bool
}

// New создаёт пустую форму
func New(cfg Config) (*Controller, error) {
	if strings.TrimSpace(cfg.AppointmentID) == "" || strings.TrimSpace(cfg.DoctorID) == "" {
		return nil, ErrAppointmentUnresolved
	}
	if cfg.Gateway == nil {
		return nil, fmt.Errorf("rating: gateway is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	c := &Controller{
		gw:      cfg.Gateway,
		session: cfg.Session,
		now:     cfg.Now,
		logger: cfg.Logger.With(
			zap.String("appointment_id", cfg.AppointmentID),
			zap.String("doctor_id", cfg.DoctorID)),
		onChange:      cfg.OnChange,
		onClosed:      cfg.OnClosed,
		appointmentID: cfg.AppointmentID,
		doctorID:      cfg.DoctorID,
	}
	c.idle = sync.NewCond(&c.mu)
	return c, nil
}

// SetRating выставляет оценку; 0 сбрасывает её
func (c *Controller) SetRating(value float64) error {
	if value != 0 && (!validation.InRange(value, MinRating, MaxRating) || !validation.IsHalfStep(value)) {
		return ErrInvalidRating
	}

	c.mu.Lock()
	if err := c.editGuardLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	c.rating = value
	c.ratingMissing = false
	c.mu.Unlock()

	c.notify()
	return nil
}

// SetComment обновляет комментарий, он необязателен
func (c *Controller) SetComment(text string) error {
	c.mu.Lock()
	if err := c.editGuardLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	c.comment = text
	c.mu.Unlock()

	c.notify()
	return nil
}

// Submit отправляет оценку. Нулевая оценка и истёкшая сессия
// отклоняются без обращения к сети.
func (c *Controller) Submit() error {
	c.mu.Lock()
	if err := c.editGuardLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if !c.session.IsAuthenticated(c.now()) {
		c.authRequired = true
		c.banner = MsgLoginRequired
		c.mu.Unlock()
		c.notify()
		return ErrAuthRequired
	}
	c.authRequired = false
	if c.rating == 0 {
		c.ratingMissing = true
		c.mu.Unlock()
		c.notify()
		return ErrRatingMissing
	}

	sub := model.RatingSubmission{
		AppointmentID: c.appointmentID,
		DoctorID:      c.doctorID,
		Rating:        c.rating,
		Comment:       c.comment,
	}
	if err := validation.Struct(sub); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("validate rating: %w", err)
	}

	c.inFlight = true
	c.banner = ""
	c.pending++
	intent := uuid.NewString()
	c.mu.Unlock()

	go c.run(sub, intent)
	c.notify()
	return nil
}

// Close отвязывает форму. Незавершённая отправка доходит до конца,
// её результат игнорируется.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// Wait ждёт завершения отправки
func (c *Controller) Wait() {
	c.mu.Lock()
	for c.pending > 0 {
		c.idle.Wait()
	}
	c.mu.Unlock()
}

// Snapshot состояние формы
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		AppointmentID: c.appointmentID,
		DoctorID:      c.doctorID,
		Rating:        c.rating,
		Comment:       c.comment,
		RatingMissing: c.ratingMissing,
		Submitting:    c.inFlight,
		Submitted:     c.submitted,
		Banner:        c.banner,
		AuthRequired:  c.authRequired,
	}
}

func (c *Controller) run(sub model.RatingSubmission, intent string) {
	ctx := gateway.WithIdempotencyKey(context.Background(), intent)
	err := c.gw.SubmitRating(ctx, sub)
	c.settle(sub, intent, err)
}

func (c *Controller) settle(sub model.RatingSubmission, intent string, err error) {
	defer c.done()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.inFlight = false
	if err != nil {
		c.banner = MsgSubmitFailed
		c.mu.Unlock()
		c.logger.Error("Rating submit failed",
			zap.String("intent_id", intent),
			zap.Stringer("kind", gateway.Classify(err)),
			zap.Error(err))
		c.notify()
		return
	}
	c.submitted = true
	onClosed := c.onClosed
	c.mu.Unlock()

	c.logger.Info("Rating submitted",
		zap.String("intent_id", intent),
		zap.Float64("rating", sub.Rating))
	c.notify()
	if onClosed != nil {
		onClosed(sub)
	}
}

func (c *Controller) done() {
	c.mu.Lock()
	c.pending--
	c.mu.Unlock()
	c.idle.Broadcast()
}

func (c *Controller) editGuardLocked() error {
	switch {
	case c.closed:
		return ErrClosed
	case c.inFlight:
		return ErrSubmitInFlight
	case c.submitted:
		return ErrAlreadySubmitted
	}
	return nil
}

func (c *Controller) notify() {
	if c.onChange != nil {
		c.onChange()
	}
}
