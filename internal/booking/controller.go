// Package booking управляет выбором даты и слота у конкретного врача и
// отправкой записи с учётом конфликта слота на стороне сервера.
package booking

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/doctor_booking_bot/internal/gateway"
	"github.com/Freeeeeet/doctor_booking_bot/internal/model"
	"github.com/Freeeeeet/doctor_booking_bot/internal/resource"
	"github.com/Freeeeeet/doctor_booking_bot/internal/validation"
)

// Phase состояние сценария записи
type Phase string

const (
	PhaseIdle           Phase = "idle"
	PhaseLoadingSlots   Phase = "loading_slots"
	PhaseSlotsReady     Phase = "slots_ready"
	PhaseSlotsError     Phase = "slots_error"
	PhaseSubmitting     Phase = "submitting"
	PhaseSubmitConflict Phase = "submit_conflict"
	PhaseSubmitError    Phase = "submit_error"
	PhaseSubmitAccepted Phase = "submit_accepted"
)

type submitStatus int

const (
	submitNone submitStatus = iota
	submitInFlight
	submitConflict
	submitFailed
	submitAccepted
)

// SlotKey ключ загрузки слотов: врач и дата
type SlotKey struct {
	DoctorID string
	Date     string
}

// Gateway часть удалённого API, нужная сценарию записи
type Gateway interface {
	ListAvailableSlots(ctx context.Context, doctorID, date string) (*model.SlotList, error)
	GetCurrentUser(ctx context.Context) (*model.User, error)
	SubmitBooking(ctx context.Context, draft model.AppointmentDraft) (bool, error)
}

// Config зависимости контроллера
type Config struct {
	Gateway Gateway
	Doctor  model.Doctor
	Session *model.Session // только чтение
	Now     func() time.Time
	Logger  *zap.Logger

	// OnChange вызывается после любого изменения состояния.
	// Не должен синхронно вызывать методы контроллера, кроме Snapshot.
	OnChange func()
	// OnAccepted сигнал хосту закрыть сценарий
	OnAccepted func(draft model.AppointmentDraft)
}

// Snapshot состояние для отрисовки
type Snapshot struct {
	Phase               Phase
	Doctor              model.Doctor
	Date                time.Time
	Slots               []string
	SlotsLoading        bool
	SlotsError          string
	SelectedTimeSlot    string
	TimeSlotMissing     bool
	PastDate            bool
	UserLoading         bool
	UserError           string
	Symptoms            string
	PriorMedicalHistory string
	Banner              string
	AuthRequired        bool
}

// Controller сценарий записи к одному врачу
type Controller struct {
	opMu sync.Mutex // упорядочивает намерения пользователя и завершение отправки
	mu   sync.Mutex // защищает поля ниже
	idle *sync.Cond

	gw         Gateway
	doctor     model.Doctor
	session    *model.Session
	now        func() time.Time
	logger     *zap.Logger
	onChange   func()
	onAccepted func(model.AppointmentDraft)

	slots *resource.Resource[SlotKey, *model.SlotList]
	user  *resource.Resource[struct{}, *model.User]

	date            time.Time
	selected        string
	timeSlotMissing bool
	pastDate        bool
	symptoms        string
	history         string
	submit          submitStatus
	banner          string
	authRequired    bool
	submits         int
	mounted         bool
	closed          bool
}

// New создаёт контроллер в состоянии Idle
func New(cfg Config) (*Controller, error) {
	if strings.TrimSpace(cfg.Doctor.ID) == "" {
		return nil, ErrDoctorUnresolved
	}
	if cfg.Gateway == nil {
		return nil, fmt.Errorf("booking: gateway is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	c := &Controller{
		gw:         cfg.Gateway,
		doctor:     cfg.Doctor,
		session:    cfg.Session,
		now:        cfg.Now,
		logger:     cfg.Logger.With(zap.String("doctor_id", cfg.Doctor.ID)),
		onChange:   cfg.OnChange,
		onAccepted: cfg.OnAccepted,
	}
	c.idle = sync.NewCond(&c.mu)

	c.slots = resource.New[SlotKey, *model.SlotList](
		func(ctx context.Context, key SlotKey) (*model.SlotList, error) {
			return c.gw.ListAvailableSlots(ctx, key.DoctorID, key.Date)
		},
		resource.WithName("time_slots"),
		resource.WithLogger(c.logger),
		resource.WithOnChange(c.notify),
	)
	c.user = resource.New[struct{}, *model.User](
		func(ctx context.Context, _ struct{}) (*model.User, error) {
			return c.gw.GetCurrentUser(ctx)
		},
		resource.WithName("user_details"),
		resource.WithLogger(c.logger),
		resource.WithOnChange(c.notify),
	)

	return c, nil
}

// Mount запускает загрузку слотов на сегодня и данных пользователя.
// Без авторизации ничего не запрашивается.
func (c *Controller) Mount() error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.mounted {
		c.mu.Unlock()
		return nil
	}
	c.mounted = true
	if !c.session.IsAuthenticated(c.now()) {
		c.authRequired = true
		c.banner = MsgLoginRequired
		c.mu.Unlock()
		c.notify()
		return ErrAuthRequired
	}
	c.date = model.DateOnly(c.now())
	key := c.slotKeyLocked()
	c.mu.Unlock()

	c.slots.SetKey(key)
	c.user.SetKey(struct{}{})
	return nil
}

// SelectDate меняет дату приёма. Прошедшая дата отклоняется сразу.
// Смена даты всегда сбрасывает выбранный слот и перезагружает список.
func (c *Controller) SelectDate(date time.Time) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if err := c.intentGuardLocked(); err != nil {
		c.mu.Unlock()
		return err
	}

	today := model.DateOnly(c.now())
	y, m, d := date.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, today.Location())
	if day.Before(today) {
		c.pastDate = true
		c.mu.Unlock()
		c.notify()
		return ErrPastDate
	}
	c.pastDate = false

	changed := !day.Equal(c.date)
	if changed {
		c.date = day
		c.selected = ""
		c.timeSlotMissing = false
		c.resetSubmitLocked()
	}
	key := c.slotKeyLocked()
	c.mu.Unlock()

	if changed {
		c.slots.SetKey(key)
		return nil
	}
	c.notify()
	return nil
}

// SelectTimeSlot выбирает слот из загруженного списка.
// Пока список перезагружается, выбор отклоняется: старый список уже не актуален.
func (c *Controller) SelectTimeSlot(slot string) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if err := c.intentGuardLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	st := c.slots.State()
	if st.Loading {
		c.mu.Unlock()
		return ErrSlotsNotReady
	}
	if !st.HasValue || st.Value == nil || !st.Value.Has(slot) {
		c.mu.Unlock()
		return ErrUnknownTimeSlot
	}
	c.selected = slot
	c.timeSlotMissing = false
	c.resetSubmitLocked()
	c.mu.Unlock()

	c.notify()
	return nil
}

// SetSymptoms обновляет черновик
func (c *Controller) SetSymptoms(text string) {
	c.mu.Lock()
	c.symptoms = text
	c.mu.Unlock()
	c.notify()
}

// SetPriorMedicalHistory обновляет черновик
func (c *Controller) SetPriorMedicalHistory(text string) {
	c.mu.Lock()
	c.history = text
	c.mu.Unlock()
	c.notify()
}

// DismissError убирает баннер ошибки отправки, выбор сохраняется
func (c *Controller) DismissError() {
	c.mu.Lock()
	if c.submit == submitConflict || c.submit == submitFailed {
		c.resetSubmitLocked()
	}
	c.mu.Unlock()
	c.notify()
}

// Retry повторяет упавшие загрузки слотов и данных пользователя
func (c *Controller) Retry() error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if err := c.intentGuardLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()

	if c.slots.State().Err != nil {
		c.slots.Reload()
	}
	if c.user.State().Err != nil {
		c.user.Reload()
	}
	return nil
}

// Submit отправляет запись. Повторный вызов во время отправки отклоняется,
// без выбранного слота запрос не уходит и поднимается флаг поля.
func (c *Controller) Submit() error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	switch c.submit {
	case submitInFlight:
		c.mu.Unlock()
		return ErrSubmitInFlight
	case submitAccepted:
		c.mu.Unlock()
		return ErrAlreadyAccepted
	}
	if !c.session.IsAuthenticated(c.now()) {
		c.authRequired = true
		c.banner = MsgLoginRequired
		c.mu.Unlock()
		c.notify()
		return ErrAuthRequired
	}
	if !c.mounted {
		c.mu.Unlock()
		return ErrNotMounted
	}

	slots := c.slots.State()
	if slots.Loading || !slots.HasValue || slots.Err != nil {
		c.mu.Unlock()
		return ErrSlotsNotReady
	}
	c.dropStaleSelectionLocked(slots)
	if c.selected == "" {
		c.timeSlotMissing = true
		c.mu.Unlock()
		c.notify()
		return ErrTimeSlotMissing
	}

	user := c.user.State()
	if !user.HasValue || user.Value == nil {
		c.banner = MsgIdentityUnresolved
		c.mu.Unlock()
		c.notify()
		return ErrIdentityUnresolved
	}

	draft := c.draftLocked(user.Value)
	if err := validation.Struct(draft); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("validate draft: %w", err)
	}

	c.submit = submitInFlight
	c.banner = ""
	c.submits++
	intent := uuid.NewString()
	c.mu.Unlock()

	c.logger.Info("Submitting booking",
		zap.String("date", draft.AppointmentDate),
		zap.String("time_slot", draft.TimeSlot),
		zap.String("intent_id", intent))

	go c.runSubmit(draft, intent)
	c.notify()
	return nil
}

// Close отвязывает контроллер. Незавершённые вызовы доходят до конца,
// их результаты игнорируются.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.slots.Close()
	c.user.Close()
}

// Wait ждёт завершения всех запущенных вызовов
func (c *Controller) Wait() {
	c.mu.Lock()
	for c.submits > 0 {
		c.idle.Wait()
	}
	c.mu.Unlock()

	c.slots.Wait()
	c.user.Wait()
}

// Phase текущее состояние сценария
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phaseLocked(c.slots.State())
}

// Snapshot состояние для отрисовки
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	slots := c.slots.State()
	user := c.user.State()
	c.dropStaleSelectionLocked(slots)

	snap := Snapshot{
		Phase:               c.phaseLocked(slots),
		Doctor:              c.doctor,
		Date:                c.date,
		SlotsLoading:        slots.Loading,
		SelectedTimeSlot:    c.selected,
		TimeSlotMissing:     c.timeSlotMissing,
		PastDate:            c.pastDate,
		UserLoading:         user.Loading,
		Symptoms:            c.symptoms,
		PriorMedicalHistory: c.history,
		Banner:              c.banner,
		AuthRequired:        c.authRequired,
	}
	if slots.HasValue && slots.Value != nil {
		snap.Slots = append([]string(nil), slots.Value.TimeSlots...)
	}
	if slots.Err != nil {
		snap.SlotsError = MsgSlotsFailed
	}
	if user.Err != nil {
		snap.UserError = MsgUserFailed
	}
	return snap
}

func (c *Controller) runSubmit(draft model.AppointmentDraft, intent string) {
	ctx := gateway.WithIdempotencyKey(context.Background(), intent)
	accepted, err := c.gw.SubmitBooking(ctx, draft)
	c.settleSubmit(draft, intent, accepted, err)
}

func (c *Controller) settleSubmit(draft model.AppointmentDraft, intent string, accepted bool, err error) {
	defer c.submitDone()

	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	var refetch, done bool
	switch {
	case err != nil:
		c.submit = submitFailed
		c.banner = MsgBookingFailed
		c.logger.Error("Booking submit failed",
			zap.String("intent_id", intent),
			zap.Stringer("kind", gateway.Classify(err)),
			zap.Error(err))
	case !accepted:
		c.submit = submitConflict
		c.banner = MsgSlotConflict
		c.selected = ""
		refetch = true
		c.logger.Info("Booking rejected: slot taken",
			zap.String("intent_id", intent),
			zap.String("date", draft.AppointmentDate),
			zap.String("time_slot", draft.TimeSlot))
	default:
		c.submit = submitAccepted
		c.banner = MsgBookingSuccessful
		c.selected = ""
		c.symptoms = ""
		c.history = ""
		done = true
		c.logger.Info("Booking accepted",
			zap.String("intent_id", intent),
			zap.String("date", draft.AppointmentDate),
			zap.String("time_slot", draft.TimeSlot))
	}
	onAccepted := c.onAccepted
	c.mu.Unlock()

	if refetch {
		c.slots.Reload()
	}
	c.notify()
	if done && onAccepted != nil {
		onAccepted(draft)
	}
}

func (c *Controller) submitDone() {
	c.mu.Lock()
	c.submits--
	c.mu.Unlock()
	c.idle.Broadcast()
}

func (c *Controller) intentGuardLocked() error {
	switch {
	case c.closed:
		return ErrClosed
	case c.authRequired:
		return ErrAuthRequired
	case !c.mounted:
		return ErrNotMounted
	case c.submit == submitInFlight:
		return ErrSubmitInFlight
	case c.submit == submitAccepted:
		return ErrAlreadyAccepted
	}
	return nil
}

func (c *Controller) resetSubmitLocked() {
	if c.submit == submitConflict || c.submit == submitFailed {
		c.submit = submitNone
		c.banner = ""
	}
}

func (c *Controller) phaseLocked(slots resource.State[SlotKey, *model.SlotList]) Phase {
	switch c.submit {
	case submitAccepted:
		return PhaseSubmitAccepted
	case submitInFlight:
		return PhaseSubmitting
	case submitConflict:
		return PhaseSubmitConflict
	case submitFailed:
		return PhaseSubmitError
	}
	switch {
	case !slots.HasKey:
		return PhaseIdle
	case slots.Loading:
		return PhaseLoadingSlots
	case slots.Err != nil:
		return PhaseSlotsError
	default:
		return PhaseSlotsReady
	}
}

// dropStaleSelectionLocked сбрасывает выбор, которого нет в загруженном списке
func (c *Controller) dropStaleSelectionLocked(slots resource.State[SlotKey, *model.SlotList]) {
	if c.selected == "" || slots.Loading || !slots.HasValue {
		return
	}
	if slots.Value == nil || !slots.Value.Has(c.selected) {
		c.logger.Debug("Dropping time slot missing from reloaded list",
			zap.String("time_slot", c.selected))
		c.selected = ""
	}
}

func (c *Controller) slotKeyLocked() SlotKey {
	return SlotKey{DoctorID: c.doctor.ID, Date: model.FormatDate(c.date)}
}

func (c *Controller) draftLocked(user *model.User) model.AppointmentDraft {
	return model.AppointmentDraft{
		DoctorID:            c.doctor.ID,
		DoctorName:          c.doctor.FullName(),
		UserID:              user.EmailID,
		UserName:            user.FirstName,
		UserEmailID:         user.EmailID,
		TimeSlot:            c.selected,
		AppointmentDate:     model.FormatDate(c.date),
		Symptoms:            orNotAvailable(c.symptoms),
		PriorMedicalHistory: orNotAvailable(c.history),
	}
}

func (c *Controller) notify() {
	if c.onChange != nil {
		c.onChange()
	}
}

func orNotAvailable(s string) string {
	if strings.TrimSpace(s) == "" {
		return model.NotAvailable
	}
	return s
}
