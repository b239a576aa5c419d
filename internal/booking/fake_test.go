package booking

import (
	"context"
	"sync"
	"time"

	"github.com/Freeeeeet/doctor_booking_bot/internal/gateway"
	"github.com/Freeeeeet/doctor_booking_bot/internal/model"
)

type fakeGateway struct {
	mu sync.Mutex

	// slots отвечает на n-й (с нуля) вызов для ключа
	slots     func(key SlotKey, n int) (*model.SlotList, error)
	slotGates map[string]chan struct{}
	slotCalls []SlotKey

	user     *model.User
	userErr  error
	userGate chan struct{}

	submit      func(draft model.AppointmentDraft) (bool, error)
	submitGate  chan struct{}
	submitCalls []model.AppointmentDraft
	intents     []string
	// submitCtxErr состояние контекста отправки после её завершения
	submitCtxErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		slots: func(key SlotKey, n int) (*model.SlotList, error) {
			return &model.SlotList{DoctorID: key.DoctorID, AvailableDate: key.Date, TimeSlots: []string{"09:00", "10:00"}}, nil
		},
		slotGates: make(map[string]chan struct{}),
		user:      &model.User{EmailID: "pat@example.com", FirstName: "Pat", LastName: "Doe"},
		submit: func(draft model.AppointmentDraft) (bool, error) {
			return true, nil
		},
	}
}

// gateDate блокирует загрузку слотов на дату до вызова возвращённой функции
func (f *fakeGateway) gateDate(date string) func() {
	ch := make(chan struct{})
	f.mu.Lock()
	f.slotGates[date] = ch
	f.mu.Unlock()
	return func() { close(ch) }
}

func (f *fakeGateway) ListAvailableSlots(ctx context.Context, doctorID, date string) (*model.SlotList, error) {
	key := SlotKey{DoctorID: doctorID, Date: date}
	f.mu.Lock()
	n := 0
	for _, k := range f.slotCalls {
		if k == key {
			n++
		}
	}
	f.slotCalls = append(f.slotCalls, key)
	gate := f.slotGates[date]
	fn := f.slots
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return fn(key, n)
}

func (f *fakeGateway) GetCurrentUser(ctx context.Context) (*model.User, error) {
	f.mu.Lock()
	gate := f.userGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if f.userErr != nil {
		return nil, f.userErr
	}
	u := *f.user
	return &u, nil
}

func (f *fakeGateway) SubmitBooking(ctx context.Context, draft model.AppointmentDraft) (bool, error) {
	f.mu.Lock()
	f.submitCalls = append(f.submitCalls, draft)
	if key, ok := gateway.IdempotencyKey(ctx); ok {
		f.intents = append(f.intents, key)
	}
	gate := f.submitGate
	fn := f.submit
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	f.submitCtxErr = ctx.Err()
	f.mu.Unlock()
	return fn(draft)
}

func (f *fakeGateway) slotCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.slotCalls)
}

func (f *fakeGateway) submitCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submitCalls)
}

func fixedClock(date string) func() time.Time {
	t, err := time.ParseInLocation(model.DateLayout, date, time.UTC)
	if err != nil {
		panic(err)
	}
	t = t.Add(9 * time.Hour)
	return func() time.Time { return t }
}

func authedSession(now func() time.Time) *model.Session {
	return &model.Session{
		TelegramID:  42,
		Email:       "pat@example.com",
		FirstName:   "Pat",
		AccessToken: "token",
		ExpiresAt:   now().Add(time.Hour),
	}
}

func mustDate(s string) time.Time {
	t, err := time.ParseInLocation(model.DateLayout, s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}
