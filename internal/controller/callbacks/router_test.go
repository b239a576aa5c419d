package callbacks

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/doctor_booking_bot/internal/booking"
	"github.com/Freeeeeet/doctor_booking_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/doctor_booking_bot/internal/controller/flow"
	"github.com/Freeeeeet/doctor_booking_bot/internal/controller/state"
	"github.com/Freeeeeet/doctor_booking_bot/internal/controller/telegramtest"
	"github.com/Freeeeeet/doctor_booking_bot/internal/gateway"
	"github.com/Freeeeeet/doctor_booking_bot/internal/model"
)

var testNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

type fakeAPI struct {
	mu       sync.Mutex
	bookings []model.AppointmentDraft
	ratings  []model.RatingSubmission
}

func (f *fakeAPI) ListDoctors(ctx context.Context, filter gateway.DoctorFilter) ([]model.Doctor, error) {
	all := []model.Doctor{
		{ID: "D1", FirstName: "Ann", LastName: "Lee", Speciality: "CARDIOLOGIST", Rating: 4},
		{ID: "D2", FirstName: "Bob", LastName: "Ray", Speciality: "DENTIST", Rating: 3.5},
	}
	if filter.Speciality == "" {
		return all, nil
	}
	var out []model.Doctor
	for _, d := range all {
		if d.Speciality == filter.Speciality {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeAPI) ListSpecialities(ctx context.Context) ([]string, error) {
	return []string{"CARDIOLOGIST", "DENTIST"}, nil
}

func (f *fakeAPI) ListAvailableSlots(ctx context.Context, doctorID, date string) (*model.SlotList, error) {
	return &model.SlotList{DoctorID: doctorID, AvailableDate: date, TimeSlots: []string{"09:00-10:00", "10:00-11:00"}}, nil
}

func (f *fakeAPI) GetCurrentUser(ctx context.Context) (*model.User, error) {
	return &model.User{EmailID: "pat@example.com", FirstName: "Pat", LastName: "Doe"}, nil
}

func (f *fakeAPI) SubmitBooking(ctx context.Context, draft model.AppointmentDraft) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookings = append(f.bookings, draft)
	return true, nil
}

func (f *fakeAPI) SubmitRating(ctx context.Context, r model.RatingSubmission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ratings = append(f.ratings, r)
	return nil
}

func (f *fakeAPI) ListUserAppointments(ctx context.Context) ([]model.Appointment, error) {
	return []model.Appointment{{
		AppointmentID:   "A1",
		DoctorID:        "D1",
		DoctorName:      "Ann Lee",
		AppointmentDate: "2024-05-20",
	}}, nil
}

type sessions struct{}

func (sessions) Current(ctx context.Context, telegramID int64) (*model.Session, error) {
	return &model.Session{
		TelegramID:  telegramID,
		Email:       "pat@example.com",
		AccessToken: "token",
		ExpiresAt:   testNow.Add(time.Hour),
	}, nil
}

type fixture struct {
	bot     *bot.Bot
	server  *telegramtest.Server
	api     *fakeAPI
	screens *flow.Manager
	states  *state.Manager
	handler *Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	b, server := telegramtest.NewBot(t)
	api := &fakeAPI{}
	screens := flow.NewManager(flow.Config{
		Messenger: b,
		Sessions:  sessions{},
		Gateways:  func(*model.Session) gateway.Gateway { return api },
		Now:       func() time.Time { return testNow },
	})
	t.Cleanup(screens.Shutdown)
	states := state.NewManager()

	return &fixture{
		bot:     b,
		server:  server,
		api:     api,
		screens: screens,
		states:  states,
		handler: NewHandler(screens, states, zap.NewNop()),
	}
}

// press нажимает кнопку на сообщении messageID и ждёт отрисовки
func (f *fixture) press(messageID int, data string) {
	f.handler.HandleCallbackQuery(context.Background(), f.bot, &models.Update{
		CallbackQuery: &models.CallbackQuery{
			ID:   "cb",
			From: models.User{ID: 1},
			Message: models.MaybeInaccessibleMessage{
				Message: &models.Message{ID: messageID, Chat: models.Chat{ID: 10}},
			},
			Data: data,
		},
	})
	f.screens.Wait()
}

func (f *fixture) openDoctors(t *testing.T) {
	t.Helper()
	require.NoError(t, f.screens.OpenDoctors(context.Background(), flow.Target{UserID: 1, ChatID: 10}))
	f.screens.Wait()
}

func (f *fixture) lastAnswer() telegramtest.Call {
	answers := f.server.Method("answerCallbackQuery")
	if len(answers) == 0 {
		return telegramtest.Call{}
	}
	return answers[len(answers)-1]
}

func TestDoctors_FilterAndCard(t *testing.T) {
	f := newFixture(t)
	f.openDoctors(t)

	f.press(501, common.DoctorsSpeciality+"DENTIST")
	assert.Contains(t, f.server.LastText(), "Speciality: DENTIST")
	assert.NotContains(t, f.server.LastMarkup(), "Ann Lee")
	assert.Contains(t, f.server.LastMarkup(), "Bob Ray")

	f.press(501, common.DoctorView+"D2")
	assert.Contains(t, f.server.LastText(), "Dr. Bob Ray")
	assert.False(t, f.lastAnswer().ShowAlert)

	f.press(501, common.DoctorsBack)
	assert.Contains(t, f.server.LastText(), "Choose a doctor")
	assert.Contains(t, f.server.LastMarkup(), "Bob Ray")

	assert.Len(t, f.server.Method("sendMessage"), 1)
}

func TestBooking_FullFlowOnOneMessage(t *testing.T) {
	f := newFixture(t)
	f.openDoctors(t)

	f.press(501, common.DoctorView+"D1")
	f.press(501, common.BookOpen+"D1")
	assert.Contains(t, f.server.LastText(), "Time slot: not selected")
	assert.Contains(t, f.server.LastMarkup(), common.BookSlot+"09:00-10:00")

	f.press(501, common.BookDate+"2024-06-02")
	f.press(501, common.BookSlot+"10:00-11:00")
	assert.Contains(t, f.server.LastText(), "Time slot: 10:00-11:00")

	f.press(501, common.BookSubmit)

	assert.Contains(t, f.server.LastText(), booking.MsgBookingSuccessful)
	require.Len(t, f.api.bookings, 1)
	assert.Equal(t, "2024-06-02", f.api.bookings[0].AppointmentDate)
	assert.Equal(t, "10:00-11:00", f.api.bookings[0].TimeSlot)
	assert.Len(t, f.server.Method("sendMessage"), 1)
}

func TestBooking_SubmitWithoutSlotShowsAlert(t *testing.T) {
	f := newFixture(t)
	f.openDoctors(t)
	f.press(501, common.BookOpen+"D1")

	f.press(501, common.BookSubmit)

	answer := f.lastAnswer()
	assert.True(t, answer.ShowAlert)
	assert.Contains(t, answer.Text, booking.MsgSelectTimeSlot)
	assert.Empty(t, f.api.bookings)
}

func TestBooking_SymptomsPromptSetsState(t *testing.T) {
	f := newFixture(t)
	f.openDoctors(t)
	f.press(501, common.BookOpen+"D1")

	f.press(501, common.BookSymptoms)

	assert.Equal(t, state.StateBookingSymptoms, f.states.GetState(1))
	assert.Equal(t, 502, f.states.Get(1).PromptID)
	assert.Contains(t, f.server.LastText(), "symptoms")
}

func TestRating_FromAppointments(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.screens.OpenAppointments(context.Background(), flow.Target{UserID: 1, ChatID: 10}))
	f.screens.Wait()

	f.press(501, common.RateOpen+"A1")
	f.press(501, common.RateStars+"4.5")
	f.press(501, common.RateSubmit)

	require.Len(t, f.api.ratings, 1)
	assert.Equal(t, 4.5, f.api.ratings[0].Rating)
	assert.Equal(t, "A1", f.api.ratings[0].AppointmentID)
	assert.Contains(t, f.server.LastText(), "Thank you")
}

func TestStaleMessageIsRejected(t *testing.T) {
	f := newFixture(t)
	f.openDoctors(t)

	f.press(999, common.DoctorView+"D1")

	answer := f.lastAnswer()
	assert.True(t, answer.ShowAlert)
	assert.Contains(t, answer.Text, "no longer active")
}

func TestInvalidPageFormat(t *testing.T) {
	f := newFixture(t)
	f.openDoctors(t)

	f.press(501, common.DoctorsPage+"abc")

	assert.Contains(t, f.lastAnswer().Text, "Invalid data format")
}

func TestUnknownCallback(t *testing.T) {
	f := newFixture(t)

	f.press(501, "whatever")

	assert.Equal(t, "❌ Unknown command", f.lastAnswer().Text)
	assert.False(t, f.lastAnswer().ShowAlert)
}
