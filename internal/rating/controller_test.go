package rating

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/doctor_booking_bot/internal/gateway"
	"github.com/Freeeeeet/doctor_booking_bot/internal/model"
	"github.com/Freeeeeet/doctor_booking_bot/internal/validation"
)

type fakeGateway struct {
	mu      sync.Mutex
	err     error
	gate    chan struct{}
	calls   []model.RatingSubmission
	intents []string
	ctxErr  error
}

func (f *fakeGateway) SubmitRating(ctx context.Context, r model.RatingSubmission) error {
	f.mu.Lock()
	f.calls = append(f.calls, r)
	if key, ok := gateway.IdempotencyKey(ctx); ok {
		f.intents = append(f.intents, key)
	}
	gate := f.gate
	err := f.err
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	f.ctxErr = ctx.Err()
	f.mu.Unlock()
	return err
}

func (f *fakeGateway) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

var testNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func validSession() *model.Session {
	return &model.Session{TelegramID: 42, AccessToken: "token", ExpiresAt: testNow.Add(time.Hour)}
}

func newForm(t *testing.T, gw *fakeGateway, onClosed func(model.RatingSubmission)) *Controller {
	t.Helper()
	c, err := New(Config{
		Gateway:       gw,
		AppointmentID: "A1",
		DoctorID:      "D1",
		Session:       validSession(),
		Now:           func() time.Time { return testNow },
		OnClosed:      onClosed,
	})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestNew_RequiresAppointment(t *testing.T) {
	_, err := New(Config{Gateway: &fakeGateway{}, DoctorID: "D1"})
	assert.ErrorIs(t, err, ErrAppointmentUnresolved)
}

func TestSubmit_ZeroRatingRejectedLocally(t *testing.T) {
	comments := []string{"", "fine", strings.Repeat("long comment ", 500)}
	for _, comment := range comments {
		gw := &fakeGateway{}
		c := newForm(t, gw, nil)
		require.NoError(t, c.SetComment(comment))

		err := c.Submit()
		require.ErrorIs(t, err, ErrRatingMissing)
		var fe *validation.FieldError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, MsgRatingRequired, fe.Message)

		c.Wait()
		snap := c.Snapshot()
		assert.True(t, snap.RatingMissing)
		assert.Empty(t, snap.Banner, "field error is not a banner")
		assert.Zero(t, gw.callCount())
	}
}

func TestSetRating_ClearsMissingFlag(t *testing.T) {
	c := newForm(t, &fakeGateway{}, nil)
	require.ErrorIs(t, c.Submit(), ErrRatingMissing)
	require.NoError(t, c.SetRating(3.5))
	assert.False(t, c.Snapshot().RatingMissing)
}

func TestSetRating_RejectsOffStepValues(t *testing.T) {
	c := newForm(t, &fakeGateway{}, nil)
	for _, v := range []float64{0.3, 5.5, -1, 4.75} {
		assert.ErrorIs(t, c.SetRating(v), ErrInvalidRating, "value %v", v)
	}
	assert.Zero(t, c.Snapshot().Rating)
}

func TestSubmit_SuccessClosesForm(t *testing.T) {
	gw := &fakeGateway{}
	var got model.RatingSubmission
	closed := 0
	c := newForm(t, gw, func(r model.RatingSubmission) {
		got = r
		closed++
	})

	require.NoError(t, c.SetRating(4.5))
	require.NoError(t, c.SetComment("Very attentive"))
	require.NoError(t, c.Submit())
	c.Wait()

	assert.Equal(t, 1, closed)
	assert.Equal(t, model.RatingSubmission{AppointmentID: "A1", DoctorID: "D1", Rating: 4.5, Comment: "Very attentive"}, got)
	assert.True(t, c.Snapshot().Submitted)
	require.Len(t, gw.intents, 1)
	assert.ErrorIs(t, c.Submit(), ErrAlreadySubmitted)
}

func TestSubmit_FailureKeepsFormForRetry(t *testing.T) {
	gw := &fakeGateway{err: &gateway.TransportError{Op: "submit rating", Status: 503, Err: errors.New("unavailable")}}
	closed := false
	c := newForm(t, gw, func(model.RatingSubmission) { closed = true })

	require.NoError(t, c.SetRating(2))
	require.NoError(t, c.SetComment("Late"))
	require.NoError(t, c.Submit())
	c.Wait()

	snap := c.Snapshot()
	assert.False(t, closed)
	assert.Equal(t, MsgSubmitFailed, snap.Banner)
	assert.Equal(t, 2.0, snap.Rating)
	assert.Equal(t, "Late", snap.Comment)
	assert.False(t, snap.Submitting)

	gw.mu.Lock()
	gw.err = nil
	gw.mu.Unlock()
	require.NoError(t, c.Submit())
	c.Wait()
	assert.True(t, closed)
	assert.Equal(t, 2, gw.callCount())
}

func TestSubmit_OneInFlight(t *testing.T) {
	gw := &fakeGateway{gate: make(chan struct{})}
	c := newForm(t, gw, nil)

	require.NoError(t, c.SetRating(5))
	require.NoError(t, c.Submit())
	assert.True(t, c.Snapshot().Submitting)
	assert.ErrorIs(t, c.Submit(), ErrSubmitInFlight)
	assert.ErrorIs(t, c.SetRating(1), ErrSubmitInFlight)

	close(gw.gate)
	c.Wait()
	assert.Equal(t, 1, gw.callCount())
}

func TestClose_IgnoresLateResult(t *testing.T) {
	gw := &fakeGateway{gate: make(chan struct{})}
	closed := false
	c := newForm(t, gw, func(model.RatingSubmission) { closed = true })

	require.NoError(t, c.SetRating(1))
	require.NoError(t, c.Submit())
	c.Close()
	close(gw.gate)
	c.Wait()

	assert.False(t, closed)
	assert.False(t, c.Snapshot().Submitted)
	assert.Equal(t, 1, gw.callCount())
	assert.NoError(t, gw.ctxErr, "close must not abort the request")
}

func TestSubmit_ExpiredSessionRequiresLogin(t *testing.T) {
	gw := &fakeGateway{}
	now := testNow
	sess := validSession()
	c, err := New(Config{
		Gateway:       gw,
		AppointmentID: "A1",
		DoctorID:      "D1",
		Session:       sess,
		Now:           func() time.Time { return now },
	})
	require.NoError(t, err)
	t.Cleanup(c.Close)

	require.NoError(t, c.SetRating(4))
	now = sess.ExpiresAt.Add(time.Minute)

	assert.ErrorIs(t, c.Submit(), ErrAuthRequired)
	snap := c.Snapshot()
	assert.True(t, snap.AuthRequired)
	assert.Equal(t, MsgLoginRequired, snap.Banner)
	assert.False(t, snap.Submitting)
	assert.Zero(t, gw.callCount())
}
