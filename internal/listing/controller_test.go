package listing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/doctor_booking_bot/internal/gateway"
	"github.com/Freeeeeet/doctor_booking_bot/internal/model"
)

type fakeSource struct {
	mu         sync.Mutex
	doctors    map[string][]model.Doctor
	doctorsErr error
	gates      map[string]chan struct{}
	calls      []string
	specs      []string
	specsErr   error
	specCalls  int
	appts      []model.Appointment
	apptCalls  int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		doctors: map[string][]model.Doctor{
			"":             {{ID: "D1", FirstName: "Ann", LastName: "Lee", Speciality: "CARDIOLOGIST"}, {ID: "D2", FirstName: "Bo", LastName: "Kim", Speciality: "DENTIST"}},
			"CARDIOLOGIST": {{ID: "D1", FirstName: "Ann", LastName: "Lee", Speciality: "CARDIOLOGIST"}},
		},
		gates: make(map[string]chan struct{}),
		specs: []string{"CARDIOLOGIST", "DENTIST", "PULMONOLOGIST"},
	}
}

func (f *fakeSource) gate(speciality string) func() {
	ch := make(chan struct{})
	f.mu.Lock()
	f.gates[speciality] = ch
	f.mu.Unlock()
	return func() { close(ch) }
}

func (f *fakeSource) ListDoctors(ctx context.Context, filter gateway.DoctorFilter) ([]model.Doctor, error) {
	f.mu.Lock()
	f.calls = append(f.calls, filter.Speciality)
	gate := f.gates[filter.Speciality]
	err := f.doctorsErr
	list := f.doctors[filter.Speciality]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (f *fakeSource) ListSpecialities(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.specCalls++
	if f.specsErr != nil {
		return nil, f.specsErr
	}
	return f.specs, nil
}

func (f *fakeSource) ListUserAppointments(ctx context.Context) ([]model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.apptCalls++
	return f.appts, nil
}

func TestDoctorList_MountLoadsAllAndOptions(t *testing.T) {
	src := newFakeSource()
	c := NewDoctorList(src, nil, nil)
	defer c.Close()

	require.NoError(t, c.Mount())
	c.Wait()

	snap := c.Snapshot()
	assert.Equal(t, ViewItems, snap.View)
	assert.Equal(t, AllSpecialities, snap.Selector)
	assert.Len(t, snap.Items, 2)
	assert.Equal(t, []string{"CARDIOLOGIST", "DENTIST", "PULMONOLOGIST"}, snap.Options)
	assert.Empty(t, snap.OptionsError)
}

func TestDoctorList_EmptyIsNotError(t *testing.T) {
	src := newFakeSource()
	c := NewDoctorList(src, nil, nil)
	defer c.Close()
	require.NoError(t, c.Mount())
	c.Wait()

	require.NoError(t, c.SelectFilter("PULMONOLOGIST"))
	c.Wait()

	snap := c.Snapshot()
	assert.Equal(t, ViewEmpty, snap.View)
	assert.Equal(t, MsgNoDoctors, snap.Message)
	assert.Empty(t, snap.Items)
	assert.Equal(t, gateway.KindNone, snap.ErrKind)
}

func TestDoctorList_ErrorIsNotEmpty(t *testing.T) {
	src := newFakeSource()
	c := NewDoctorList(src, nil, nil)
	defer c.Close()
	require.NoError(t, c.Mount())
	c.Wait()

	src.mu.Lock()
	src.doctorsErr = &gateway.TransportError{Op: "list doctors", Status: 500, Err: errors.New("boom")}
	src.mu.Unlock()
	require.NoError(t, c.Reload())
	c.Wait()

	snap := c.Snapshot()
	assert.Equal(t, ViewError, snap.View)
	assert.Equal(t, MsgDoctorsFailed, snap.Message)
	assert.Equal(t, gateway.KindTransport, snap.ErrKind)
	assert.Len(t, snap.Items, 2, "last known items are kept alongside the error")
}

func TestDoctorList_LastSelectorWins(t *testing.T) {
	src := newFakeSource()
	c := NewDoctorList(src, nil, nil)
	defer c.Close()
	require.NoError(t, c.Mount())
	c.Wait()

	releaseDentist := src.gate("DENTIST")
	releaseCardio := src.gate("CARDIOLOGIST")
	require.NoError(t, c.SelectFilter("DENTIST"))
	require.NoError(t, c.SelectFilter("CARDIOLOGIST"))

	assert.Equal(t, ViewLoading, c.Snapshot().View)

	releaseCardio()
	releaseDentist()
	c.Wait()

	snap := c.Snapshot()
	assert.Equal(t, "CARDIOLOGIST", snap.Selector)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "D1", snap.Items[0].ID)
}

func TestDoctorList_SameSelectorDoesNotRefetch(t *testing.T) {
	src := newFakeSource()
	c := NewDoctorList(src, nil, nil)
	defer c.Close()
	require.NoError(t, c.Mount())
	c.Wait()

	require.NoError(t, c.SelectFilter(AllSpecialities))
	c.Wait()

	src.mu.Lock()
	defer src.mu.Unlock()
	assert.Equal(t, []string{""}, src.calls)
}

func TestDoctorList_OptionsFailureDoesNotBlockList(t *testing.T) {
	src := newFakeSource()
	src.specsErr = &gateway.TransportError{Op: "list specialities", Err: errors.New("timeout")}
	c := NewDoctorList(src, nil, nil)
	defer c.Close()
	require.NoError(t, c.Mount())
	c.Wait()

	snap := c.Snapshot()
	assert.Equal(t, ViewItems, snap.View)
	assert.Len(t, snap.Items, 2)
	assert.Equal(t, MsgSpecialitiesFailed, snap.OptionsError)

	require.NoError(t, c.SelectFilter("CARDIOLOGIST"))
	c.Wait()
	assert.Equal(t, 1, src.specCalls, "options are fetched once, independent of the selector")

	src.mu.Lock()
	src.specsErr = nil
	src.mu.Unlock()
	require.NoError(t, c.Reload())
	c.Wait()
	assert.Empty(t, c.Snapshot().OptionsError)
	assert.Equal(t, 2, src.specCalls)
}

func TestDoctorList_SelectBeforeMount(t *testing.T) {
	c := NewDoctorList(newFakeSource(), nil, nil)
	defer c.Close()
	assert.ErrorIs(t, c.SelectFilter("DENTIST"), ErrNotMounted)
	assert.Equal(t, ViewIdle, c.Snapshot().View)
}

func TestDoctorList_CloseDropsLateResult(t *testing.T) {
	src := newFakeSource()
	release := src.gate("")
	c := NewDoctorList(src, nil, nil)
	require.NoError(t, c.Mount())

	c.Close()
	release()
	c.Wait()

	snap := c.Snapshot()
	assert.Equal(t, ViewLoading, snap.View)
	assert.Empty(t, snap.Items)
	assert.ErrorIs(t, c.SelectFilter("DENTIST"), ErrClosed)
}

func TestAppointmentList_RequiresSession(t *testing.T) {
	src := newFakeSource()
	now := func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) }
	c := NewAppointmentList(src, nil, now, nil, nil)
	defer c.Close()

	assert.ErrorIs(t, c.Mount(), ErrAuthRequired)
	c.Wait()

	snap := c.Snapshot()
	assert.Equal(t, ViewAuthRequired, snap.View)
	assert.Equal(t, MsgAppointmentsLogin, snap.Message)
	assert.Zero(t, src.apptCalls)
	assert.ErrorIs(t, c.Reload(), ErrAuthRequired)
}

func TestAppointmentList_EmptyAndItems(t *testing.T) {
	now := func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) }
	session := &model.Session{AccessToken: "token", ExpiresAt: now().Add(time.Hour)}

	src := newFakeSource()
	c := NewAppointmentList(src, session, now, nil, nil)
	defer c.Close()
	require.NoError(t, c.Mount())
	c.Wait()

	snap := c.Snapshot()
	assert.Equal(t, ViewEmpty, snap.View)
	assert.Equal(t, MsgNoAppointments, snap.Message)

	src.mu.Lock()
	src.appts = []model.Appointment{{AppointmentID: "A1", DoctorID: "D1", DoctorName: "Ann Lee", AppointmentDate: "2024-06-01"}}
	src.mu.Unlock()
	require.NoError(t, c.Reload())
	c.Wait()

	snap = c.Snapshot()
	assert.Equal(t, ViewItems, snap.View)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "A1", snap.Items[0].AppointmentID)
	assert.Equal(t, 2, src.apptCalls)
}
