package validation

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/doctor_booking_bot/internal/model"
)

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"user@example.com", true},
		{"a.b+c@sub.domain.org", true},
		{"bad@@x", false},
		{"no-at.example.com", false},
		{"user@nodot", false},
		{"us er@example.com", false},
		{"user@exa mple.com", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsValidEmail(tt.value), tt.value)
	}
}

func TestEmailField(t *testing.T) {
	f := EmailField("bad@@x")
	assert.False(t, f.IsValid)
	assert.False(t, f.IsEmpty)
	assert.Equal(t, "Enter valid email", f.Message)

	f = EmailField("")
	assert.False(t, f.IsValid)
	assert.True(t, f.IsEmpty)
	assert.Equal(t, MsgRequired, f.Message)

	f = EmailField("patient@clinic.com")
	assert.True(t, f.IsValid)
	assert.Empty(t, f.Message)
}

func TestRequired(t *testing.T) {
	assert.False(t, Required(""))
	assert.False(t, Required("   "))
	assert.True(t, Required("x"))

	f := RequiredField("")
	assert.True(t, f.IsEmpty)
	assert.Equal(t, "Please fill out this field.", f.Message)
}

func TestInRange(t *testing.T) {
	assert.True(t, InRange(0.5, 0.5, 5))
	assert.True(t, InRange(5, 0.5, 5))
	assert.False(t, InRange(0, 0.5, 5))
	assert.False(t, InRange(5.5, 0.5, 5))
	assert.False(t, InRange(math.NaN(), 0, 5))
}

func TestRangeField(t *testing.T) {
	assert.True(t, RangeField(0, 0.5, 5).IsEmpty)
	assert.Equal(t, MsgOutOfRange, RangeField(7, 0.5, 5).Message)
	assert.True(t, RangeField(3.5, 0.5, 5).IsValid)
}

func TestAllValid(t *testing.T) {
	assert.True(t, AllValid(map[string]Field{"email": EmailField("a@b.co"), "password": RequiredField("x")}))
	assert.False(t, AllValid(map[string]Field{"email": EmailField("a@b.co"), "password": RequiredField("")}))
}

func TestStruct_RatingSubmission(t *testing.T) {
	ok := model.RatingSubmission{AppointmentID: "a1", DoctorID: "d1", Rating: 4.5, Comment: strings.Repeat("x", 500)}
	require.NoError(t, Struct(ok))

	for _, r := range []float64{0, 0.3, 5.5} {
		bad := ok
		bad.Rating = r
		err := Struct(bad)
		require.Error(t, err, "rating %v", r)
		var fe *FieldError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, "Rating", fe.Field)
	}
}

func TestStruct_AppointmentDraft(t *testing.T) {
	draft := model.AppointmentDraft{
		DoctorID:            "D1",
		DoctorName:          "Ann Lee",
		UserID:              "p@x.com",
		UserName:            "Pat",
		UserEmailID:         "p@x.com",
		TimeSlot:            "09:00",
		AppointmentDate:     "2024-06-01",
		Symptoms:            model.NotAvailable,
		PriorMedicalHistory: model.NotAvailable,
	}
	require.NoError(t, Struct(draft))

	draft.TimeSlot = ""
	var fe *FieldError
	require.ErrorAs(t, Struct(draft), &fe)
	assert.Equal(t, "TimeSlot", fe.Field)
}
