package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// User tests
func TestNewUser(t *testing.T) {
	user := NewUser("Ada", "  Ada@Example.com ", "hash", RoleStaff)

	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "Ada", user.Name)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, RoleStaff, user.Role)
	assert.False(t, user.CreatedAt.IsZero())
	assert.Equal(t, user.CreatedAt, user.UpdatedAt)
}

func TestUser_JSONMarshaling(t *testing.T) {
	user := NewUser("Ada", "ada@example.com", "secret-hash", RoleUser)

	data, err := json.Marshal(user)
	require.NoError(t, err)

	// Verify password hash is not in JSON
	assert.NotContains(t, string(data), "secret-hash")
	assert.NotContains(t, string(data), "password_hash")
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"ADMIN", RoleAdmin, false},
		{"admin", RoleAdmin, false},
		{" Staff ", RoleStaff, false},
		{"doctor", RoleDoctor, false},
		{"PATIENT", RolePatient, false},
		{"user", RoleUser, false},
		{"superuser", "", true},
		{"", "", true},
		{"ADMIN ", RoleAdmin, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRole_IsAdmin(t *testing.T) {
	for _, r := range Roles {
		assert.Equal(t, r == RoleAdmin, r.IsAdmin(), string(r))
		assert.True(t, r.Valid(), string(r))
	}
	assert.False(t, Role("admin").IsAdmin())
	assert.False(t, Role("admin").Valid())
	assert.False(t, Role("").IsAdmin())
}

func TestUser_TableName(t *testing.T) {
	assert.Equal(t, "users", User{}.TableName())
	assert.Equal(t, "patients", Patient{}.TableName())
	assert.Equal(t, "doctors", Doctor{}.TableName())
	assert.Equal(t, "appointments", Appointment{}.TableName())
	assert.Equal(t, "applications", Application{}.TableName())
	assert.Equal(t, "settings", Setting{}.TableName())
	assert.Equal(t, "subscribers", Subscriber{}.TableName())
	assert.Equal(t, "password_resets", PasswordReset{}.TableName())
	assert.Equal(t, "email_logs", DeliveryLogEntry{}.TableName())
}

func TestPatient_FullName(t *testing.T) {
	assert.Equal(t, "Jo Bloggs", NewPatient("Jo", "Bloggs", "", "").FullName())
	assert.Equal(t, "Jo", NewPatient("Jo", "", "", "").FullName())
}

func TestNewAppointment(t *testing.T) {
	doctorID := uuid.New()
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.FixedZone("WAT", 3600))

	appt := NewAppointment("Jo", "jo@x.com", "080", "Cardiology", &doctorID, at, "checkup")

	assert.Equal(t, AppointmentPending, appt.Status)
	assert.Equal(t, time.UTC, appt.ScheduledAt.Location())
	assert.True(t, appt.ScheduledAt.Equal(at))
	require.NotNil(t, appt.DoctorID)
	assert.Equal(t, doctorID, *appt.DoctorID)
}

func TestStatuses_Valid(t *testing.T) {
	assert.True(t, AppointmentConfirmed.Valid())
	assert.False(t, AppointmentStatus("DONE").Valid())
	assert.True(t, ApplicationAccepted.Valid())
	assert.False(t, ApplicationStatus("pending").Valid())
	assert.Equal(t, ApplicationReceived, NewApplication("A", "a@x.com", "", "Nurse", "", "").Status)
}

func TestPasswordReset_Usable(t *testing.T) {
	now := time.Now()
	used := now.Add(-time.Minute)

	assert.True(t, (&PasswordReset{ExpiresAt: now.Add(time.Hour)}).Usable(now))
	assert.False(t, (&PasswordReset{ExpiresAt: now.Add(-time.Second)}).Usable(now))
	assert.False(t, (&PasswordReset{ExpiresAt: now.Add(time.Hour), UsedAt: &used}).Usable(now))
}

func TestNewDeliveryLogEntry_TruncatesError(t *testing.T) {
	long := strings.Repeat("é", MaxDeliveryErrorLen+20)

	entry := NewDeliveryLogEntry(DeliveryFailed, "jo@x.com", "Hi", "log", "", long)

	assert.Equal(t, MaxDeliveryErrorLen, len([]rune(entry.Error)))
	assert.NotEqual(t, uuid.Nil, entry.ID)
	assert.False(t, entry.Timestamp.IsZero())
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", TruncateRunes("abc", 5))
	assert.Equal(t, "ab", TruncateRunes("abc", 2))
	assert.Equal(t, "", TruncateRunes("abc", 0))
	assert.Equal(t, "日本", TruncateRunes("日本語", 2))
}
