package models

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus is the lifecycle state of a booking
type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "PENDING"
	AppointmentConfirmed AppointmentStatus = "CONFIRMED"
	AppointmentCancelled AppointmentStatus = "CANCELLED"
	AppointmentCompleted AppointmentStatus = "COMPLETED"
)

// Valid reports whether s is a known appointment status
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentPending, AppointmentConfirmed, AppointmentCancelled, AppointmentCompleted:
		return true
	}
	return false
}

// Appointment is a booking request made from the public site
type Appointment struct {
	ID          uuid.UUID         `json:"id" db:"id"`
	PatientName string            `json:"patient_name" db:"patient_name"`
	Email       string            `json:"email" db:"email"`
	Phone       string            `json:"phone" db:"phone"`
	DoctorID    *uuid.UUID        `json:"doctor_id,omitempty" db:"doctor_id"`
	Department  string            `json:"department" db:"department"`
	ScheduledAt time.Time         `json:"scheduled_at" db:"scheduled_at"`
	Reason      string            `json:"reason" db:"reason"`
	Status      AppointmentStatus `json:"status" db:"status"`
	CreatedAt   time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Appointment model
func (Appointment) TableName() string {
	return "appointments"
}

// NewAppointment creates a PENDING appointment
func NewAppointment(patientName, email, phone, department string, doctorID *uuid.UUID, scheduledAt time.Time, reason string) *Appointment {
	now := time.Now().UTC()
	return &Appointment{
		ID:          uuid.New(),
		PatientName: patientName,
		Email:       email,
		Phone:       phone,
		DoctorID:    doctorID,
		Department:  department,
		ScheduledAt: scheduledAt.UTC(),
		Reason:      reason,
		Status:      AppointmentPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
