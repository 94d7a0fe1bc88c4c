package models

import (
	"time"

	"github.com/google/uuid"
)

// Patient is a patient record kept by the back office
type Patient struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	FirstName   string     `json:"first_name" db:"first_name"`
	LastName    string     `json:"last_name" db:"last_name"`
	Email       string     `json:"email" db:"email"`
	Phone       string     `json:"phone" db:"phone"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty" db:"date_of_birth"`
	Gender      string     `json:"gender" db:"gender"`
	Address     string     `json:"address" db:"address"`
	BloodGroup  string     `json:"blood_group" db:"blood_group"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Patient model
func (Patient) TableName() string {
	return "patients"
}

// FullName joins first and last name
func (p *Patient) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// NewPatient creates a new Patient instance
func NewPatient(firstName, lastName, email, phone string) *Patient {
	now := time.Now().UTC()
	return &Patient{
		ID:        uuid.New(),
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Phone:     phone,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
