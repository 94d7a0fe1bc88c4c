package models

import (
	"time"

	"github.com/google/uuid"
)

// Doctor is a member of the medical staff listed on the public site
type Doctor struct {
	ID         uuid.UUID `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	Email      string    `json:"email" db:"email"`
	Phone      string    `json:"phone" db:"phone"`
	Department string    `json:"department" db:"department"`
	Specialty  string    `json:"specialty" db:"specialty"`
	Bio        string    `json:"bio" db:"bio"`
	ImageURL   string    `json:"image_url,omitempty" db:"image_url"`
	Available  bool      `json:"available" db:"available"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Doctor model
func (Doctor) TableName() string {
	return "doctors"
}

// NewDoctor creates a new Doctor who is available for booking
func NewDoctor(name, email, department, specialty string) *Doctor {
	now := time.Now().UTC()
	return &Doctor{
		ID:         uuid.New(),
		Name:       name,
		Email:      email,
		Department: department,
		Specialty:  specialty,
		Available:  true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
