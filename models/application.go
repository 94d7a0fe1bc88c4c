package models

import (
	"time"

	"github.com/google/uuid"
)

// ApplicationStatus tracks a job or internship application through review
type ApplicationStatus string

const (
	ApplicationReceived  ApplicationStatus = "RECEIVED"
	ApplicationReviewing ApplicationStatus = "REVIEWING"
	ApplicationAccepted  ApplicationStatus = "ACCEPTED"
	ApplicationRejected  ApplicationStatus = "REJECTED"
)

// Valid reports whether s is a known application status
func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationReceived, ApplicationReviewing, ApplicationAccepted, ApplicationRejected:
		return true
	}
	return false
}

// Application is a job or internship application submitted from the public site
type Application struct {
	ID          uuid.UUID         `json:"id" db:"id"`
	FullName    string            `json:"full_name" db:"full_name"`
	Email       string            `json:"email" db:"email"`
	Phone       string            `json:"phone" db:"phone"`
	Position    string            `json:"position" db:"position"`
	CoverLetter string            `json:"cover_letter" db:"cover_letter"`
	ResumeURL   string            `json:"resume_url,omitempty" db:"resume_url"`
	Status      ApplicationStatus `json:"status" db:"status"`
	CreatedAt   time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Application model
func (Application) TableName() string {
	return "applications"
}

// NewApplication creates a new Application in the RECEIVED state
func NewApplication(fullName, email, phone, position, coverLetter, resumeURL string) *Application {
	now := time.Now().UTC()
	return &Application{
		ID:          uuid.New(),
		FullName:    fullName,
		Email:       email,
		Phone:       phone,
		Position:    position,
		CoverLetter: coverLetter,
		ResumeURL:   resumeURL,
		Status:      ApplicationReceived,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
