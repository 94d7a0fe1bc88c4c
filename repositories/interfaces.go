package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/ZubbsZubbs/LAUTECH-sub002/models"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned (wrapped) when no row matches the lookup
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned (wrapped) when a unique constraint is violated
	ErrDuplicate = errors.New("record already exists")
)

// DefaultListLimit is used when a caller passes a non-positive limit
const DefaultListLimit = 50

// MaxListLimit caps page sizes
const MaxListLimit = 200

// ListParams holds pagination and optional filters for list queries.
// Filters that do not apply to a table are ignored.
type ListParams struct {
	Limit      int
	Offset     int
	Status     string
	Department string
}

// Normalize clamps limit and offset into their valid ranges
func (p ListParams) Normalize() ListParams {
	if p.Limit <= 0 {
		p.Limit = DefaultListLimit
	}
	if p.Limit > MaxListLimit {
		p.Limit = MaxListLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// TransactionManager manages database transactions
type TransactionManager interface {
	// InTransaction executes a function within a transaction.
	// Repositories called with the ctx passed to fn run inside the transaction.
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error
}

// UserRepository handles user account data operations
type UserRepository interface {
	// Create creates a new user. Returns ErrDuplicate when the email is taken.
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// List retrieves users ordered by creation time, newest first
	List(ctx context.Context, params ListParams) ([]*models.User, error)

	// UpdateRole changes a user's role
	UpdateRole(ctx context.Context, id uuid.UUID, role models.Role) error

	// UpdatePassword replaces a user's password hash
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error

	// Delete deletes a user
	Delete(ctx context.Context, id uuid.UUID) error
}

// PatientRepository handles patient record operations
type PatientRepository interface {
	Create(ctx context.Context, patient *models.Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Patient, error)
	List(ctx context.Context, params ListParams) ([]*models.Patient, error)
	Update(ctx context.Context, patient *models.Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// DoctorRepository handles doctor directory operations
type DoctorRepository interface {
	Create(ctx context.Context, doctor *models.Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Doctor, error)

	// List honours params.Department
	List(ctx context.Context, params ListParams) ([]*models.Doctor, error)
	Update(ctx context.Context, doctor *models.Doctor) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// AppointmentRepository handles appointment booking operations
type AppointmentRepository interface {
	Create(ctx context.Context, appt *models.Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Appointment, error)

	// List honours params.Status
	List(ctx context.Context, params ListParams) ([]*models.Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.AppointmentStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ApplicationRepository handles job application operations
type ApplicationRepository interface {
	Create(ctx context.Context, app *models.Application) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Application, error)

	// List honours params.Status
	List(ctx context.Context, params ListParams) ([]*models.Application, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.ApplicationStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// SettingRepository handles site settings
type SettingRepository interface {
	List(ctx context.Context) ([]*models.Setting, error)
	Get(ctx context.Context, key string) (*models.Setting, error)

	// Upsert inserts the setting or replaces its value
	Upsert(ctx context.Context, setting *models.Setting) error
}

// SubscriberRepository handles newsletter subscriptions
type SubscriberRepository interface {
	// Create returns ErrDuplicate when the email is already subscribed
	Create(ctx context.Context, sub *models.Subscriber) error
	GetByEmail(ctx context.Context, email string) (*models.Subscriber, error)
	List(ctx context.Context, params ListParams) ([]*models.Subscriber, error)
}

// PasswordResetRepository handles single-use reset tokens
type PasswordResetRepository interface {
	Create(ctx context.Context, reset *models.PasswordReset) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.PasswordReset, error)

	// MarkUsed stamps the token; returns ErrNotFound if it was already used
	MarkUsed(ctx context.Context, tokenHash string, usedAt time.Time) error
}

// DeliveryLogRepository persists notification delivery log entries
type DeliveryLogRepository interface {
	Append(ctx context.Context, entry *models.DeliveryLogEntry) error

	// Recent returns up to limit entries, newest first
	Recent(ctx context.Context, limit int) ([]*models.DeliveryLogEntry, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Users          UserRepository
	Patients       PatientRepository
	Doctors        DoctorRepository
	Appointments   AppointmentRepository
	Applications   ApplicationRepository
	Settings       SettingRepository
	Subscribers    SubscriberRepository
	PasswordResets PasswordResetRepository
	DeliveryLogs   DeliveryLogRepository
}
