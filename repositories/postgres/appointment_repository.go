package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/ZubbsZubbs/LAUTECH-sub002/models"
	"github.com/ZubbsZubbs/LAUTECH-sub002/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const appointmentColumns = `id, patient_name, email, phone, doctor_id, department, scheduled_at, reason, status, created_at, updated_at`

// AppointmentRepository implements the repositories.AppointmentRepository interface
type AppointmentRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewAppointmentRepository creates a new appointment repository
func NewAppointmentRepository(db *DB, logger *zap.Logger) repositories.AppointmentRepository {
	return &AppointmentRepository{db: db, logger: logger}
}

func scanAppointment(row rowScanner) (*models.Appointment, error) {
	a := &models.Appointment{}
	err := row.Scan(
		&a.ID,
		&a.PatientName,
		&a.Email,
		&a.Phone,
		&a.DoctorID,
		&a.Department,
		&a.ScheduledAt,
		&a.Reason,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Create creates a new appointment
func (r *AppointmentRepository) Create(ctx context.Context, a *models.Appointment) error {
	query := `
		INSERT INTO appointments (` + appointmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		a.ID, a.PatientName, a.Email, a.Phone, a.DoctorID, a.Department,
		a.ScheduledAt, a.Reason, a.Status, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return mapError("create appointment", err)
	}

	r.logger.Debug("appointment created",
		zap.String("id", a.ID.String()),
		zap.Time("scheduled_at", a.ScheduledAt))
	return nil
}

// GetByID retrieves an appointment by ID
func (r *AppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	a, err := scanAppointment(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError("get appointment", err)
	}
	return a, nil
}

// List retrieves appointments by schedule, optionally filtered by status
func (r *AppointmentRepository) List(ctx context.Context, params repositories.ListParams) ([]*models.Appointment, error) {
	params = params.Normalize()
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE ($1::text = '' OR status = $1)
		ORDER BY scheduled_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query, params.Status, params.Limit, params.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer rows.Close()

	appts := make([]*models.Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appts = append(appts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating appointment rows: %w", err)
	}

	return appts, nil
}

// UpdateStatus changes an appointment's status
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.AppointmentStatus) error {
	query := `UPDATE appointments SET status = $2, updated_at = $3 WHERE id = $1`

	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return mapError("update appointment status", err)
	}
	return expectAffected("update appointment status", result)
}

// Delete deletes an appointment
func (r *AppointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return mapError("delete appointment", err)
	}
	return expectAffected("delete appointment", result)
}
