package postgres

import (
	"context"
	"fmt"

	"github.com/ZubbsZubbs/LAUTECH-sub002/models"
	"github.com/ZubbsZubbs/LAUTECH-sub002/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const patientColumns = `id, first_name, last_name, email, phone, date_of_birth, gender, address, blood_group, created_at, updated_at`

// PatientRepository implements the repositories.PatientRepository interface
type PatientRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewPatientRepository creates a new patient repository
func NewPatientRepository(db *DB, logger *zap.Logger) repositories.PatientRepository {
	return &PatientRepository{db: db, logger: logger}
}

func scanPatient(row rowScanner) (*models.Patient, error) {
	p := &models.Patient{}
	err := row.Scan(
		&p.ID,
		&p.FirstName,
		&p.LastName,
		&p.Email,
		&p.Phone,
		&p.DateOfBirth,
		&p.Gender,
		&p.Address,
		&p.BloodGroup,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create creates a new patient
func (r *PatientRepository) Create(ctx context.Context, p *models.Patient) error {
	query := `
		INSERT INTO patients (` + patientColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		p.ID, p.FirstName, p.LastName, p.Email, p.Phone, p.DateOfBirth,
		p.Gender, p.Address, p.BloodGroup, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return mapError("create patient", err)
	}

	r.logger.Debug("patient created", zap.String("id", p.ID.String()))
	return nil
}

// GetByID retrieves a patient by ID
func (r *PatientRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1`

	p, err := scanPatient(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError("get patient", err)
	}
	return p, nil
}

// List retrieves patients ordered by last name
func (r *PatientRepository) List(ctx context.Context, params repositories.ListParams) ([]*models.Patient, error) {
	params = params.Normalize()
	query := `
		SELECT ` + patientColumns + `
		FROM patients
		ORDER BY last_name, first_name
		LIMIT $1 OFFSET $2
	`

	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query, params.Limit, params.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query patients: %w", err)
	}
	defer rows.Close()

	patients := make([]*models.Patient, 0)
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan patient: %w", err)
		}
		patients = append(patients, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating patient rows: %w", err)
	}

	return patients, nil
}

// Update updates a patient
func (r *PatientRepository) Update(ctx context.Context, p *models.Patient) error {
	query := `
		UPDATE patients
		SET first_name = $2,
		    last_name = $3,
		    email = $4,
		    phone = $5,
		    date_of_birth = $6,
		    gender = $7,
		    address = $8,
		    blood_group = $9,
		    updated_at = $10
		WHERE id = $1
	`

	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		p.ID, p.FirstName, p.LastName, p.Email, p.Phone, p.DateOfBirth,
		p.Gender, p.Address, p.BloodGroup, p.UpdatedAt,
	)
	if err != nil {
		return mapError("update patient", err)
	}
	return expectAffected("update patient", result)
}

// Delete deletes a patient
func (r *PatientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return mapError("delete patient", err)
	}
	return expectAffected("delete patient", result)
}
