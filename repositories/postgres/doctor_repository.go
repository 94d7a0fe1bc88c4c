package postgres

import (
	"context"
	"fmt"

	"github.com/ZubbsZubbs/LAUTECH-sub002/models"
	"github.com/ZubbsZubbs/LAUTECH-sub002/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const doctorColumns = `id, name, email, phone, department, specialty, bio, image_url, available, created_at, updated_at`

// DoctorRepository implements the repositories.DoctorRepository interface
type DoctorRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewDoctorRepository creates a new doctor repository
func NewDoctorRepository(db *DB, logger *zap.Logger) repositories.DoctorRepository {
	return &DoctorRepository{db: db, logger: logger}
}

func scanDoctor(row rowScanner) (*models.Doctor, error) {
	d := &models.Doctor{}
	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.Email,
		&d.Phone,
		&d.Department,
		&d.Specialty,
		&d.Bio,
		&d.ImageURL,
		&d.Available,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Create creates a new doctor
func (r *DoctorRepository) Create(ctx context.Context, d *models.Doctor) error {
	query := `
		INSERT INTO doctors (` + doctorColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		d.ID, d.Name, d.Email, d.Phone, d.Department, d.Specialty,
		d.Bio, d.ImageURL, d.Available, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return mapError("create doctor", err)
	}

	r.logger.Debug("doctor created", zap.String("id", d.ID.String()), zap.String("department", d.Department))
	return nil
}

// GetByID retrieves a doctor by ID
func (r *DoctorRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors WHERE id = $1`

	d, err := scanDoctor(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError("get doctor", err)
	}
	return d, nil
}

// List retrieves doctors by name, optionally restricted to one department
func (r *DoctorRepository) List(ctx context.Context, params repositories.ListParams) ([]*models.Doctor, error) {
	params = params.Normalize()
	query := `
		SELECT ` + doctorColumns + `
		FROM doctors
		WHERE ($1::text = '' OR department = $1)
		ORDER BY name
		LIMIT $2 OFFSET $3
	`

	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query, params.Department, params.Limit, params.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query doctors: %w", err)
	}
	defer rows.Close()

	doctors := make([]*models.Doctor, 0)
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan doctor: %w", err)
		}
		doctors = append(doctors, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating doctor rows: %w", err)
	}

	return doctors, nil
}

// Update updates a doctor
func (r *DoctorRepository) Update(ctx context.Context, d *models.Doctor) error {
	query := `
		UPDATE doctors
		SET name = $2,
		    email = $3,
		    phone = $4,
		    department = $5,
		    specialty = $6,
		    bio = $7,
		    image_url = $8,
		    available = $9,
		    updated_at = $10
		WHERE id = $1
	`

	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		d.ID, d.Name, d.Email, d.Phone, d.Department, d.Specialty,
		d.Bio, d.ImageURL, d.Available, d.UpdatedAt,
	)
	if err != nil {
		return mapError("update doctor", err)
	}
	return expectAffected("update doctor", result)
}

// Delete deletes a doctor
func (r *DoctorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return mapError("delete doctor", err)
	}
	return expectAffected("delete doctor", result)
}
