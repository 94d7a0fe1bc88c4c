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

const applicationColumns = `id, full_name, email, phone, position, cover_letter, resume_url, status, created_at, updated_at`

// ApplicationRepository implements the repositories.ApplicationRepository interface
type ApplicationRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewApplicationRepository creates a new application repository
func NewApplicationRepository(db *DB, logger *zap.Logger) repositories.ApplicationRepository {
	return &ApplicationRepository{db: db, logger: logger}
}

func scanApplication(row rowScanner) (*models.Application, error) {
	a := &models.Application{}
	err := row.Scan(
		&a.ID,
		&a.FullName,
		&a.Email,
		&a.Phone,
		&a.Position,
		&a.CoverLetter,
		&a.ResumeURL,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Create creates a new application
func (r *ApplicationRepository) Create(ctx context.Context, a *models.Application) error {
	query := `
		INSERT INTO applications (` + applicationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		a.ID, a.FullName, a.Email, a.Phone, a.Position,
		a.CoverLetter, a.ResumeURL, a.Status, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return mapError("create application", err)
	}

	r.logger.Debug("application created", zap.String("id", a.ID.String()), zap.String("position", a.Position))
	return nil
}

// GetByID retrieves an application by ID
func (r *ApplicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1`

	a, err := scanApplication(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError("get application", err)
	}
	return a, nil
}

// List retrieves applications newest first, optionally filtered by status
func (r *ApplicationRepository) List(ctx context.Context, params repositories.ListParams) ([]*models.Application, error) {
	params = params.Normalize()
	query := `
		SELECT ` + applicationColumns + `
		FROM applications
		WHERE ($1::text = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query, params.Status, params.Limit, params.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query applications: %w", err)
	}
	defer rows.Close()

	apps := make([]*models.Application, 0)
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating application rows: %w", err)
	}

	return apps, nil
}

// UpdateStatus changes an application's review status
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ApplicationStatus) error {
	query := `UPDATE applications SET status = $2, updated_at = $3 WHERE id = $1`

	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return mapError("update application status", err)
	}
	return expectAffected("update application status", result)
}

// Delete deletes an application
func (r *ApplicationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, `DELETE FROM applications WHERE id = $1`, id)
	if err != nil {
		return mapError("delete application", err)
	}
	return expectAffected("delete application", result)
}
