package postgres

import (
	"context"
	"fmt"

	"github.com/ZubbsZubbs/LAUTECH-sub002/models"
	"github.com/ZubbsZubbs/LAUTECH-sub002/repositories"
	"go.uber.org/zap"
)

// SettingRepository implements the repositories.SettingRepository interface
type SettingRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewSettingRepository creates a new setting repository
func NewSettingRepository(db *DB, logger *zap.Logger) repositories.SettingRepository {
	return &SettingRepository{db: db, logger: logger}
}

// List retrieves all settings ordered by key
func (r *SettingRepository) List(ctx context.Context) ([]*models.Setting, error) {
	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, `SELECT key, value, updated_at FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	settings := make([]*models.Setting, 0)
	for rows.Next() {
		s := &models.Setting{}
		if err := rows.Scan(&s.Key, &s.Value, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		settings = append(settings, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating setting rows: %w", err)
	}

	return settings, nil
}

// Get retrieves a single setting
func (r *SettingRepository) Get(ctx context.Context, key string) (*models.Setting, error) {
	s := &models.Setting{}
	err := GetExecutor(ctx, r.db).
		QueryRowContext(ctx, `SELECT key, value, updated_at FROM settings WHERE key = $1`, key).
		Scan(&s.Key, &s.Value, &s.UpdatedAt)
	if err != nil {
		return nil, mapError("get setting", err)
	}
	return s, nil
}

// Upsert inserts the setting or replaces its value
func (r *SettingRepository) Upsert(ctx context.Context, s *models.Setting) error {
	query := `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
		    updated_at = EXCLUDED.updated_at
	`

	if _, err := GetExecutor(ctx, r.db).ExecContext(ctx, query, s.Key, s.Value, s.UpdatedAt); err != nil {
		return mapError("upsert setting", err)
	}

	r.logger.Debug("setting saved", zap.String("key", s.Key))
	return nil
}
