package postgres

import (
	"context"
	"time"

	"github.com/ZubbsZubbs/LAUTECH-sub002/models"
	"github.com/ZubbsZubbs/LAUTECH-sub002/repositories"
	"go.uber.org/zap"
)

// PasswordResetRepository implements the repositories.PasswordResetRepository interface
type PasswordResetRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewPasswordResetRepository creates a new password reset repository
func NewPasswordResetRepository(db *DB, logger *zap.Logger) repositories.PasswordResetRepository {
	return &PasswordResetRepository{db: db, logger: logger}
}

// Create stores a new reset token hash
func (r *PasswordResetRepository) Create(ctx context.Context, p *models.PasswordReset) error {
	query := `
		INSERT INTO password_resets (token_hash, user_id, expires_at, used_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		p.TokenHash, p.UserID, p.ExpiresAt, p.UsedAt, p.CreatedAt,
	)
	if err != nil {
		return mapError("create password reset", err)
	}

	r.logger.Debug("password reset issued", zap.String("user_id", p.UserID.String()))
	return nil
}

// GetByTokenHash retrieves a reset by the hash of its token
func (r *PasswordResetRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*models.PasswordReset, error) {
	query := `
		SELECT token_hash, user_id, expires_at, used_at, created_at
		FROM password_resets
		WHERE token_hash = $1
	`

	p := &models.PasswordReset{}
	err := GetExecutor(ctx, r.db).QueryRowContext(ctx, query, tokenHash).Scan(
		&p.TokenHash,
		&p.UserID,
		&p.ExpiresAt,
		&p.UsedAt,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, mapError("get password reset", err)
	}
	return p, nil
}

// MarkUsed consumes the token. The used_at guard makes a second use report ErrNotFound.
func (r *PasswordResetRepository) MarkUsed(ctx context.Context, tokenHash string, usedAt time.Time) error {
	query := `UPDATE password_resets SET used_at = $2 WHERE token_hash = $1 AND used_at IS NULL`

	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, query, tokenHash, usedAt)
	if err != nil {
		return mapError("mark password reset used", err)
	}
	return expectAffected("mark password reset used", result)
}
