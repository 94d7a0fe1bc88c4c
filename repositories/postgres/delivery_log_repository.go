package postgres

import (
	"context"
	"fmt"

	"github.com/ZubbsZubbs/LAUTECH-sub002/models"
	"github.com/ZubbsZubbs/LAUTECH-sub002/repositories"
	"go.uber.org/zap"
)

// DeliveryLogRepository implements the repositories.DeliveryLogRepository interface
// over the email_logs table
type DeliveryLogRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewDeliveryLogRepository creates a new delivery log repository
func NewDeliveryLogRepository(db *DB, logger *zap.Logger) repositories.DeliveryLogRepository {
	return &DeliveryLogRepository{db: db, logger: logger}
}

// Append inserts one entry
func (r *DeliveryLogRepository) Append(ctx context.Context, e *models.DeliveryLogEntry) error {
	query := `
		INSERT INTO email_logs (id, timestamp, status, to_address, subject, provider, message_id, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		e.ID, e.Timestamp, e.Status, e.To, e.Subject, e.Provider, e.MessageID, e.Error,
	)
	if err != nil {
		return mapError("append delivery log", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first
func (r *DeliveryLogRepository) Recent(ctx context.Context, limit int) ([]*models.DeliveryLogEntry, error) {
	limit = repositories.ListParams{Limit: limit}.Normalize().Limit
	query := `
		SELECT id, timestamp, status, to_address, subject, provider, message_id, error
		FROM email_logs
		ORDER BY timestamp DESC
		LIMIT $1
	`

	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query delivery logs: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.DeliveryLogEntry, 0)
	for rows.Next() {
		e := &models.DeliveryLogEntry{}
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Status, &e.To, &e.Subject, &e.Provider, &e.MessageID, &e.Error); err != nil {
			return nil, fmt.Errorf("failed to scan delivery log: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating delivery log rows: %w", err)
	}

	return entries, nil
}
