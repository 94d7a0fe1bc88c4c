package postgres

import (
	"context"
	"fmt"

	"github.com/ZubbsZubbs/LAUTECH-sub002/models"
	"github.com/ZubbsZubbs/LAUTECH-sub002/repositories"
	"go.uber.org/zap"
)

// SubscriberRepository implements the repositories.SubscriberRepository interface
type SubscriberRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewSubscriberRepository creates a new subscriber repository
func NewSubscriberRepository(db *DB, logger *zap.Logger) repositories.SubscriberRepository {
	return &SubscriberRepository{db: db, logger: logger}
}

// Create inserts a subscription; a repeated email yields ErrDuplicate
func (r *SubscriberRepository) Create(ctx context.Context, s *models.Subscriber) error {
	query := `INSERT INTO subscribers (id, email, created_at) VALUES ($1, $2, $3)`

	if _, err := GetExecutor(ctx, r.db).ExecContext(ctx, query, s.ID, s.Email, s.CreatedAt); err != nil {
		return mapError("create subscriber", err)
	}
	return nil
}

// GetByEmail retrieves a subscription by email
func (r *SubscriberRepository) GetByEmail(ctx context.Context, email string) (*models.Subscriber, error) {
	s := &models.Subscriber{}
	err := GetExecutor(ctx, r.db).
		QueryRowContext(ctx, `SELECT id, email, created_at FROM subscribers WHERE email = $1`, email).
		Scan(&s.ID, &s.Email, &s.CreatedAt)
	if err != nil {
		return nil, mapError("get subscriber", err)
	}
	return s, nil
}

// List retrieves subscribers newest first
func (r *SubscriberRepository) List(ctx context.Context, params repositories.ListParams) ([]*models.Subscriber, error) {
	params = params.Normalize()
	query := `SELECT id, email, created_at FROM subscribers ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query, params.Limit, params.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscribers: %w", err)
	}
	defer rows.Close()

	subs := make([]*models.Subscriber, 0)
	for rows.Next() {
		s := &models.Subscriber{}
		if err := rows.Scan(&s.ID, &s.Email, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan subscriber: %w", err)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscriber rows: %w", err)
	}

	return subs, nil
}
