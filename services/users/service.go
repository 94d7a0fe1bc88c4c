package users

import (
	"context"

	"github.com/ZubbsZubbs/LAUTECH-sub002/models"
	"github.com/ZubbsZubbs/LAUTECH-sub002/repositories"
	"github.com/ZubbsZubbs/LAUTECH-sub002/services"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserService handles admin management of accounts
type UserService struct {
	users  repositories.UserRepository
	logger *zap.Logger
}

// NewUserService creates a new UserService instance
func NewUserService(users repositories.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// List returns accounts, newest first
func (s *UserService) List(ctx context.Context, params repositories.ListParams) ([]*models.User, error) {
	users, err := s.users.List(ctx, params.Normalize())
	if err != nil {
		return nil, services.FromRepository(err, nil)
	}
	return users, nil
}

// Get returns one account
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, services.FromRepository(err, services.ErrAccountNotFound)
	}
	return user, nil
}

// UpdateRole changes the role of id. An admin cannot demote themselves,
// so the last admin cannot lock everyone out by accident.
func (s *UserService) UpdateRole(ctx context.Context, actorID, id uuid.UUID, role string) (*models.User, error) {
	parsed, err := models.ParseRole(role)
	if err != nil {
		return nil, services.ErrInvalidRole.Wrap(err).WithDetail("role", role)
	}
	if actorID == id && !parsed.IsAdmin() {
		return nil, services.ErrSelfDemotion
	}

	if err := s.users.UpdateRole(ctx, id, parsed); err != nil {
		return nil, services.FromRepository(err, services.ErrAccountNotFound)
	}

	s.logger.Info("user role updated",
		zap.String("actor_id", actorID.String()),
		zap.String("user_id", id.String()),
		zap.String("role", string(parsed)))

	return s.Get(ctx, id)
}

// Delete removes an account. Admins cannot delete their own account.
func (s *UserService) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	if actorID == id {
		return services.ErrSelfDeletion
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return services.FromRepository(err, services.ErrAccountNotFound)
	}

	s.logger.Info("user deleted",
		zap.String("actor_id", actorID.String()),
		zap.String("user_id", id.String()))
	return nil
}
