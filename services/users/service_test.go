package users

import (
	"context"
	"errors"
	"testing"

	"github.com/ZubbsZubbs/LAUTECH-sub002/models"
	"github.com/ZubbsZubbs/LAUTECH-sub002/repositories"
	"github.com/ZubbsZubbs/LAUTECH-sub002/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, params repositories.ListParams) ([]*models.User, error) {
	args := m.Called(ctx, params)
	if u := args.Get(0); u != nil {
		return u.([]*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role models.Role) error {
	return m.Called(ctx, id, role).Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return m.Called(ctx, id, hash).Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func TestUserService_List(t *testing.T) {
	repo := new(MockUserRepository)
	svc := NewUserService(repo, zap.NewNop())

	want := []*models.User{models.NewUser("Ada", "ada@x.com", "h", models.RoleAdmin)}
	repo.On("List", mock.Anything, repositories.ListParams{Limit: repositories.DefaultListLimit}).Return(want, nil)

	got, err := svc.List(context.Background(), repositories.ListParams{Limit: -3})
	require.NoError(t, err)
	assert.Equal(t, want, got)
	repo.AssertExpectations(t)
}

func TestUserService_Get(t *testing.T) {
	repo := new(MockUserRepository)
	svc := NewUserService(repo, zap.NewNop())
	id := uuid.New()

	repo.On("GetByID", mock.Anything, id).Return(nil, repositories.ErrNotFound)

	_, err := svc.Get(context.Background(), id)
	assert.True(t, services.IsNotFoundError(err))
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestUserService_UpdateRole(t *testing.T) {
	actor := uuid.New()
	target := uuid.New()

	t.Run("promotes another user", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo, zap.NewNop())
		updated := &models.User{ID: target, Role: models.RoleStaff}
		repo.On("UpdateRole", mock.Anything, target, models.RoleStaff).Return(nil)
		repo.On("GetByID", mock.Anything, target).Return(updated, nil)

		got, err := svc.UpdateRole(context.Background(), actor, target, "staff")
		require.NoError(t, err)
		assert.Equal(t, models.RoleStaff, got.Role)
	})

	t.Run("unknown role", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo, zap.NewNop())

		_, err := svc.UpdateRole(context.Background(), actor, target, "superuser")
		assert.ErrorIs(t, err, services.ErrInvalidRole)
		assert.Equal(t, "superuser", services.GetErrorDetails(err)["role"])
		repo.AssertNotCalled(t, "UpdateRole", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("admin cannot demote themselves", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo, zap.NewNop())

		_, err := svc.UpdateRole(context.Background(), actor, actor, "USER")
		assert.ErrorIs(t, err, services.ErrSelfDemotion)
	})

	t.Run("admin may keep their own admin role", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo, zap.NewNop())
		repo.On("UpdateRole", mock.Anything, actor, models.RoleAdmin).Return(nil)
		repo.On("GetByID", mock.Anything, actor).Return(&models.User{ID: actor, Role: models.RoleAdmin}, nil)

		_, err := svc.UpdateRole(context.Background(), actor, actor, "admin")
		require.NoError(t, err)
	})

	t.Run("missing user", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo, zap.NewNop())
		repo.On("UpdateRole", mock.Anything, target, models.RoleDoctor).Return(repositories.ErrNotFound)

		_, err := svc.UpdateRole(context.Background(), actor, target, "DOCTOR")
		assert.ErrorIs(t, err, services.ErrAccountNotFound)
	})
}

func TestUserService_Delete(t *testing.T) {
	actor := uuid.New()

	t.Run("self deletion is refused", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo, zap.NewNop())

		err := svc.Delete(context.Background(), actor, actor)
		assert.ErrorIs(t, err, services.ErrSelfDeletion)
		repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("deletes another user", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo, zap.NewNop())
		target := uuid.New()
		repo.On("Delete", mock.Anything, target).Return(nil)

		require.NoError(t, svc.Delete(context.Background(), actor, target))
		repo.AssertExpectations(t)
	})

	t.Run("database failure", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo, zap.NewNop())
		target := uuid.New()
		repo.On("Delete", mock.Anything, target).Return(errors.New("connection reset"))

		err := svc.Delete(context.Background(), actor, target)
		assert.ErrorIs(t, err, services.ErrDatabaseError)
	})
}
