package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ZubbsZubbs/LAUTECH-sub002/auth"
	"github.com/ZubbsZubbs/LAUTECH-sub002/models"
	"github.com/ZubbsZubbs/LAUTECH-sub002/repositories"
	"github.com/ZubbsZubbs/LAUTECH-sub002/services"
	"github.com/ZubbsZubbs/LAUTECH-sub002/utils"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockUserLookup is a mock implementation of UserLookup
type MockUserLookup struct {
	mock.Mock
}

func (m *MockUserLookup) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

const testSecret = "test-secret"

func newTestMiddleware(secret string) (*AuthMiddleware, *MockUserLookup, *auth.TokenManager) {
	tokens := auth.NewTokenManager(secret, "hospital-api", time.Hour)
	users := new(MockUserLookup)
	return NewAuthMiddleware(tokens, users, zap.NewNop()), users, tokens
}

func issue(t *testing.T, tokens *auth.TokenManager, user *models.User) string {
	t.Helper()
	token, _, err := tokens.Issue(user.ID, user.Role)
	require.NoError(t, err)
	return token
}

func testUser(role models.Role) *models.User {
	u := models.NewUser("Test User", "user@hospital.test", "hash", role)
	return u
}

func TestAuthenticate(t *testing.T) {
	t.Run("missing header is unauthenticated and skips lookup", func(t *testing.T) {
		m, users, _ := newTestMiddleware(testSecret)
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		identity, err := m.Authenticate(req)

		assert.Nil(t, identity)
		assert.ErrorIs(t, err, services.ErrUnauthenticated)
		users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	for _, header := range []string{"Bearer", "Bearer   ", "Basic dXNlcjpwdw==", "token-without-scheme"} {
		t.Run(fmt.Sprintf("malformed header %q", header), func(t *testing.T) {
			m, users, _ := newTestMiddleware(testSecret)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", header)

			_, err := m.Authenticate(req)

			assert.ErrorIs(t, err, services.ErrUnauthenticated)
			users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
		})
	}

	t.Run("missing secret is a server misconfiguration", func(t *testing.T) {
		m, users, _ := newTestMiddleware("")
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer whatever")

		_, err := m.Authenticate(req)

		assert.ErrorIs(t, err, services.ErrServerMisconfigured)
		assert.True(t, services.IsInternalError(err))
		users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("bad signature is an invalid token", func(t *testing.T) {
		m, users, _ := newTestMiddleware(testSecret)
		other := auth.NewTokenManager("another-secret", "hospital-api", time.Hour)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+issue(t, other, testUser(models.RoleAdmin)))

		_, err := m.Authenticate(req)

		assert.ErrorIs(t, err, services.ErrInvalidToken)
		assert.NotErrorIs(t, err, services.ErrUserNotFound)
		users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("valid token resolves identity from the user row", func(t *testing.T) {
		m, users, tokens := newTestMiddleware(testSecret)
		user := testUser(models.RoleDoctor)
		users.On("GetByID", mock.Anything, user.ID).Return(user, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "bearer "+issue(t, tokens, user))

		identity, err := m.Authenticate(req)

		require.NoError(t, err)
		assert.Equal(t, user.ID, identity.ID)
		assert.Equal(t, user.Email, identity.Email)
		assert.Equal(t, models.RoleDoctor, identity.Role)
		users.AssertExpectations(t)
	})

	t.Run("role comes from the store, not the token", func(t *testing.T) {
		m, users, tokens := newTestMiddleware(testSecret)
		user := testUser(models.RoleAdmin)
		token := issue(t, tokens, user)

		demoted := *user
		demoted.Role = models.RoleStaff
		users.On("GetByID", mock.Anything, user.ID).Return(&demoted, nil)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		identity, err := m.Authenticate(req)
		require.NoError(t, err)
		assert.Equal(t, models.RoleStaff, identity.Role)
	})

	t.Run("deleted user is user not found", func(t *testing.T) {
		m, users, tokens := newTestMiddleware(testSecret)
		user := testUser(models.RoleAdmin)
		users.On("GetByID", mock.Anything, user.ID).
			Return(nil, fmt.Errorf("get user: %w", repositories.ErrNotFound))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+issue(t, tokens, user))

		_, err := m.Authenticate(req)

		assert.ErrorIs(t, err, services.ErrUserNotFound)
		assert.True(t, services.IsUnauthorizedError(err))
	})

	t.Run("store failure is internal", func(t *testing.T) {
		m, users, tokens := newTestMiddleware(testSecret)
		user := testUser(models.RoleAdmin)
		users.On("GetByID", mock.Anything, user.ID).Return(nil, errors.New("connection refused"))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+issue(t, tokens, user))

		_, err := m.Authenticate(req)

		assert.True(t, services.IsInternalError(err))
		assert.NotErrorIs(t, err, services.ErrUserNotFound)
	})
}

func TestRequireAuth(t *testing.T) {
	okHandler := func(t *testing.T, want *models.User) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := IdentityFromContext(r.Context())
			require.NotNil(t, identity)
			assert.Equal(t, want.ID, identity.ID)
			w.WriteHeader(http.StatusOK)
		})
	}

	t.Run("valid token reaches handler", func(t *testing.T) {
		m, users, tokens := newTestMiddleware(testSecret)
		user := testUser(models.RoleUser)
		users.On("GetByID", mock.Anything, user.ID).Return(user, nil)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+issue(t, tokens, user))
		w := httptest.NewRecorder()

		m.RequireAuth(okHandler(t, user)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	tests := []struct {
		name       string
		secret     string
		header     string
		wantStatus int
		wantCode   string
	}{
		{"missing header", testSecret, "", http.StatusUnauthorized, "unauthenticated"},
		{"garbage token", testSecret, "Bearer not.a.jwt", http.StatusUnauthorized, "invalid_token"},
		{"no secret", "", "Bearer not.a.jwt", http.StatusInternalServerError, "server_misconfigured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, _ := newTestMiddleware(tt.secret)
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			m.RequireAuth(next).ServeHTTP(w, req)

			assert.False(t, called)
			assert.Equal(t, tt.wantStatus, w.Code)

			var body utils.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, tt.wantCode, body.Details["code"])
		})
	}

	t.Run("deleted user gets 401", func(t *testing.T) {
		m, users, tokens := newTestMiddleware(testSecret)
		user := testUser(models.RoleAdmin)
		users.On("GetByID", mock.Anything, user.ID).Return(nil, repositories.ErrNotFound)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+issue(t, tokens, user))
		w := httptest.NewRecorder()

		m.RequireAuth(okHandler(t, user)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "user_not_found")
	})
}

func TestRequireAdminFunc(t *testing.T) {
	assert.ErrorIs(t, RequireAdmin(nil), services.ErrForbidden)
	assert.NoError(t, RequireAdmin(&Identity{ID: uuid.New(), Role: models.RoleAdmin}))

	for _, role := range models.Roles {
		if role == models.RoleAdmin {
			continue
		}
		t.Run(string(role), func(t *testing.T) {
			err := RequireAdmin(&Identity{ID: uuid.New(), Role: role})
			assert.ErrorIs(t, err, services.ErrForbidden)
		})
	}

	assert.ErrorIs(t, RequireAdmin(&Identity{Role: models.Role("admin")}), services.ErrForbidden)
}

func TestRequireAdminMiddleware(t *testing.T) {
	m, _, _ := newTestMiddleware(testSecret)

	tests := []struct {
		name       string
		identity   *Identity
		wantStatus int
	}{
		{"admin proceeds", &Identity{ID: uuid.New(), Role: models.RoleAdmin}, http.StatusOK},
		{"user forbidden", &Identity{ID: uuid.New(), Role: models.RoleUser}, http.StatusForbidden},
		{"missing identity forbidden", nil, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
			req := httptest.NewRequest(http.MethodDelete, "/admin", nil)
			if tt.identity != nil {
				req = req.WithContext(WithIdentity(req.Context(), tt.identity))
			}
			w := httptest.NewRecorder()

			m.RequireAdmin(next).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi"},
		{"bearer  abc ", "abc"},
		{"Bearer", ""},
		{"Token abc", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extractBearerToken(tt.header), tt.header)
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, IdentityFromContext(ctx))
	assert.Empty(t, GetRequestIDFromContext(ctx))

	identity := &Identity{ID: uuid.New(), Role: models.RoleAdmin}
	ctx = WithIdentity(context.WithValue(ctx, chimiddleware.RequestIDKey, "req-1"), identity)
	assert.Same(t, identity, IdentityFromContext(ctx))
	assert.Equal(t, "req-1", GetRequestIDFromContext(ctx))
	assert.True(t, identity.IsAdmin())

	var none *Identity
	assert.False(t, none.IsAdmin())
}
