package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ZubbsZubbs/LAUTECH-sub002/auth"
	"github.com/ZubbsZubbs/LAUTECH-sub002/models"
	"github.com/ZubbsZubbs/LAUTECH-sub002/repositories"
	"github.com/ZubbsZubbs/LAUTECH-sub002/services"
	"github.com/ZubbsZubbs/LAUTECH-sub002/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenVerifier checks a bearer token and returns its claims.
// auth.TokenManager implements it.
type TokenVerifier interface {
	Verify(token string) (*auth.ParsedClaims, error)
}

// UserLookup loads the user a token refers to.
// repositories.UserRepository implements it.
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// AuthMiddleware resolves bearer tokens into an Identity and gates admin routes
type AuthMiddleware struct {
	verifier TokenVerifier
	users    UserLookup
	logger   *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(verifier TokenVerifier, users UserLookup, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		users:    users,
		logger:   logger,
	}
}

// Authenticate resolves the caller of r.
//
// The user store is read only once a well-formed bearer token has verified.
// Errors are the services auth sentinels: ErrUnauthenticated, ErrInvalidToken,
// ErrUserNotFound and ErrServerMisconfigured.
func (m *AuthMiddleware) Authenticate(r *http.Request) (*Identity, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, services.ErrUnauthenticated
	}

	token := extractBearerToken(header)
	if token == "" {
		return nil, services.ErrUnauthenticated
	}

	claims, err := m.verifier.Verify(token)
	if err != nil {
		if errors.Is(err, auth.ErrMissingSecret) {
			return nil, services.ErrServerMisconfigured.Wrap(err)
		}
		return nil, services.ErrInvalidToken.Wrap(err)
	}

	user, err := m.users.GetByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrUserNotFound.Wrap(err)
		}
		return nil, services.ErrDatabaseError.Wrap(err)
	}

	return &Identity{
		ID:    user.ID,
		Email: user.Email,
		Role:  user.Role,
	}, nil
}

// RequireAuth rejects requests that do not authenticate and stores the
// Identity in the request context for the rest.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		identity, err := m.Authenticate(r)
		if err != nil {
			fields := []zap.Field{
				zap.String("request_id", requestID),
				zap.String("code", services.GetErrorCode(err)),
				zap.Error(err),
			}
			if services.IsInternalError(err) {
				m.logger.Error("authentication failed", fields...)
			} else {
				m.logger.Warn("authentication failed", fields...)
			}
			writeAuthError(w, err)
			return
		}

		m.logger.Debug("authentication successful",
			zap.String("request_id", requestID),
			zap.String("user_id", identity.ID.String()),
			zap.String("role", string(identity.Role)))

		next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, identity)))
	})
}

// RequireAdmin returns nil only for an identity holding the admin role.
// A nil identity means RequireAuth did not run first and is rejected too.
func RequireAdmin(identity *Identity) error {
	if identity == nil {
		return services.ErrForbidden
	}
	if !identity.Role.IsAdmin() {
		return services.ErrForbidden
	}
	return nil
}

// RequireAdmin is the middleware form of the admin gate. Mount it after RequireAuth.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := IdentityFromContext(r.Context())
		if err := RequireAdmin(identity); err != nil {
			fields := []zap.Field{zap.String("request_id", GetRequestIDFromContext(r.Context()))}
			if identity == nil {
				m.logger.Error("admin gate reached without identity", fields...)
			} else {
				m.logger.Warn("admin access denied", append(fields,
					zap.String("user_id", identity.ID.String()),
					zap.String("role", string(identity.Role)))...)
			}
			writeAuthError(w, err)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeAuthError renders the auth sentinels; the code lets clients tell
// an expired token from a deleted account.
func writeAuthError(w http.ResponseWriter, err error) {
	var details map[string]interface{}
	if code := services.GetErrorCode(err); code != "" {
		details = map[string]interface{}{"code": code}
	}

	switch {
	case services.IsUnauthorizedError(err):
		_ = utils.WriteError(w, http.StatusUnauthorized, services.GetErrorMessage(err), details)
	case services.IsForbiddenError(err):
		_ = utils.WriteError(w, http.StatusForbidden, services.GetErrorMessage(err), details)
	case errors.Is(err, services.ErrServerMisconfigured):
		_ = utils.WriteError(w, http.StatusInternalServerError, services.GetErrorMessage(err), details)
	default:
		_ = utils.WriteInternalServerError(w, "")
	}
}

// extractBearerToken returns the token from an "Authorization: Bearer <token>" value
func extractBearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
