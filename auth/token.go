// Package auth issues and verifies the bearer tokens used by the API
// and hashes account passwords.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/ZubbsZubbs/LAUTECH-sub002/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrMissingSecret is returned when no signing secret is configured
	ErrMissingSecret = errors.New("token signing secret is not configured")

	// ErrInvalidToken is returned when the token fails signature, algorithm or claim checks
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when the token has expired
	ErrTokenExpired = errors.New("token expired")
)

// Claims are the signed claims carried by an access token
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
	Role   string `json:"role,omitempty"`
}

// ParsedClaims are verified claims with typed fields
type ParsedClaims struct {
	UserID    uuid.UUID
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenManager signs and verifies HS256 access tokens
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a token manager. An empty secret is accepted here
// so the process can start; Issue and Verify then fail with ErrMissingSecret.
func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Configured reports whether a signing secret is present
func (m *TokenManager) Configured() bool {
	return len(m.secret) > 0
}

// TTL returns the lifetime of issued tokens
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a token for user
func (m *TokenManager) Issue(userID uuid.UUID, role models.Role) (string, time.Time, error) {
	if !m.Configured() {
		return "", time.Time{}, ErrMissingSecret
	}

	now := m.now()
	expiresAt := now.Add(m.ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID: userID.String(),
		Role:   string(role),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks the signature, algorithm, expiry and issuer of tokenString.
// The role claim is informational only; callers must load the user to learn the current role.
func (m *TokenManager) Verify(tokenString string) (*ParsedClaims, error) {
	if !m.Configured() {
		return nil, ErrMissingSecret
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidToken, ErrTokenExpired)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return parseClaims(claims)
}

// parseClaims converts Claims to ParsedClaims. userId wins over sub when both are present.
func parseClaims(claims *Claims) (*ParsedClaims, error) {
	raw := claims.UserID
	if raw == "" {
		raw = claims.Subject
	}
	if raw == "" {
		return nil, fmt.Errorf("%w: missing userId claim", ErrInvalidToken)
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: userId is not a UUID", ErrInvalidToken)
	}

	parsed := &ParsedClaims{
		UserID: userID,
		Role:   claims.Role,
	}
	if claims.IssuedAt != nil {
		parsed.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		parsed.ExpiresAt = claims.ExpiresAt.Time
	}
	return parsed, nil
}
