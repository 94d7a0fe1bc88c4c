package account

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ZubbsZubbs/LAUTECH-sub002/auth"
	"github.com/ZubbsZubbs/LAUTECH-sub002/models"
	"github.com/ZubbsZubbs/LAUTECH-sub002/repositories"
	"github.com/ZubbsZubbs/LAUTECH-sub002/services"
	"github.com/ZubbsZubbs/LAUTECH-sub002/services/notification"
	"github.com/ZubbsZubbs/LAUTECH-sub002/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenIssuer signs access tokens
type TokenIssuer interface {
	Issue(userID uuid.UUID, role models.Role) (string, time.Time, error)
}

// PasswordHasher hashes and checks passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// Config holds account settings
type Config struct {
	FrontEndURL   string        // Base URL for reset links
	ResetTokenTTL time.Duration // Lifetime of a password reset token
}

// RegisterInput is a self-service sign-up
type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,maxbytes=72"`
}

// LoginInput is an email/password sign-in
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ResetInput completes a password reset
type ResetInput struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,maxbytes=72"`
}

// AuthResult is returned after register and login
type AuthResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// AccountService handles sign-up, sign-in and password resets
type AccountService struct {
	users     repositories.UserRepository
	resets    repositories.PasswordResetRepository
	txMgr     repositories.TransactionManager
	tokens    TokenIssuer
	hasher    PasswordHasher
	mailer    notification.Sender
	templates *notification.TemplateStore
	config    Config
	logger    *zap.Logger
	now       func() time.Time
}

// NewAccountService creates a new AccountService instance
func NewAccountService(
	users repositories.UserRepository,
	resets repositories.PasswordResetRepository,
	txMgr repositories.TransactionManager,
	tokens TokenIssuer,
	hasher PasswordHasher,
	mailer notification.Sender,
	templates *notification.TemplateStore,
	config Config,
	logger *zap.Logger,
) *AccountService {
	if config.ResetTokenTTL <= 0 {
		config.ResetTokenTTL = time.Hour
	}
	return &AccountService{
		users:     users,
		resets:    resets,
		txMgr:     txMgr,
		tokens:    tokens,
		hasher:    hasher,
		mailer:    mailer,
		templates: templates,
		config:    config,
		logger:    logger,
		now:       time.Now,
	}
}

// Register creates a USER account and signs it in
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, services.ValidationFailed(err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, services.WrapInternal("failed to hash password", err)
	}

	user := models.NewUser(strings.TrimSpace(in.Name), in.Email, hash, models.RoleUser)
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, services.ErrDuplicateEmail.Wrap(err)
		}
		return nil, services.FromRepository(err, nil)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID.String()))
	return s.issue(user)
}

// Login checks credentials and issues a token. Unknown emails and wrong
// passwords fail the same way.
func (s *AccountService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, services.ValidationFailed(err)
	}

	user, err := s.users.GetByEmail(ctx, normalizeEmail(in.Email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrInvalidCredentials
		}
		return nil, services.FromRepository(err, nil)
	}

	if err := s.hasher.Compare(user.PasswordHash, in.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, services.ErrInvalidCredentials
		}
		return nil, services.WrapInternal("failed to verify password", err)
	}

	return s.issue(user)
}

// Me returns the account of the authenticated caller
func (s *AccountService) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, services.FromRepository(err, services.ErrAccountNotFound)
	}
	return user, nil
}

// ForgotPassword emails a reset link when the address belongs to an account.
// It reports success either way so callers cannot probe for accounts.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	if err := utils.ValidateEmail(email); err != nil {
		return services.ValidationFailed(err)
	}

	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			s.logger.Error("failed to look up account for password reset", zap.Error(err))
		}
		return nil
	}

	token, hash, err := auth.NewResetToken()
	if err != nil {
		s.logger.Error("failed to generate reset token", zap.Error(err))
		return nil
	}

	now := s.now().UTC()
	reset := &models.PasswordReset{
		TokenHash: hash,
		UserID:    user.ID,
		ExpiresAt: now.Add(s.config.ResetTokenTTL),
		CreatedAt: now,
	}
	if err := s.resets.Create(ctx, reset); err != nil {
		s.logger.Error("failed to store reset token", zap.String("user_id", user.ID.String()), zap.Error(err))
		return nil
	}

	rendered, err := s.templates.Render(notification.TemplatePasswordReset, map[string]string{
		"Name":      user.Name,
		"Link":      s.resetLink(token),
		"ExpiresIn": s.config.ResetTokenTTL.String(),
	})
	if err != nil {
		s.logger.Error("failed to render reset email", zap.Error(err))
		return nil
	}

	result := s.mailer.Send(ctx, rendered.Request(user.Email, ""))
	s.logger.Info("password reset requested",
		zap.String("user_id", user.ID.String()),
		zap.String("provider", result.Provider))
	return nil
}

// ResetPassword consumes a reset token and replaces the password
func (s *AccountService) ResetPassword(ctx context.Context, in ResetInput) error {
	if err := utils.ValidateStruct(in); err != nil {
		return services.ValidationFailed(err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return services.WrapInternal("failed to hash password", err)
	}

	tokenHash := auth.HashResetToken(in.Token)
	return services.WithTransaction(ctx, s.txMgr, func(ctx context.Context) error {
		reset, err := s.resets.GetByTokenHash(ctx, tokenHash)
		if err != nil {
			return services.FromRepository(err, services.ErrInvalidResetToken)
		}

		now := s.now().UTC()
		if !reset.Usable(now) {
			return services.ErrInvalidResetToken
		}
		if err := s.resets.MarkUsed(ctx, tokenHash, now); err != nil {
			return services.FromRepository(err, services.ErrInvalidResetToken)
		}
		if err := s.users.UpdatePassword(ctx, reset.UserID, hash); err != nil {
			return services.FromRepository(err, services.ErrInvalidResetToken)
		}

		s.logger.Info("password reset completed", zap.String("user_id", reset.UserID.String()))
		return nil
	})
}

// EnsureAdmin creates an ADMIN account for email unless one already exists
func (s *AccountService) EnsureAdmin(ctx context.Context, name, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	_, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err == nil {
		return nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("failed to look up seed admin: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	user := models.NewUser(name, email, hash, models.RoleAdmin)
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil
		}
		return fmt.Errorf("failed to create seed admin: %w", err)
	}

	s.logger.Info("seed admin account created", zap.String("user_id", user.ID.String()))
	return nil
}

func (s *AccountService) issue(user *models.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		if errors.Is(err, auth.ErrMissingSecret) {
			return nil, services.ErrServerMisconfigured.Wrap(err)
		}
		return nil, services.WrapInternal("failed to issue token", err)
	}
	return &AuthResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *AccountService) resetLink(token string) string {
	base := strings.TrimRight(s.config.FrontEndURL, "/")
	return base + "/reset-password?token=" + url.QueryEscape(token)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
