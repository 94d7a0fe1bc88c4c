package handlers

import (
	"context"
	"net/http"

	"github.com/ZubbsZubbs/LAUTECH-sub002/middleware"
	"github.com/ZubbsZubbs/LAUTECH-sub002/models"
	"github.com/ZubbsZubbs/LAUTECH-sub002/services"
	"github.com/ZubbsZubbs/LAUTECH-sub002/services/account"
	"github.com/ZubbsZubbs/LAUTECH-sub002/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// forgotPasswordMessage is returned whether or not the address has an account
const forgotPasswordMessage = "If an account exists for that email, a password reset link has been sent."

// AccountService defines the account operations used by AuthHandler
type AccountService interface {
	Register(ctx context.Context, in account.RegisterInput) (*account.AuthResult, error)
	Login(ctx context.Context, in account.LoginInput) (*account.AuthResult, error)
	Me(ctx context.Context, userID uuid.UUID) (*models.User, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, in account.ResetInput) error
}

// ForgotPasswordRequest is the body of POST /auth/forgot-password
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// AuthHandler handles sign-up, sign-in and password reset requests
type AuthHandler struct {
	service AccountService
	logger  *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AccountService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger,
	}
}

// HandleRegister handles POST /api/v1/auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in account.RegisterInput
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		HandleDecodeError(w, err, h.logger)
		return
	}

	result, err := h.service.Register(r.Context(), in)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeCreated(w, result, h.logger)
}

// HandleLogin handles POST /api/v1/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in account.LoginInput
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		HandleDecodeError(w, err, h.logger)
		return
	}

	result, err := h.service.Login(r.Context(), in)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, result, h.logger)
}

// HandleMe handles GET /api/v1/auth/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		HandleServiceError(w, services.ErrUnauthenticated, h.logger)
		return
	}

	user, err := h.service.Me(r.Context(), identity.ID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, user, h.logger)
}

// HandleForgotPassword handles POST /api/v1/auth/forgot-password.
// The answer does not reveal whether the email has an account.
func (h *AuthHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var in ForgotPasswordRequest
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		HandleDecodeError(w, err, h.logger)
		return
	}

	if err := h.service.ForgotPassword(r.Context(), in.Email); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeMessage(w, forgotPasswordMessage, h.logger)
}

// HandleResetPassword handles POST /api/v1/auth/reset-password
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var in account.ResetInput
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		HandleDecodeError(w, err, h.logger)
		return
	}

	if err := h.service.ResetPassword(r.Context(), in); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeMessage(w, "Password has been reset. You can now sign in.", h.logger)
}
