package handlers

import (
	"context"
	"net/http"

	"github.com/ZubbsZubbs/LAUTECH-sub002/middleware"
	"github.com/ZubbsZubbs/LAUTECH-sub002/models"
	"github.com/ZubbsZubbs/LAUTECH-sub002/repositories"
	"github.com/ZubbsZubbs/LAUTECH-sub002/services"
	"github.com/ZubbsZubbs/LAUTECH-sub002/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserService defines the account management operations used by UserHandler
type UserService interface {
	List(ctx context.Context, params repositories.ListParams) ([]*models.User, error)
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateRole(ctx context.Context, actorID, id uuid.UUID, role string) (*models.User, error)
	Delete(ctx context.Context, actorID, id uuid.UUID) error
}

// UpdateRoleRequest is the body of PUT /users/{id}/role
type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// UserHandler handles admin management of accounts
type UserHandler struct {
	service UserService
	logger  *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{service: service, logger: logger}
}

// HandleList handles GET /api/v1/users
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context(), utils.ParseListParams(r))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, users, h.logger)
}

// HandleGet handles GET /api/v1/users/{id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, user, h.logger)
}

// HandleUpdateRole handles PUT /api/v1/users/{id}/role
func (h *UserHandler) HandleUpdateRole(w http.ResponseWriter, r *http.Request) {
	actor := middleware.IdentityFromContext(r.Context())
	if actor == nil {
		HandleServiceError(w, services.ErrUnauthenticated, h.logger)
		return
	}
	id, err := pathID(r)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	var in UpdateRoleRequest
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		HandleDecodeError(w, err, h.logger)
		return
	}

	user, err := h.service.UpdateRole(r.Context(), actor.ID, id, in.Role)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, user, h.logger)
}

// HandleDelete handles DELETE /api/v1/users/{id}
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor := middleware.IdentityFromContext(r.Context())
	if actor == nil {
		HandleServiceError(w, services.ErrUnauthenticated, h.logger)
		return
	}
	id, err := pathID(r)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := h.service.Delete(r.Context(), actor.ID, id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	utils.WriteNoContent(w)
}
