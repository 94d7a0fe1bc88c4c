package handlers

import (
	"context"
	"net/http"

	"github.com/ZubbsZubbs/LAUTECH-sub002/models"
	"github.com/ZubbsZubbs/LAUTECH-sub002/services/settings"
	"github.com/ZubbsZubbs/LAUTECH-sub002/utils"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SettingsService defines the site settings operations used by SettingsHandler
type SettingsService interface {
	All(ctx context.Context) (map[string]string, error)
	Get(ctx context.Context, key string) (*models.Setting, error)
	Put(ctx context.Context, in settings.UpdateInput) (*models.Setting, error)
}

// PutSettingRequest is the body of PUT /settings/{key}
type PutSettingRequest struct {
	Value string `json:"value"`
}

// SettingsHandler handles site settings
type SettingsHandler struct {
	service SettingsService
	logger  *zap.Logger
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(service SettingsService, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{service: service, logger: logger}
}

// HandleList handles GET /api/v1/settings
func (h *SettingsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	all, err := h.service.All(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, all, h.logger)
}

// HandleGet handles GET /api/v1/settings/{key}
func (h *SettingsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	setting, err := h.service.Get(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, setting, h.logger)
}

// HandlePut handles PUT /api/v1/settings/{key}
func (h *SettingsHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	var body PutSettingRequest
	if err := utils.DecodeJSON(w, r, &body); err != nil {
		HandleDecodeError(w, err, h.logger)
		return
	}

	setting, err := h.service.Put(r.Context(), settings.UpdateInput{
		Key:   chi.URLParam(r, "key"),
		Value: body.Value,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, setting, h.logger)
}
