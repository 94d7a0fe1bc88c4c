package handlers

import (
	"net/http"

	"github.com/ZubbsZubbs/LAUTECH-sub002/services"
	"github.com/ZubbsZubbs/LAUTECH-sub002/utils"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// pathID parses the {id} route parameter
func pathID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, services.ErrInvalidInput.Wrap(err).WithDetail("id", "id must be a UUID")
	}
	return id, nil
}

func writeOK(w http.ResponseWriter, data interface{}, logger *zap.Logger) {
	if err := utils.WriteOK(w, data); err != nil {
		logger.Error("failed to write response", zap.Error(err))
	}
}

func writeCreated(w http.ResponseWriter, data interface{}, logger *zap.Logger) {
	if err := utils.WriteCreated(w, data); err != nil {
		logger.Error("failed to write response", zap.Error(err))
	}
}

func writeMessage(w http.ResponseWriter, message string, logger *zap.Logger) {
	if err := utils.WriteMessage(w, message); err != nil {
		logger.Error("failed to write response", zap.Error(err))
	}
}
