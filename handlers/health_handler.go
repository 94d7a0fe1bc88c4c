package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/ZubbsZubbs/LAUTECH-sub002/utils"
	"go.uber.org/zap"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`

	Components map[string]interface{} `json:"components,omitempty"`
}

// DatabaseChecker reports whether the database answers. *postgres.DB implements it.
type DatabaseChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler handles liveness and readiness probes
type HealthHandler struct {
	db         DatabaseChecker
	logger     *zap.Logger
	components map[string]func() interface{}
}

// NewHealthHandler creates a new HealthHandler. db may be nil.
func NewHealthHandler(db DatabaseChecker, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:         db,
		logger:     logger,
		components: make(map[string]func() interface{}),
	}
}

// Report adds a named component to the readiness response. Components are
// informational and never change the status.
func (h *HealthHandler) Report(name string, fn func() interface{}) *HealthHandler {
	h.components[name] = fn
	return h
}

// HandleHealth handles GET /healthz. It answers 200 while the process runs.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeOK(w, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}, h.logger)
}

// HandleReadiness handles GET /readyz
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	status := "healthy"
	httpStatus := http.StatusOK

	if err := h.checkDatabase(ctx); err != nil {
		h.logger.Warn("database health check failed", zap.Error(err))
		checks["database"] = "unhealthy"
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["database"] = "healthy"
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}
	if len(h.components) > 0 {
		response.Components = make(map[string]interface{}, len(h.components))
		for name, fn := range h.components {
			response.Components[name] = fn()
		}
	}
	if err := utils.WriteJSON(w, httpStatus, utils.SuccessResponse{Data: response}); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}

func (h *HealthHandler) checkDatabase(ctx context.Context) error {
	if h.db == nil {
		return nil
	}
	return h.db.HealthCheck(ctx)
}
