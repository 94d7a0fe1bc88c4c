package handlers

import (
	"context"
	"net/http"

	"github.com/ZubbsZubbs/LAUTECH-sub002/models"
	"github.com/ZubbsZubbs/LAUTECH-sub002/repositories"
	"github.com/ZubbsZubbs/LAUTECH-sub002/services/booking"
	"github.com/ZubbsZubbs/LAUTECH-sub002/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AppointmentService defines the booking operations used by AppointmentHandler
type AppointmentService interface {
	Book(ctx context.Context, in booking.AppointmentInput) (*models.Appointment, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Appointment, error)
	List(ctx context.Context, params repositories.ListParams) ([]*models.Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, in booking.StatusInput) (*models.Appointment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ApplicationService defines the job application operations used by ApplicationHandler
type ApplicationService interface {
	Submit(ctx context.Context, in booking.ApplicationInput) (*models.Application, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Application, error)
	List(ctx context.Context, params repositories.ListParams) ([]*models.Application, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, in booking.StatusInput) (*models.Application, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// AppointmentHandler handles appointment bookings
type AppointmentHandler struct {
	service AppointmentService
	logger  *zap.Logger
}

// NewAppointmentHandler creates a new AppointmentHandler
func NewAppointmentHandler(service AppointmentService, logger *zap.Logger) *AppointmentHandler {
	return &AppointmentHandler{service: service, logger: logger}
}

// HandleBook handles POST /api/v1/appointments
func (h *AppointmentHandler) HandleBook(w http.ResponseWriter, r *http.Request) {
	var in booking.AppointmentInput
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		HandleDecodeError(w, err, h.logger)
		return
	}

	appt, err := h.service.Book(r.Context(), in)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeCreated(w, appt, h.logger)
}

// HandleList handles GET /api/v1/appointments?status=
func (h *AppointmentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	appts, err := h.service.List(r.Context(), utils.ParseListParams(r))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, appts, h.logger)
}

// HandleGet handles GET /api/v1/appointments/{id}
func (h *AppointmentHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	appt, err := h.service.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, appt, h.logger)
}

// HandleUpdateStatus handles PUT /api/v1/appointments/{id}/status
func (h *AppointmentHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	var in booking.StatusInput
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		HandleDecodeError(w, err, h.logger)
		return
	}

	appt, err := h.service.UpdateStatus(r.Context(), id, in)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, appt, h.logger)
}

// HandleDelete handles DELETE /api/v1/appointments/{id}
func (h *AppointmentHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	utils.WriteNoContent(w)
}

// ApplicationHandler handles job applications
type ApplicationHandler struct {
	service ApplicationService
	logger  *zap.Logger
}

// NewApplicationHandler creates a new ApplicationHandler
func NewApplicationHandler(service ApplicationService, logger *zap.Logger) *ApplicationHandler {
	return &ApplicationHandler{service: service, logger: logger}
}

// HandleSubmit handles POST /api/v1/applications
func (h *ApplicationHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var in booking.ApplicationInput
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		HandleDecodeError(w, err, h.logger)
		return
	}

	app, err := h.service.Submit(r.Context(), in)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeCreated(w, app, h.logger)
}

// HandleList handles GET /api/v1/applications?status=
func (h *ApplicationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	apps, err := h.service.List(r.Context(), utils.ParseListParams(r))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, apps, h.logger)
}

// HandleGet handles GET /api/v1/applications/{id}
func (h *ApplicationHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	app, err := h.service.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, app, h.logger)
}

// HandleUpdateStatus handles PUT /api/v1/applications/{id}/status
func (h *ApplicationHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	var in booking.StatusInput
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		HandleDecodeError(w, err, h.logger)
		return
	}

	app, err := h.service.UpdateStatus(r.Context(), id, in)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, app, h.logger)
}

// HandleDelete handles DELETE /api/v1/applications/{id}
func (h *ApplicationHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	utils.WriteNoContent(w)
}
