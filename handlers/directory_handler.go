package handlers

import (
	"context"
	"net/http"

	"github.com/ZubbsZubbs/LAUTECH-sub002/models"
	"github.com/ZubbsZubbs/LAUTECH-sub002/repositories"
	"github.com/ZubbsZubbs/LAUTECH-sub002/services/directory"
	"github.com/ZubbsZubbs/LAUTECH-sub002/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PatientService defines the patient record operations used by PatientHandler
type PatientService interface {
	Create(ctx context.Context, in directory.PatientInput) (*models.Patient, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Patient, error)
	List(ctx context.Context, params repositories.ListParams) ([]*models.Patient, error)
	Update(ctx context.Context, id uuid.UUID, in directory.PatientInput) (*models.Patient, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// DoctorService defines the doctor directory operations used by DoctorHandler
type DoctorService interface {
	Create(ctx context.Context, in directory.DoctorInput) (*models.Doctor, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Doctor, error)
	List(ctx context.Context, params repositories.ListParams) ([]*models.Doctor, error)
	Update(ctx context.Context, id uuid.UUID, in directory.DoctorInput) (*models.Doctor, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// PatientHandler handles patient records. Every route is admin only.
type PatientHandler struct {
	service PatientService
	logger  *zap.Logger
}

// NewPatientHandler creates a new PatientHandler
func NewPatientHandler(service PatientService, logger *zap.Logger) *PatientHandler {
	return &PatientHandler{service: service, logger: logger}
}

// HandleList handles GET /api/v1/patients
func (h *PatientHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	patients, err := h.service.List(r.Context(), utils.ParseListParams(r))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, patients, h.logger)
}

// HandleCreate handles POST /api/v1/patients
func (h *PatientHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in directory.PatientInput
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		HandleDecodeError(w, err, h.logger)
		return
	}

	patient, err := h.service.Create(r.Context(), in)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeCreated(w, patient, h.logger)
}

// HandleGet handles GET /api/v1/patients/{id}
func (h *PatientHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	patient, err := h.service.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, patient, h.logger)
}

// HandleUpdate handles PUT /api/v1/patients/{id}
func (h *PatientHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	var in directory.PatientInput
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		HandleDecodeError(w, err, h.logger)
		return
	}

	patient, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, patient, h.logger)
}

// HandleDelete handles DELETE /api/v1/patients/{id}
func (h *PatientHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
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

// DoctorHandler handles the doctor directory. Reads are public.
type DoctorHandler struct {
	service DoctorService
	logger  *zap.Logger
}

// NewDoctorHandler creates a new DoctorHandler
func NewDoctorHandler(service DoctorService, logger *zap.Logger) *DoctorHandler {
	return &DoctorHandler{service: service, logger: logger}
}

// HandleList handles GET /api/v1/doctors?department=
func (h *DoctorHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.service.List(r.Context(), utils.ParseListParams(r))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, doctors, h.logger)
}

// HandleGet handles GET /api/v1/doctors/{id}
func (h *DoctorHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	doctor, err := h.service.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, doctor, h.logger)
}

// HandleCreate handles POST /api/v1/doctors
func (h *DoctorHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in directory.DoctorInput
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		HandleDecodeError(w, err, h.logger)
		return
	}

	doctor, err := h.service.Create(r.Context(), in)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeCreated(w, doctor, h.logger)
}

// HandleUpdate handles PUT /api/v1/doctors/{id}
func (h *DoctorHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	var in directory.DoctorInput
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		HandleDecodeError(w, err, h.logger)
		return
	}

	doctor, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, doctor, h.logger)
}

// HandleDelete handles DELETE /api/v1/doctors/{id}
func (h *DoctorHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
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
