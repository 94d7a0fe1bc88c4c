package directory

import (
	"context"
	"strings"
	"time"

	"github.com/ZubbsZubbs/LAUTECH-sub002/models"
	"github.com/ZubbsZubbs/LAUTECH-sub002/repositories"
	"github.com/ZubbsZubbs/LAUTECH-sub002/services"
	"github.com/ZubbsZubbs/LAUTECH-sub002/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// PatientInput is the body of patient create and update requests
type PatientInput struct {
	FirstName   string `json:"first_name" validate:"required,max=80"`
	LastName    string `json:"last_name" validate:"max=80"`
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone" validate:"max=32"`
	DateOfBirth string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Gender      string `json:"gender" validate:"max=20"`
	Address     string `json:"address" validate:"max=255"`
	BloodGroup  string `json:"blood_group" validate:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
}

func (in PatientInput) apply(p *models.Patient) {
	p.FirstName = strings.TrimSpace(in.FirstName)
	p.LastName = strings.TrimSpace(in.LastName)
	p.Email = strings.ToLower(strings.TrimSpace(in.Email))
	p.Phone = strings.TrimSpace(in.Phone)
	p.Gender = in.Gender
	p.Address = in.Address
	p.BloodGroup = in.BloodGroup
	p.DateOfBirth = nil
	if in.DateOfBirth != "" {
		// Format already checked by the datetime tag
		if dob, err := time.Parse(dateLayout, in.DateOfBirth); err == nil {
			p.DateOfBirth = &dob
		}
	}
}

// PatientService manages patient records
type PatientService struct {
	patients repositories.PatientRepository
	logger   *zap.Logger
}

// NewPatientService creates a new PatientService instance
func NewPatientService(patients repositories.PatientRepository, logger *zap.Logger) *PatientService {
	return &PatientService{patients: patients, logger: logger}
}

// Create adds a patient record
func (s *PatientService) Create(ctx context.Context, in PatientInput) (*models.Patient, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, services.ValidationFailed(err)
	}

	p := models.NewPatient(in.FirstName, in.LastName, in.Email, in.Phone)
	in.apply(p)
	if err := s.patients.Create(ctx, p); err != nil {
		return nil, services.FromRepository(err, nil)
	}

	s.logger.Info("patient created", zap.String("patient_id", p.ID.String()))
	return p, nil
}

// Get returns one patient
func (s *PatientService) Get(ctx context.Context, id uuid.UUID) (*models.Patient, error) {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, services.FromRepository(err, services.ErrPatientNotFound)
	}
	return p, nil
}

// List returns a page of patients
func (s *PatientService) List(ctx context.Context, params repositories.ListParams) ([]*models.Patient, error) {
	patients, err := s.patients.List(ctx, params.Normalize())
	if err != nil {
		return nil, services.FromRepository(err, nil)
	}
	return patients, nil
}

// Update replaces the editable fields of a patient
func (s *PatientService) Update(ctx context.Context, id uuid.UUID, in PatientInput) (*models.Patient, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, services.ValidationFailed(err)
	}

	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(p)
	p.UpdatedAt = time.Now().UTC()

	if err := s.patients.Update(ctx, p); err != nil {
		return nil, services.FromRepository(err, services.ErrPatientNotFound)
	}
	return p, nil
}

// Delete removes a patient
func (s *PatientService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.patients.Delete(ctx, id); err != nil {
		return services.FromRepository(err, services.ErrPatientNotFound)
	}
	s.logger.Info("patient deleted", zap.String("patient_id", id.String()))
	return nil
}
