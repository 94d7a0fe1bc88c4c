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

// DoctorInput is the body of doctor create and update requests
type DoctorInput struct {
	Name       string `json:"name" validate:"required,max=120"`
	Email      string `json:"email" validate:"omitempty,email"`
	Phone      string `json:"phone" validate:"max=32"`
	Department string `json:"department" validate:"required,max=80"`
	Specialty  string `json:"specialty" validate:"max=120"`
	Bio        string `json:"bio" validate:"max=4000"`
	ImageURL   string `json:"image_url" validate:"omitempty,url"`
	Available  *bool  `json:"available"`
}

func (in DoctorInput) apply(d *models.Doctor) {
	d.Name = strings.TrimSpace(in.Name)
	d.Email = strings.ToLower(strings.TrimSpace(in.Email))
	d.Phone = strings.TrimSpace(in.Phone)
	d.Department = strings.TrimSpace(in.Department)
	d.Specialty = strings.TrimSpace(in.Specialty)
	d.Bio = in.Bio
	d.ImageURL = in.ImageURL
	if in.Available != nil {
		d.Available = *in.Available
	}
}

// DoctorService manages the public doctor directory
type DoctorService struct {
	doctors repositories.DoctorRepository
	logger  *zap.Logger
}

// NewDoctorService creates a new DoctorService instance
func NewDoctorService(doctors repositories.DoctorRepository, logger *zap.Logger) *DoctorService {
	return &DoctorService{doctors: doctors, logger: logger}
}

// Create adds a doctor, available unless the input says otherwise
func (s *DoctorService) Create(ctx context.Context, in DoctorInput) (*models.Doctor, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, services.ValidationFailed(err)
	}

	d := models.NewDoctor(in.Name, in.Email, in.Department, in.Specialty)
	in.apply(d)
	if err := s.doctors.Create(ctx, d); err != nil {
		return nil, services.FromRepository(err, nil)
	}

	s.logger.Info("doctor created", zap.String("doctor_id", d.ID.String()))
	return d, nil
}

// Get returns one doctor
func (s *DoctorService) Get(ctx context.Context, id uuid.UUID) (*models.Doctor, error) {
	d, err := s.doctors.GetByID(ctx, id)
	if err != nil {
		return nil, services.FromRepository(err, services.ErrDoctorNotFound)
	}
	return d, nil
}

// List returns doctors, optionally filtered by department
func (s *DoctorService) List(ctx context.Context, params repositories.ListParams) ([]*models.Doctor, error) {
	doctors, err := s.doctors.List(ctx, params.Normalize())
	if err != nil {
		return nil, services.FromRepository(err, nil)
	}
	return doctors, nil
}

// Update replaces the editable fields of a doctor
func (s *DoctorService) Update(ctx context.Context, id uuid.UUID, in DoctorInput) (*models.Doctor, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, services.ValidationFailed(err)
	}

	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(d)
	d.UpdatedAt = time.Now().UTC()

	if err := s.doctors.Update(ctx, d); err != nil {
		return nil, services.FromRepository(err, services.ErrDoctorNotFound)
	}
	return d, nil
}

// Delete removes a doctor
func (s *DoctorService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.doctors.Delete(ctx, id); err != nil {
		return services.FromRepository(err, services.ErrDoctorNotFound)
	}
	s.logger.Info("doctor deleted", zap.String("doctor_id", id.String()))
	return nil
}
