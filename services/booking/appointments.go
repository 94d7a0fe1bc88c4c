package booking

import (
	"context"
	"strings"
	"time"

	"github.com/ZubbsZubbs/LAUTECH-sub002/models"
	"github.com/ZubbsZubbs/LAUTECH-sub002/repositories"
	"github.com/ZubbsZubbs/LAUTECH-sub002/services"
	"github.com/ZubbsZubbs/LAUTECH-sub002/services/notification"
	"github.com/ZubbsZubbs/LAUTECH-sub002/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// scheduleLayout is how appointment times appear in emails
const scheduleLayout = "Mon, 02 Jan 2006 15:04 MST"

// AppointmentInput is a booking made from the public site
type AppointmentInput struct {
	PatientName string    `json:"patient_name" validate:"required,max=120"`
	Email       string    `json:"email" validate:"required,email"`
	Phone       string    `json:"phone" validate:"max=32"`
	DoctorID    string    `json:"doctor_id" validate:"omitempty,uuid"`
	Department  string    `json:"department" validate:"required,max=80"`
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
	Reason      string    `json:"reason" validate:"max=2000"`
}

// StatusInput changes the status of an appointment or application
type StatusInput struct {
	Status string `json:"status" validate:"required"`
}

// AppointmentService handles bookings and emails the patient about them
type AppointmentService struct {
	appointments repositories.AppointmentRepository
	doctors      repositories.DoctorRepository
	mailer       notification.Sender
	templates    *notification.TemplateStore
	logger       *zap.Logger
	now          func() time.Time
}

// NewAppointmentService creates a new AppointmentService instance
func NewAppointmentService(
	appointments repositories.AppointmentRepository,
	doctors repositories.DoctorRepository,
	mailer notification.Sender,
	templates *notification.TemplateStore,
	logger *zap.Logger,
) *AppointmentService {
	return &AppointmentService{
		appointments: appointments,
		doctors:      doctors,
		mailer:       mailer,
		templates:    templates,
		logger:       logger,
		now:          time.Now,
	}
}

// Book stores a PENDING appointment and sends the patient a confirmation.
// Delivery problems never fail the booking.
func (s *AppointmentService) Book(ctx context.Context, in AppointmentInput) (*models.Appointment, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, services.ValidationFailed(err)
	}
	if !in.ScheduledAt.After(s.now()) {
		return nil, services.ErrInvalidInput.Wrap(nil).WithDetail("scheduled_at", "scheduled_at must be in the future")
	}

	var doctorID *uuid.UUID
	if in.DoctorID != "" {
		id, err := uuid.Parse(in.DoctorID)
		if err != nil {
			return nil, services.ValidationFailed(err)
		}
		if _, err := s.doctors.GetByID(ctx, id); err != nil {
			return nil, services.FromRepository(err, services.ErrDoctorNotFound)
		}
		doctorID = &id
	}

	appt := models.NewAppointment(
		strings.TrimSpace(in.PatientName),
		strings.ToLower(strings.TrimSpace(in.Email)),
		strings.TrimSpace(in.Phone),
		strings.TrimSpace(in.Department),
		doctorID,
		in.ScheduledAt,
		in.Reason,
	)
	if err := s.appointments.Create(ctx, appt); err != nil {
		return nil, services.FromRepository(err, nil)
	}

	s.logger.Info("appointment booked",
		zap.String("appointment_id", appt.ID.String()),
		zap.String("department", appt.Department))

	s.notify(ctx, notification.TemplateAppointmentBooked, appt)
	return appt, nil
}

// Get returns one appointment
func (s *AppointmentService) Get(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, services.FromRepository(err, services.ErrAppointmentNotFound)
	}
	return appt, nil
}

// List returns appointments, optionally filtered by status
func (s *AppointmentService) List(ctx context.Context, params repositories.ListParams) ([]*models.Appointment, error) {
	params = params.Normalize()
	if params.Status != "" {
		status := models.AppointmentStatus(strings.ToUpper(params.Status))
		if !status.Valid() {
			return nil, services.ErrInvalidStatus.Wrap(nil).WithDetail("status", params.Status)
		}
		params.Status = string(status)
	}

	appts, err := s.appointments.List(ctx, params)
	if err != nil {
		return nil, services.FromRepository(err, nil)
	}
	return appts, nil
}

// UpdateStatus moves an appointment to a new status and emails the patient
func (s *AppointmentService) UpdateStatus(ctx context.Context, id uuid.UUID, in StatusInput) (*models.Appointment, error) {
	status := models.AppointmentStatus(strings.ToUpper(strings.TrimSpace(in.Status)))
	if !status.Valid() {
		return nil, services.ErrInvalidStatus.Wrap(nil).WithDetail("status", in.Status)
	}

	if err := s.appointments.UpdateStatus(ctx, id, status); err != nil {
		return nil, services.FromRepository(err, services.ErrAppointmentNotFound)
	}

	appt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("appointment status updated",
		zap.String("appointment_id", id.String()),
		zap.String("status", string(status)))

	s.notify(ctx, notification.TemplateAppointmentStatus, appt)
	return appt, nil
}

// Delete removes an appointment
func (s *AppointmentService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.appointments.Delete(ctx, id); err != nil {
		return services.FromRepository(err, services.ErrAppointmentNotFound)
	}
	s.logger.Info("appointment deleted", zap.String("appointment_id", id.String()))
	return nil
}

func (s *AppointmentService) notify(ctx context.Context, template string, appt *models.Appointment) {
	rendered, err := s.templates.Render(template, map[string]string{
		"Name":        appt.PatientName,
		"Department":  appt.Department,
		"ScheduledAt": appt.ScheduledAt.Format(scheduleLayout),
		"Status":      string(appt.Status),
		"Reference":   appt.ID.String(),
	})
	if err != nil {
		s.logger.Error("failed to render appointment email", zap.String("template", template), zap.Error(err))
		return
	}

	result := s.mailer.Send(ctx, rendered.Request(appt.Email, ""))
	s.logger.Debug("appointment email dispatched",
		zap.String("appointment_id", appt.ID.String()),
		zap.String("provider", result.Provider))
}
