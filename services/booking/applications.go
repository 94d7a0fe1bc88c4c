package booking

import (
	"context"
	"strings"

	"github.com/ZubbsZubbs/LAUTECH-sub002/models"
	"github.com/ZubbsZubbs/LAUTECH-sub002/repositories"
	"github.com/ZubbsZubbs/LAUTECH-sub002/services"
	"github.com/ZubbsZubbs/LAUTECH-sub002/services/notification"
	"github.com/ZubbsZubbs/LAUTECH-sub002/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ApplicationInput is a job or internship application
type ApplicationInput struct {
	FullName    string `json:"full_name" validate:"required,max=120"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"max=32"`
	Position    string `json:"position" validate:"required,max=120"`
	CoverLetter string `json:"cover_letter" validate:"max=10000"`
	ResumeURL   string `json:"resume_url" validate:"omitempty,url"`
}

// ApplicationService handles job applications
type ApplicationService struct {
	applications repositories.ApplicationRepository
	mailer       notification.Sender
	templates    *notification.TemplateStore
	logger       *zap.Logger
}

// NewApplicationService creates a new ApplicationService instance
func NewApplicationService(
	applications repositories.ApplicationRepository,
	mailer notification.Sender,
	templates *notification.TemplateStore,
	logger *zap.Logger,
) *ApplicationService {
	return &ApplicationService{
		applications: applications,
		mailer:       mailer,
		templates:    templates,
		logger:       logger,
	}
}

// Submit stores an application and acknowledges it by email
func (s *ApplicationService) Submit(ctx context.Context, in ApplicationInput) (*models.Application, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, services.ValidationFailed(err)
	}

	app := models.NewApplication(
		strings.TrimSpace(in.FullName),
		strings.ToLower(strings.TrimSpace(in.Email)),
		strings.TrimSpace(in.Phone),
		strings.TrimSpace(in.Position),
		in.CoverLetter,
		in.ResumeURL,
	)
	if err := s.applications.Create(ctx, app); err != nil {
		return nil, services.FromRepository(err, nil)
	}

	s.logger.Info("application submitted",
		zap.String("application_id", app.ID.String()),
		zap.String("position", app.Position))

	rendered, err := s.templates.Render(notification.TemplateApplicationReceived, map[string]string{
		"Name":      app.FullName,
		"Position":  app.Position,
		"Reference": app.ID.String(),
	})
	if err != nil {
		s.logger.Error("failed to render application email", zap.Error(err))
		return app, nil
	}
	s.mailer.Send(ctx, rendered.Request(app.Email, ""))

	return app, nil
}

// Get returns one application
func (s *ApplicationService) Get(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	app, err := s.applications.GetByID(ctx, id)
	if err != nil {
		return nil, services.FromRepository(err, services.ErrApplicationNotFound)
	}
	return app, nil
}

// List returns applications, optionally filtered by status
func (s *ApplicationService) List(ctx context.Context, params repositories.ListParams) ([]*models.Application, error) {
	params = params.Normalize()
	if params.Status != "" {
		status := models.ApplicationStatus(strings.ToUpper(params.Status))
		if !status.Valid() {
			return nil, services.ErrInvalidStatus.Wrap(nil).WithDetail("status", params.Status)
		}
		params.Status = string(status)
	}

	apps, err := s.applications.List(ctx, params)
	if err != nil {
		return nil, services.FromRepository(err, nil)
	}
	return apps, nil
}

// UpdateStatus moves an application through review
func (s *ApplicationService) UpdateStatus(ctx context.Context, id uuid.UUID, in StatusInput) (*models.Application, error) {
	status := models.ApplicationStatus(strings.ToUpper(strings.TrimSpace(in.Status)))
	if !status.Valid() {
		return nil, services.ErrInvalidStatus.Wrap(nil).WithDetail("status", in.Status)
	}

	if err := s.applications.UpdateStatus(ctx, id, status); err != nil {
		return nil, services.FromRepository(err, services.ErrApplicationNotFound)
	}

	s.logger.Info("application status updated",
		zap.String("application_id", id.String()),
		zap.String("status", string(status)))
	return s.Get(ctx, id)
}

// Delete removes an application
func (s *ApplicationService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.applications.Delete(ctx, id); err != nil {
		return services.FromRepository(err, services.ErrApplicationNotFound)
	}
	s.logger.Info("application deleted", zap.String("application_id", id.String()))
	return nil
}
