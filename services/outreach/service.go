package outreach

import (
	"context"
	"errors"
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

// ContactInput is a contact form submission
type ContactInput struct {
	Name    string `json:"name" validate:"required,max=120"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required,max=5000"`
}

// SubscribeInput is a newsletter sign-up
type SubscribeInput struct {
	Email string `json:"email" validate:"required,email"`
}

// TestInput asks for a test email
type TestInput struct {
	To string `json:"to" validate:"required,email"`
}

// SubscribeResult reports whether the address was newly added
type SubscribeResult struct {
	Subscriber *models.Subscriber `json:"subscriber"`
	Created    bool               `json:"created"`
}

// OutreachService handles the public contact form and newsletter sign-ups
type OutreachService struct {
	subscribers  repositories.SubscriberRepository
	mailer       notification.Sender
	templates    *notification.TemplateStore
	contactInbox string
	logger       *zap.Logger
}

// NewOutreachService creates a new OutreachService instance.
// Contact form messages are delivered to contactInbox.
func NewOutreachService(
	subscribers repositories.SubscriberRepository,
	mailer notification.Sender,
	templates *notification.TemplateStore,
	contactInbox string,
	logger *zap.Logger,
) *OutreachService {
	return &OutreachService{
		subscribers:  subscribers,
		mailer:       mailer,
		templates:    templates,
		contactInbox: contactInbox,
		logger:       logger,
	}
}

// Contact forwards a contact form message to the hospital inbox. Only
// invalid input is an error; a degraded delivery still counts as submitted.
func (s *OutreachService) Contact(ctx context.Context, in ContactInput) (*notification.Result, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, services.ValidationFailed(err)
	}

	rendered, err := s.templates.Render(notification.TemplateContact, map[string]string{
		"Name":    in.Name,
		"Email":   in.Email,
		"Message": in.Message,
	})
	if err != nil {
		return nil, services.WrapInternal("failed to render contact email", err)
	}

	result := s.mailer.Send(ctx, rendered.Request(s.contactInbox, in.Email))
	s.logger.Info("contact form submitted",
		zap.String("provider", result.Provider),
		zap.Bool("delivered", result.Delivered()))
	return result, nil
}

// Subscribe adds email to the newsletter. Subscribing twice is not an error.
func (s *OutreachService) Subscribe(ctx context.Context, in SubscribeInput) (*SubscribeResult, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, services.ValidationFailed(err)
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	sub := &models.Subscriber{ID: uuid.New(), Email: email, CreatedAt: time.Now().UTC()}

	if err := s.subscribers.Create(ctx, sub); err != nil {
		if !errors.Is(err, repositories.ErrDuplicate) {
			return nil, services.FromRepository(err, nil)
		}
		existing, err := s.subscribers.GetByEmail(ctx, email)
		if err != nil {
			return nil, services.FromRepository(err, nil)
		}
		return &SubscribeResult{Subscriber: existing, Created: false}, nil
	}

	s.logger.Info("newsletter subscription added", zap.String("subscriber_id", sub.ID.String()))

	rendered, err := s.templates.Render(notification.TemplateSubscribed, map[string]string{"Email": email})
	if err != nil {
		s.logger.Error("failed to render subscription email", zap.Error(err))
	} else {
		s.mailer.Send(ctx, rendered.Request(email, ""))
	}

	return &SubscribeResult{Subscriber: sub, Created: true}, nil
}

// Subscribers lists newsletter subscribers
func (s *OutreachService) Subscribers(ctx context.Context, params repositories.ListParams) ([]*models.Subscriber, error) {
	subs, err := s.subscribers.List(ctx, params.Normalize())
	if err != nil {
		return nil, services.FromRepository(err, nil)
	}
	return subs, nil
}

// SendTest sends a test email through the full provider chain
func (s *OutreachService) SendTest(ctx context.Context, in TestInput, requester string) (*notification.Result, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, services.ValidationFailed(err)
	}

	rendered, err := s.templates.Render(notification.TemplateTest, map[string]string{
		"Requester": requester,
		"Time":      time.Now().UTC().Format(time.RFC1123),
	})
	if err != nil {
		return nil, services.WrapInternal("failed to render test email", err)
	}
	return s.mailer.Send(ctx, rendered.Request(in.To, "")), nil
}
