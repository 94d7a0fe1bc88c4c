package handlers

import (
	"context"
	"net/http"

	"github.com/ZubbsZubbs/LAUTECH-sub002/middleware"
	"github.com/ZubbsZubbs/LAUTECH-sub002/models"
	"github.com/ZubbsZubbs/LAUTECH-sub002/repositories"
	"github.com/ZubbsZubbs/LAUTECH-sub002/services/notification"
	"github.com/ZubbsZubbs/LAUTECH-sub002/services/outreach"
	"github.com/ZubbsZubbs/LAUTECH-sub002/utils"
	"go.uber.org/zap"
)

// contactMessage is returned for every accepted contact form submission,
// including those whose delivery fell back to the log.
const contactMessage = "Thank you for contacting us. We will get back to you soon."

// OutreachService defines the public form operations used by OutreachHandler
type OutreachService interface {
	Contact(ctx context.Context, in outreach.ContactInput) (*notification.Result, error)
	Subscribe(ctx context.Context, in outreach.SubscribeInput) (*outreach.SubscribeResult, error)
	Subscribers(ctx context.Context, params repositories.ListParams) ([]*models.Subscriber, error)
	SendTest(ctx context.Context, in outreach.TestInput, requester string) (*notification.Result, error)
}

// DeliveryLogReader reads recent delivery log entries
type DeliveryLogReader interface {
	Recent(ctx context.Context, limit int) ([]*models.DeliveryLogEntry, error)
}

// OutreachHandler handles the contact form, newsletter and notification admin routes
type OutreachHandler struct {
	service OutreachService
	logs    DeliveryLogReader
	logger  *zap.Logger
}

// NewOutreachHandler creates a new OutreachHandler
func NewOutreachHandler(service OutreachService, logs DeliveryLogReader, logger *zap.Logger) *OutreachHandler {
	return &OutreachHandler{service: service, logs: logs, logger: logger}
}

// HandleContact handles POST /api/v1/contact. A delivery that degraded to
// the log still answers 200; the outcome is in the delivery log.
func (h *OutreachHandler) HandleContact(w http.ResponseWriter, r *http.Request) {
	var in outreach.ContactInput
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		HandleDecodeError(w, err, h.logger)
		return
	}

	if _, err := h.service.Contact(r.Context(), in); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeMessage(w, contactMessage, h.logger)
}

// HandleSubscribe handles POST /api/v1/subscribe
func (h *OutreachHandler) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	var in outreach.SubscribeInput
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		HandleDecodeError(w, err, h.logger)
		return
	}

	result, err := h.service.Subscribe(r.Context(), in)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeCreated(w, result, h.logger)
}

// HandleSubscribers handles GET /api/v1/subscribers
func (h *OutreachHandler) HandleSubscribers(w http.ResponseWriter, r *http.Request) {
	subs, err := h.service.Subscribers(r.Context(), utils.ParseListParams(r))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, subs, h.logger)
}

// HandleDeliveryLogs handles GET /api/v1/notifications/logs?limit=
func (h *OutreachHandler) HandleDeliveryLogs(w http.ResponseWriter, r *http.Request) {
	params := utils.ParseListParams(r)

	entries, err := h.logs.Recent(r.Context(), params.Limit)
	if err != nil {
		h.logger.Error("failed to read delivery log", zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to read delivery log")
		return
	}
	writeOK(w, entries, h.logger)
}

// HandleSendTest handles POST /api/v1/notifications/test
func (h *OutreachHandler) HandleSendTest(w http.ResponseWriter, r *http.Request) {
	var in outreach.TestInput
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		HandleDecodeError(w, err, h.logger)
		return
	}

	requester := "an administrator"
	if identity := middleware.IdentityFromContext(r.Context()); identity != nil {
		requester = identity.Email
	}

	result, err := h.service.SendTest(r.Context(), in, requester)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	writeOK(w, result, h.logger)
}
