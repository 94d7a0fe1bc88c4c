package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ZubbsZubbs/LAUTECH-sub002/internal/observability"
	"github.com/ZubbsZubbs/LAUTECH-sub002/models"
	"github.com/ZubbsZubbs/LAUTECH-sub002/services/providers"
	"github.com/ZubbsZubbs/LAUTECH-sub002/utils"
	"go.uber.org/zap"
)

// ProviderLog names the log-only outcome used when no provider delivered
const ProviderLog = "log"

// logWriteTimeout bounds one delivery log append
const logWriteTimeout = 5 * time.Second

var errNoProviders = errors.New("no email provider is configured")

// Request is one notification to deliver
type Request struct {
	To      string
	Subject string
	Text    string
	HTML    string
	ReplyTo string
}

// Result is the uniform outcome of Send, whichever provider (if any) delivered
type Result struct {
	MessageID string   `json:"message_id"`
	Accepted  []string `json:"accepted"`
	Rejected  []string `json:"rejected"`
	Provider  string   `json:"provider"`
}

// Delivered reports whether a provider accepted the message
func (r *Result) Delivered() bool {
	return r != nil && r.Provider != ProviderLog && len(r.Rejected) == 0
}

// Sender delivers one notification. *Dispatcher implements it.
type Sender interface {
	Send(ctx context.Context, req Request) *Result
}

// DeliveryLog is the append-only sink for delivery entries
type DeliveryLog interface {
	Append(ctx context.Context, entry *models.DeliveryLogEntry) error

	// Recent returns up to limit entries, newest first
	Recent(ctx context.Context, limit int) ([]*models.DeliveryLogEntry, error)
}

// Forwarder receives notifications that no provider could deliver.
// Forward must not block.
type Forwarder interface {
	Forward(f *Failure) error
}

// Failure is the payload handed to the Forwarder
type Failure struct {
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Text      string    `json:"text"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// Dispatcher delivers notifications through a fixed, ordered provider chain
type Dispatcher struct {
	from      string
	providers []providers.Provider
	log       DeliveryLog
	forwarder Forwarder
	metrics   observability.Metrics
	logger    *zap.Logger
}

// NewDispatcher creates a Dispatcher. The chain is the registry's configured
// providers in registration order, captured once here.
func NewDispatcher(
	from string,
	registry *providers.Registry,
	log DeliveryLog,
	forwarder Forwarder,
	metrics observability.Metrics,
	logger *zap.Logger,
) *Dispatcher {
	var chain []providers.Provider
	if registry != nil {
		chain = registry.Eligible()
	}
	if metrics == nil {
		metrics = observability.NopMetrics{}
	}

	names := make([]string, 0, len(chain))
	for _, p := range chain {
		names = append(names, p.Name())
	}
	logger.Info("notification dispatcher ready",
		zap.Strings("providers", names),
		zap.Bool("webhook", forwarder != nil))

	return &Dispatcher{
		from:      from,
		providers: chain,
		log:       log,
		forwarder: forwarder,
		metrics:   metrics,
		logger:    logger,
	}
}

// Providers returns the names of the providers in the chain, in order
func (d *Dispatcher) Providers() []string {
	names := make([]string, 0, len(d.providers))
	for _, p := range d.providers {
		names = append(names, p.Name())
	}
	return names
}

// Send tries each provider once, in order, and stops at the first success.
// It always returns a Result and appends exactly one delivery log entry.
// When every provider fails the notification is handed to the forwarder.
func (d *Dispatcher) Send(ctx context.Context, req Request) (result *Result) {
	logger := observability.WithContext(ctx, d.logger)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("notification dispatch panicked",
				zap.Any("panic", r),
				zap.String("to", req.To))
			result = &Result{Rejected: []string{req.To}, Provider: ProviderLog}
		}
	}()

	if err := validateRequest(req); err != nil {
		logger.Warn("rejected notification", zap.String("to", req.To), zap.Error(err))
		d.finish(ctx, models.NewDeliveryLogEntry(models.DeliveryFailed, req.To, req.Subject, ProviderLog, "", err.Error()))
		return &Result{Rejected: []string{req.To}, Provider: ProviderLog}
	}

	msg := &providers.Message{
		From:    d.from,
		To:      req.To,
		ReplyTo: req.ReplyTo,
		Subject: req.Subject,
		Text:    req.Text,
		HTML:    req.HTML,
	}

	// Delivery outlives the request: a client disconnect must not abort a healthy provider.
	sendCtx := context.WithoutCancel(ctx)

	lastErr := errNoProviders
	for _, p := range d.providers {
		receipt, err := d.attempt(sendCtx, p, msg)
		if err != nil {
			lastErr = err
			logger.Warn("email provider failed, falling back",
				zap.String("provider", p.Name()),
				zap.Bool("retryable", providers.IsRetryable(err)),
				zap.Error(err))
			continue
		}

		accepted := receipt.Accepted
		if len(accepted) == 0 {
			accepted = []string{req.To}
		}
		d.finish(ctx, models.NewDeliveryLogEntry(models.DeliverySent, req.To, req.Subject, p.Name(), receipt.MessageID, ""))
		logger.Info("email sent",
			zap.String("provider", p.Name()),
			zap.String("message_id", receipt.MessageID),
			zap.String("to", req.To))

		return &Result{
			MessageID: receipt.MessageID,
			Accepted:  accepted,
			Rejected:  receipt.Rejected,
			Provider:  p.Name(),
		}
	}

	entry := models.NewDeliveryLogEntry(models.DeliveryFailed, req.To, req.Subject, ProviderLog, "", lastErr.Error())
	d.finish(ctx, entry)
	logger.Error("email delivery failed on every provider",
		zap.String("to", req.To),
		zap.String("subject", req.Subject),
		zap.Error(lastErr))

	d.forward(logger, req, entry)

	return &Result{
		MessageID: "log-" + entry.ID.String(),
		Rejected:  []string{req.To},
		Provider:  ProviderLog,
	}
}

// attempt makes a single provider call. A panic or a nil receipt counts as a failure.
func (d *Dispatcher) attempt(ctx context.Context, p providers.Provider, msg *providers.Message) (receipt *providers.Receipt, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			receipt = nil
			err = fmt.Errorf("%s: provider panicked: %v", p.Name(), r)
		}
		d.metrics.RecordDeliveryAttempt(p.Name(), err == nil, time.Since(start))
	}()

	receipt, err = p.Send(ctx, msg)
	if err == nil && receipt == nil {
		err = fmt.Errorf("%s: provider returned no receipt", p.Name())
	}
	return receipt, err
}

// finish appends the entry and records the outcome. A failed append is logged, never returned.
func (d *Dispatcher) finish(ctx context.Context, entry *models.DeliveryLogEntry) {
	d.metrics.RecordDeliveryResult(string(entry.Status), entry.Provider)
	if d.log == nil {
		return
	}

	logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), logWriteTimeout)
	defer cancel()

	if err := d.log.Append(logCtx, entry); err != nil {
		observability.WithContext(ctx, d.logger).Error("failed to append delivery log entry",
			zap.String("entry_id", entry.ID.String()),
			zap.String("status", string(entry.Status)),
			zap.Error(err))
	}
}

func (d *Dispatcher) forward(logger *zap.Logger, req Request, entry *models.DeliveryLogEntry) {
	if d.forwarder == nil {
		return
	}
	err := d.forwarder.Forward(&Failure{
		To:        req.To,
		Subject:   req.Subject,
		Text:      req.Text,
		Error:     entry.Error,
		Timestamp: entry.Timestamp,
	})
	if err != nil {
		logger.Warn("webhook forward not queued", zap.Error(err))
	}
}

// Recent returns the newest delivery log entries
func (d *Dispatcher) Recent(ctx context.Context, limit int) ([]*models.DeliveryLogEntry, error) {
	if d.log == nil {
		return []*models.DeliveryLogEntry{}, nil
	}
	return d.log.Recent(ctx, limit)
}

func validateRequest(req Request) error {
	if err := utils.ValidateEmail(req.To); err != nil {
		return err
	}
	if err := utils.ValidateRequired(req.Subject, "subject"); err != nil {
		return err
	}
	return utils.ValidateRequired(req.Text, "text")
}
