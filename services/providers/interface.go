package providers

import (
	"context"
	"errors"
	"time"
)

// Provider delivers one email through an external mechanism
type Provider interface {
	// Name returns the provider name used in logs and delivery entries (e.g. "resend", "smtp")
	Name() string

	// Configured reports whether the credentials this provider needs are present
	Configured() bool

	// Send makes exactly one delivery attempt. Implementations do not retry.
	Send(ctx context.Context, msg *Message) (*Receipt, error)
}

// Message is a fully addressed email
type Message struct {
	From    string
	To      string
	ReplyTo string
	Subject string
	Text    string
	HTML    string
}

// Receipt is what a provider reports after accepting a message
type Receipt struct {
	// MessageID is the provider's id for the message
	MessageID string

	// Accepted and Rejected list recipient addresses
	Accepted []string
	Rejected []string

	// Latency of the provider call
	Latency time.Duration
}

// ProviderConfig holds common configuration for HTTP-based providers
type ProviderConfig struct {
	// APIKey for authentication; an empty key leaves the provider unconfigured
	APIKey string

	// BaseURL for the API (optional override)
	BaseURL string

	// Timeout for one request
	Timeout time.Duration
}

// ProviderError represents an error from a provider
type ProviderError struct {
	// Provider that generated the error
	Provider string

	// Code is the error code
	Code string

	// Message is the error message
	Message string

	// StatusCode is the HTTP or SMTP status code (if applicable)
	StatusCode int

	// Retryable indicates if a later attempt could succeed
	Retryable bool

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	msg := e.Provider + ": " + e.Message
	if e.Cause != nil && e.Cause.Error() != e.Message {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap implements error unwrapping
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// NewProviderError creates a new provider error
func NewProviderError(provider, code, message string, statusCode int, retryable bool, cause error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  retryable,
		Cause:      cause,
	}
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.Retryable
	}
	return false
}
