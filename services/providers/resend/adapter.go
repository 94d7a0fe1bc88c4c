// Package resend sends email through the Resend HTTP API.
package resend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ZubbsZubbs/LAUTECH-sub002/services/providers"
)

const (
	defaultBaseURL = "https://api.resend.com"
	providerName   = "resend"

	// maxErrorBody bounds how much of an error response is read
	maxErrorBody = 64 << 10
)

// ResendAdapter implements providers.Provider over the Resend /emails endpoint
type ResendAdapter struct {
	config     providers.ProviderConfig
	httpClient *http.Client
}

// NewResendAdapter creates a new Resend adapter. The HTTP client is built
// once here and reused for every send.
func NewResendAdapter(config providers.ProviderConfig) *ResendAdapter {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}

	return &ResendAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Name returns the provider name
func (a *ResendAdapter) Name() string {
	return providerName
}

// Configured reports whether an API key is present
func (a *ResendAdapter) Configured() bool {
	return a.config.APIKey != ""
}

// Send makes one POST /emails call
func (a *ResendAdapter) Send(ctx context.Context, msg *providers.Message) (*providers.Receipt, error) {
	if !a.Configured() {
		return nil, providers.NewProviderError(a.Name(), "NOT_CONFIGURED", "API key is not set", 0, false, nil)
	}

	startTime := time.Now()

	reqBody, err := json.Marshal(a.buildRequest(msg))
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), "MARSHAL_ERROR", "failed to marshal request", 0, false, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.BaseURL+"/emails", bytes.NewReader(reqBody))
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), "REQUEST_ERROR", "failed to create request", 0, false, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.config.APIKey)

	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), "HTTP_ERROR", "HTTP request failed", 0, true, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, maxErrorBody))
		return nil, a.handleErrorResponse(httpResp.StatusCode, body)
	}

	var sendResp SendEmailResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&sendResp); err != nil {
		return nil, providers.NewProviderError(a.Name(), "UNMARSHAL_ERROR", "failed to decode response", httpResp.StatusCode, false, err)
	}
	if sendResp.ID == "" {
		return nil, providers.NewProviderError(a.Name(), "EMPTY_ID", "response carried no message id", httpResp.StatusCode, false, nil)
	}

	return &providers.Receipt{
		MessageID: sendResp.ID,
		Accepted:  []string{msg.To},
		Latency:   time.Since(startTime),
	}, nil
}

func (a *ResendAdapter) buildRequest(msg *providers.Message) *SendEmailRequest {
	req := &SendEmailRequest{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Text,
		HTML:    msg.HTML,
	}
	if msg.ReplyTo != "" {
		req.ReplyTo = []string{msg.ReplyTo}
	}
	return req
}

// handleErrorResponse converts a non-2xx response into a ProviderError
func (a *ResendAdapter) handleErrorResponse(statusCode int, body []byte) error {
	retryable := statusCode >= 500 || statusCode == http.StatusTooManyRequests

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Message == "" {
		message := strings.TrimSpace(string(body))
		if message == "" {
			message = http.StatusText(statusCode)
		}
		return providers.NewProviderError(a.Name(), "UNKNOWN_ERROR", fmt.Sprintf("status %d: %s", statusCode, message), statusCode, retryable, nil)
	}

	return providers.NewProviderError(
		a.Name(),
		errResp.Name,
		errResp.Message,
		statusCode,
		retryable,
		errors.New(errResp.Message),
	)
}

// Resend-specific request/response types

type SendEmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text,omitempty"`
	HTML    string   `json:"html,omitempty"`
	ReplyTo []string `json:"reply_to,omitempty"`
}

type SendEmailResponse struct {
	ID string `json:"id"`
}

type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Name       string `json:"name"`
	Message    string `json:"message"`
}
