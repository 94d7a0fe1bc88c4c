package resend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ZubbsZubbs/LAUTECH-sub002/services/providers"
)

func testMessage() *providers.Message {
	return &providers.Message{
		From:    "Hospital <no-reply@hospital.test>",
		To:      "jo@x.com",
		ReplyTo: "frontdesk@hospital.test",
		Subject: "Appointment confirmed",
		Text:    "See you soon",
		HTML:    "<p>See you soon</p>",
	}
}

func TestNewResendAdapter(t *testing.T) {
	adapter := NewResendAdapter(providers.ProviderConfig{APIKey: "re_test"})

	if adapter.Name() != "resend" {
		t.Errorf("Name() = %s, want resend", adapter.Name())
	}
	if adapter.config.BaseURL != defaultBaseURL {
		t.Errorf("BaseURL = %s, want %s", adapter.config.BaseURL, defaultBaseURL)
	}
	if adapter.httpClient.Timeout != 10*time.Second {
		t.Errorf("Timeout = %s, want 10s", adapter.httpClient.Timeout)
	}
	if !adapter.Configured() {
		t.Error("adapter with API key should be configured")
	}
	if NewResendAdapter(providers.ProviderConfig{}).Configured() {
		t.Error("adapter without API key should not be configured")
	}
}

func TestResendAdapter_Send(t *testing.T) {
	var got SendEmailRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/emails" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer re_test" {
			t.Errorf("Authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"49a3999c-0ce1-4ea6-ab68-afcd6dc2e794"}`))
	}))
	defer server.Close()

	adapter := NewResendAdapter(providers.ProviderConfig{APIKey: "re_test", BaseURL: server.URL + "/"})

	receipt, err := adapter.Send(context.Background(), testMessage())
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if receipt.MessageID != "49a3999c-0ce1-4ea6-ab68-afcd6dc2e794" {
		t.Errorf("MessageID = %s", receipt.MessageID)
	}
	if len(receipt.Accepted) != 1 || receipt.Accepted[0] != "jo@x.com" {
		t.Errorf("Accepted = %v", receipt.Accepted)
	}
	if got.From != "Hospital <no-reply@hospital.test>" || len(got.To) != 1 || got.To[0] != "jo@x.com" {
		t.Errorf("unexpected addressing: %+v", got)
	}
	if got.Subject != "Appointment confirmed" || got.Text != "See you soon" || got.HTML != "<p>See you soon</p>" {
		t.Errorf("unexpected content: %+v", got)
	}
	if len(got.ReplyTo) != 1 || got.ReplyTo[0] != "frontdesk@hospital.test" {
		t.Errorf("ReplyTo = %v", got.ReplyTo)
	}
}

func TestResendAdapter_SendErrors(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantCode      string
		wantRetryable bool
	}{
		{
			name:     "validation error",
			status:   http.StatusUnprocessableEntity,
			body:     `{"statusCode":422,"name":"validation_error","message":"Invalid from field"}`,
			wantCode: "validation_error",
		},
		{
			name:          "rate limited",
			status:        http.StatusTooManyRequests,
			body:          `{"statusCode":429,"name":"rate_limit_exceeded","message":"Too many requests"}`,
			wantCode:      "rate_limit_exceeded",
			wantRetryable: true,
		},
		{
			name:          "server error without JSON",
			status:        http.StatusBadGateway,
			body:          `upstream down`,
			wantCode:      "UNKNOWN_ERROR",
			wantRetryable: true,
		},
		{
			name:     "success without id",
			status:   http.StatusOK,
			body:     `{}`,
			wantCode: "EMPTY_ID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			adapter := NewResendAdapter(providers.ProviderConfig{APIKey: "re_test", BaseURL: server.URL})

			receipt, err := adapter.Send(context.Background(), testMessage())
			if receipt != nil {
				t.Errorf("expected nil receipt, got %+v", receipt)
			}

			var provErr *providers.ProviderError
			if !errors.As(err, &provErr) {
				t.Fatalf("expected ProviderError, got %v", err)
			}
			if provErr.Code != tt.wantCode {
				t.Errorf("Code = %s, want %s", provErr.Code, tt.wantCode)
			}
			if provErr.Retryable != tt.wantRetryable {
				t.Errorf("Retryable = %v, want %v", provErr.Retryable, tt.wantRetryable)
			}
		})
	}
}

func TestResendAdapter_NotConfigured(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	adapter := NewResendAdapter(providers.ProviderConfig{BaseURL: server.URL})

	if _, err := adapter.Send(context.Background(), testMessage()); err == nil {
		t.Fatal("expected error without API key")
	}
	if called {
		t.Error("unconfigured adapter must not call the API")
	}
}

func TestResendAdapter_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	adapter := NewResendAdapter(providers.ProviderConfig{APIKey: "re_test", BaseURL: server.URL, Timeout: 20 * time.Millisecond})

	_, err := adapter.Send(context.Background(), testMessage())
	if !providers.IsRetryable(err) {
		t.Errorf("timeout should be retryable, got %v", err)
	}
}
