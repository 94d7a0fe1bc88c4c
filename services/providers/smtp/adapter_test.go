package smtp

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ZubbsZubbs/LAUTECH-sub002/services/providers"
	"github.com/emersion/go-sasl"
	gosmtp "github.com/emersion/go-smtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type receivedMail struct {
	from string
	to   []string
	data string
}

// testBackend is an in-process SMTP server that records what it receives
type testBackend struct {
	mu         sync.Mutex
	received   []receivedMail
	username   string
	password   string
	rejectRcpt *gosmtp.SMTPError
}

func (b *testBackend) NewSession(_ *gosmtp.Conn) (gosmtp.Session, error) {
	return &testSession{backend: b}, nil
}

func (b *testBackend) messages() []receivedMail {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]receivedMail(nil), b.received...)
}

type testSession struct {
	backend *testBackend
	current receivedMail
}

func (s *testSession) AuthMechanisms() []string {
	return []string{sasl.Plain}
}

func (s *testSession) Auth(mech string) (sasl.Server, error) {
	return sasl.NewPlainServer(func(identity, username, password string) error {
		if username != s.backend.username || password != s.backend.password {
			return errors.New("invalid credentials")
		}
		return nil
	}), nil
}

func (s *testSession) Mail(from string, _ *gosmtp.MailOptions) error {
	s.current.from = from
	return nil
}

func (s *testSession) Rcpt(to string, _ *gosmtp.RcptOptions) error {
	if s.backend.rejectRcpt != nil {
		return s.backend.rejectRcpt
	}
	s.current.to = append(s.current.to, to)
	return nil
}

func (s *testSession) Data(r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.current.data = string(b)
	s.backend.mu.Lock()
	s.backend.received = append(s.backend.received, s.current)
	s.backend.mu.Unlock()
	return nil
}

func (s *testSession) Reset()        { s.current = receivedMail{} }
func (s *testSession) Logout() error { return nil }

func startServer(t *testing.T, be *testBackend) (string, int) {
	t.Helper()

	srv := gosmtp.NewServer(be)
	srv.Domain = "localhost"
	srv.AllowInsecureAuth = true
	srv.ReadTimeout = 5 * time.Second
	srv.WriteTimeout = 5 * time.Second

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.Serve(l) }()
	t.Cleanup(func() { _ = srv.Close() })

	addr := l.Addr().(*net.TCPAddr)
	return "127.0.0.1", addr.Port
}

func newTestAdapter(host string, port int) *SMTPAdapter {
	return NewSMTPAdapter(Config{
		Host:     host,
		Port:     port,
		Username: "mailer",
		Password: "s3cret",
		TLSMode:  TLSModeNone,
		Timeout:  5 * time.Second,
	})
}

func testMessage() *providers.Message {
	return &providers.Message{
		From:    "Hospital <no-reply@hospital.test>",
		To:      "jo@x.com",
		Subject: "Thanks for contacting us",
		Text:    "We received your message.",
		HTML:    "<p>We received your message.</p>",
	}
}

func TestNewSMTPAdapter_Defaults(t *testing.T) {
	a := NewSMTPAdapter(Config{Host: "smtp.gmail.com"})

	assert.Equal(t, "smtp", a.Name())
	assert.True(t, a.Configured())
	assert.Equal(t, 587, a.config.Port)
	assert.Equal(t, TLSModeStartTLS, a.config.TLSMode)
	assert.Equal(t, 15*time.Second, a.config.Timeout)

	assert.False(t, NewSMTPAdapter(Config{}).Configured())
}

func TestSMTPAdapter_Send(t *testing.T) {
	be := &testBackend{username: "mailer", password: "s3cret"}
	host, port := startServer(t, be)

	receipt, err := newTestAdapter(host, port).Send(context.Background(), testMessage())
	require.NoError(t, err)

	assert.NotEmpty(t, receipt.MessageID)
	assert.Equal(t, []string{"jo@x.com"}, receipt.Accepted)
	assert.Empty(t, receipt.Rejected)

	msgs := be.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "no-reply@hospital.test", msgs[0].from)
	assert.Equal(t, []string{"jo@x.com"}, msgs[0].to)
	assert.Contains(t, msgs[0].data, "Subject: Thanks for contacting us")
	assert.Contains(t, msgs[0].data, "multipart/alternative")
	assert.Contains(t, msgs[0].data, "text/html")
	assert.Contains(t, msgs[0].data, receipt.MessageID)
}

func TestSMTPAdapter_TextOnly(t *testing.T) {
	be := &testBackend{username: "mailer", password: "s3cret"}
	host, port := startServer(t, be)

	msg := testMessage()
	msg.HTML = ""
	_, err := newTestAdapter(host, port).Send(context.Background(), msg)
	require.NoError(t, err)

	msgs := be.messages()
	require.Len(t, msgs, 1)
	assert.NotContains(t, msgs[0].data, "multipart")
	assert.Contains(t, msgs[0].data, "text/plain")
	assert.Contains(t, msgs[0].data, "We received your message.")
}

func TestSMTPAdapter_AuthFailure(t *testing.T) {
	be := &testBackend{username: "mailer", password: "other"}
	host, port := startServer(t, be)

	_, err := newTestAdapter(host, port).Send(context.Background(), testMessage())

	var provErr *providers.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, "AUTH_ERROR", provErr.Code)
	assert.Empty(t, be.messages())
}

func TestSMTPAdapter_RecipientRejected(t *testing.T) {
	tests := []struct {
		name          string
		reply         *gosmtp.SMTPError
		wantRetryable bool
	}{
		{
			name:  "permanent",
			reply: &gosmtp.SMTPError{Code: 550, EnhancedCode: gosmtp.EnhancedCode{5, 1, 1}, Message: "no such user"},
		},
		{
			name:          "temporary",
			reply:         &gosmtp.SMTPError{Code: 451, EnhancedCode: gosmtp.EnhancedCode{4, 3, 0}, Message: "try later"},
			wantRetryable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			be := &testBackend{username: "mailer", password: "s3cret", rejectRcpt: tt.reply}
			host, port := startServer(t, be)

			_, err := newTestAdapter(host, port).Send(context.Background(), testMessage())

			var provErr *providers.ProviderError
			require.ErrorAs(t, err, &provErr)
			assert.Equal(t, "RCPT_ERROR", provErr.Code)
			assert.Equal(t, tt.reply.Code, provErr.StatusCode)
			assert.Equal(t, tt.wantRetryable, provErr.Retryable)
		})
	}
}

func TestSMTPAdapter_DialFailure(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	_, err = newTestAdapter("127.0.0.1", port).Send(context.Background(), testMessage())

	var provErr *providers.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, "DIAL_ERROR", provErr.Code)
	assert.True(t, provErr.Retryable)
}

func TestSMTPAdapter_TimeoutCoversWholeExchange(t *testing.T) {
	// Accepts connections but never sends a greeting
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			t.Cleanup(func() { _ = conn.Close() })
		}
	}()

	a := newTestAdapter("127.0.0.1", l.Addr().(*net.TCPAddr).Port)
	a.config.Timeout = 200 * time.Millisecond

	start := time.Now()
	_, err = a.Send(context.Background(), testMessage())
	elapsed := time.Since(start)

	var provErr *providers.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, "DIAL_ERROR", provErr.Code)
	assert.Less(t, elapsed, 2*time.Second)
}

func TestSMTPAdapter_StartTLSRequired(t *testing.T) {
	be := &testBackend{username: "mailer", password: "s3cret"}
	host, port := startServer(t, be)

	a := newTestAdapter(host, port)
	a.config.TLSMode = TLSModeStartTLS

	_, err := a.Send(context.Background(), testMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STARTTLS")
	assert.Empty(t, be.messages())
}

func TestSMTPAdapter_InvalidAddresses(t *testing.T) {
	a := newTestAdapter("127.0.0.1", 1)

	msg := testMessage()
	msg.To = "not an address"
	_, err := a.Send(context.Background(), msg)
	assert.True(t, strings.Contains(err.Error(), "invalid recipient address"))

	msg = testMessage()
	msg.From = ""
	_, err = a.Send(context.Background(), msg)
	assert.Contains(t, err.Error(), "invalid from address")
}
