// Package smtp sends email over an SMTP relay.
package smtp

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/ZubbsZubbs/LAUTECH-sub002/services/providers"
	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	gosmtp "github.com/emersion/go-smtp"
)

const providerName = "smtp"

// TLS modes
const (
	TLSModeStartTLS = "starttls"
	TLSModeImplicit = "tls"
	TLSModeNone     = "none"
)

// Config configures the SMTP adapter
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	TLSMode  string
	Timeout  time.Duration

	// LocalName is sent in EHLO; defaults to "localhost"
	LocalName string

	// TLSConfig overrides the TLS settings; ServerName defaults to Host
	TLSConfig *tls.Config
}

// SMTPAdapter implements providers.Provider over SMTP
type SMTPAdapter struct {
	config Config
	now    func() time.Time
}

// NewSMTPAdapter creates a new SMTP adapter
func NewSMTPAdapter(config Config) *SMTPAdapter {
	if config.Port == 0 {
		config.Port = 587
	}
	if config.TLSMode == "" {
		config.TLSMode = TLSModeStartTLS
	}
	if config.Timeout == 0 {
		config.Timeout = 15 * time.Second
	}
	if config.LocalName == "" {
		config.LocalName = "localhost"
	}
	return &SMTPAdapter{config: config, now: time.Now}
}

// Name returns the provider name
func (a *SMTPAdapter) Name() string {
	return providerName
}

// Configured reports whether a relay host is set
func (a *SMTPAdapter) Configured() bool {
	return a.config.Host != ""
}

// Send opens one connection, submits msg and quits. There is no retry.
func (a *SMTPAdapter) Send(ctx context.Context, msg *providers.Message) (*providers.Receipt, error) {
	if !a.Configured() {
		return nil, providers.NewProviderError(a.Name(), "NOT_CONFIGURED", "SMTP host is not set", 0, false, nil)
	}

	startTime := a.now()

	from, err := mail.ParseAddress(msg.From)
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), "INVALID_FROM", "invalid from address", 0, false, err)
	}
	to, err := mail.ParseAddress(msg.To)
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), "INVALID_TO", "invalid recipient address", 0, false, err)
	}

	body, messageID, err := buildMessage(msg, from, to, startTime)
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), "BUILD_ERROR", "failed to build message", 0, false, err)
	}

	// One budget covers dial, handshake and the whole exchange
	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	c, err := a.dial(ctx)
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), "DIAL_ERROR", "failed to connect", 0, true, err)
	}
	defer c.Close()

	if a.config.Username != "" {
		if err := c.Auth(sasl.NewPlainClient("", a.config.Username, a.config.Password)); err != nil {
			return nil, a.commandError("AUTH_ERROR", "authentication failed", err)
		}
	}

	if err := c.Mail(from.Address, nil); err != nil {
		return nil, a.commandError("MAIL_ERROR", "sender rejected", err)
	}
	if err := c.Rcpt(to.Address, nil); err != nil {
		return nil, a.commandError("RCPT_ERROR", "recipient rejected", err)
	}

	w, err := c.Data()
	if err != nil {
		return nil, a.commandError("DATA_ERROR", "DATA command failed", err)
	}
	if _, err := w.Write(body); err != nil {
		_ = w.Close()
		return nil, a.commandError("DATA_ERROR", "failed to write message", err)
	}
	if err := w.Close(); err != nil {
		return nil, a.commandError("DATA_ERROR", "message rejected", err)
	}

	// The message is queued once DATA succeeds; a failed QUIT does not undo that.
	_ = c.Quit()

	return &providers.Receipt{
		MessageID: messageID,
		Accepted:  []string{to.Address},
		Latency:   a.now().Sub(startTime),
	}, nil
}

func (a *SMTPAdapter) dial(ctx context.Context) (*gosmtp.Client, error) {
	addr := net.JoinHostPort(a.config.Host, strconv.Itoa(a.config.Port))
	dialer := &net.Dialer{}

	var conn net.Conn
	var err error
	switch a.config.TLSMode {
	case TLSModeImplicit:
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: a.tlsConfig()}
		conn, err = tlsDialer.DialContext(ctx, "tcp", addr)
	default:
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, err
	}

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			conn.Close()
			return nil, err
		}
	}

	c := gosmtp.NewClient(conn)
	if err := c.Hello(a.config.LocalName); err != nil {
		c.Close()
		return nil, err
	}

	if a.config.TLSMode == TLSModeStartTLS {
		if ok, _ := c.Extension("STARTTLS"); !ok {
			c.Close()
			return nil, errors.New("server does not support STARTTLS")
		}
		if err := c.StartTLS(a.tlsConfig()); err != nil {
			c.Close()
			return nil, err
		}
	}

	return c, nil
}

func (a *SMTPAdapter) tlsConfig() *tls.Config {
	if a.config.TLSConfig != nil {
		cfg := a.config.TLSConfig.Clone()
		if cfg.ServerName == "" {
			cfg.ServerName = a.config.Host
		}
		return cfg
	}
	return &tls.Config{ServerName: a.config.Host, MinVersion: tls.VersionTLS12}
}

// commandError maps a failed SMTP command. 4xx replies are transient.
func (a *SMTPAdapter) commandError(code, message string, err error) error {
	var smtpErr *gosmtp.SMTPError
	if errors.As(err, &smtpErr) {
		return providers.NewProviderError(a.Name(), code, message, smtpErr.Code, smtpErr.Temporary(), err)
	}
	return providers.NewProviderError(a.Name(), code, message, 0, true, err)
}

// buildMessage renders msg as RFC 5322. With HTML present the body is
// multipart/alternative; otherwise a single text/plain part.
func buildMessage(msg *providers.Message, from, to *mail.Address, date time.Time) ([]byte, string, error) {
	var h mail.Header
	h.SetDate(date)
	h.SetAddressList("From", []*mail.Address{from})
	h.SetAddressList("To", []*mail.Address{to})
	h.SetSubject(msg.Subject)
	if msg.ReplyTo != "" {
		replyTo, err := mail.ParseAddress(msg.ReplyTo)
		if err != nil {
			return nil, "", fmt.Errorf("invalid reply-to address: %w", err)
		}
		h.SetAddressList("Reply-To", []*mail.Address{replyTo})
	}
	if err := h.GenerateMessageID(); err != nil {
		return nil, "", err
	}
	messageID, err := h.MessageID()
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	if msg.HTML == "" {
		h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
		w, err := mail.CreateSingleInlineWriter(&buf, h)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.WriteString(w, msg.Text); err != nil {
			return nil, "", err
		}
		if err := w.Close(); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), messageID, nil
	}

	w, err := mail.CreateInlineWriter(&buf, h)
	if err != nil {
		return nil, "", err
	}
	parts := []struct {
		contentType string
		body        string
	}{
		{"text/plain", msg.Text},
		{"text/html", msg.HTML},
	}
	for _, p := range parts {
		var ph mail.InlineHeader
		ph.SetContentType(p.contentType, map[string]string{"charset": "utf-8"})
		pw, err := w.CreatePart(ph)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.WriteString(pw, p.body); err != nil {
			return nil, "", err
		}
		if err := pw.Close(); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), messageID, nil
}
