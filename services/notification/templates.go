package notification

import (
	"bytes"
	"fmt"
	"html"
	htmltemplate "html/template"
	"strings"
	"sync"
	texttemplate "text/template"

	"github.com/microcosm-cc/bluemonday"
)

// Template names
const (
	TemplateContact             = "contact"
	TemplateAppointmentBooked   = "appointment_booked"
	TemplateAppointmentStatus   = "appointment_status"
	TemplateApplicationReceived = "application_received"
	TemplatePasswordReset       = "password_reset"
	TemplateSubscribed          = "subscribed"
	TemplateTest                = "test"
)

// Template is the raw source of one email: subject, plain text and HTML bodies
type Template struct {
	Subject string
	Text    string
	HTML    string
}

// Rendered is a template executed against data
type Rendered struct {
	Subject string
	Text    string
	HTML    string
}

type compiledTemplate struct {
	subject *texttemplate.Template
	text    *texttemplate.Template
	html    *htmltemplate.Template
}

// TemplateStore compiles and renders named email templates.
// Every data value is stripped of markup before rendering.
type TemplateStore struct {
	mu        sync.RWMutex
	templates map[string]*compiledTemplate
	policy    *bluemonday.Policy
}

// NewTemplateStore seeds the store with the built-in templates
func NewTemplateStore() *TemplateStore {
	s := &TemplateStore{
		templates: make(map[string]*compiledTemplate),
		policy:    bluemonday.StrictPolicy(),
	}
	for name, t := range defaultTemplates {
		if err := s.Register(name, t); err != nil {
			panic(fmt.Sprintf("invalid built-in template %s: %v", name, err))
		}
	}
	return s
}

// Register adds or replaces a template definition
func (s *TemplateStore) Register(name string, t Template) error {
	subject, err := texttemplate.New(name + "_subject").Option("missingkey=zero").Parse(t.Subject)
	if err != nil {
		return fmt.Errorf("parse template %s subject: %w", name, err)
	}
	text, err := texttemplate.New(name + "_text").Option("missingkey=zero").Parse(t.Text)
	if err != nil {
		return fmt.Errorf("parse template %s text: %w", name, err)
	}
	body, err := htmltemplate.New(name + "_html").Option("missingkey=zero").Parse(t.HTML)
	if err != nil {
		return fmt.Errorf("parse template %s html: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[name] = &compiledTemplate{subject: subject, text: text, html: body}
	return nil
}

// Render executes the named template
func (s *TemplateStore) Render(name string, data map[string]string) (*Rendered, error) {
	s.mu.RLock()
	tmpl, ok := s.templates[name]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("template %s not found", name)
	}

	clean := make(map[string]string, len(data))
	for k, v := range data {
		clean[k] = s.Sanitize(v)
	}

	var subject, text, body bytes.Buffer
	if err := tmpl.subject.Execute(&subject, clean); err != nil {
		return nil, fmt.Errorf("render template %s subject: %w", name, err)
	}
	if err := tmpl.text.Execute(&text, clean); err != nil {
		return nil, fmt.Errorf("render template %s text: %w", name, err)
	}
	if err := tmpl.html.Execute(&body, clean); err != nil {
		return nil, fmt.Errorf("render template %s html: %w", name, err)
	}

	return &Rendered{
		Subject: singleLine(subject.String()),
		Text:    text.String(),
		HTML:    body.String(),
	}, nil
}

// Sanitize strips all markup from s and returns plain text.
// html/template escapes the result again when it lands in an HTML body.
func (s *TemplateStore) Sanitize(v string) string {
	return html.UnescapeString(s.policy.Sanitize(v))
}

// singleLine keeps header values on one line
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Request builds a dispatcher request addressed to to from a rendered template
func (r *Rendered) Request(to, replyTo string) Request {
	return Request{
		To:      to,
		Subject: r.Subject,
		Text:    r.Text,
		HTML:    r.HTML,
		ReplyTo: replyTo,
	}
}

const htmlLayoutStart = `<div style="font-family:Arial,sans-serif;max-width:600px;margin:0 auto;color:#1f2937">`
const htmlLayoutEnd = `<p style="color:#6b7280;font-size:12px">LAUTECH Teaching Hospital</p></div>`

var defaultTemplates = map[string]Template{
	TemplateContact: {
		Subject: "New contact form message from {{.Name}}",
		Text: "You have a new message from the website contact form.\n\n" +
			"Name: {{.Name}}\nEmail: {{.Email}}\n\n{{.Message}}\n",
		HTML: htmlLayoutStart +
			`<h2>New contact form message</h2>` +
			`<p><strong>Name:</strong> {{.Name}}<br><strong>Email:</strong> {{.Email}}</p>` +
			`<p style="white-space:pre-wrap">{{.Message}}</p>` +
			htmlLayoutEnd,
	},
	TemplateAppointmentBooked: {
		Subject: "We received your appointment request",
		Text: "Dear {{.Name}},\n\n" +
			"We received your appointment request for {{.Department}} on {{.ScheduledAt}}.\n" +
			"Our team will confirm it shortly. Reference: {{.Reference}}\n",
		HTML: htmlLayoutStart +
			`<h2>Appointment request received</h2>` +
			`<p>Dear {{.Name}},</p>` +
			`<p>We received your appointment request for <strong>{{.Department}}</strong> on <strong>{{.ScheduledAt}}</strong>. ` +
			`Our team will confirm it shortly.</p><p>Reference: {{.Reference}}</p>` +
			htmlLayoutEnd,
	},
	TemplateAppointmentStatus: {
		Subject: "Your appointment is {{.Status}}",
		Text: "Dear {{.Name}},\n\n" +
			"Your appointment for {{.Department}} on {{.ScheduledAt}} is now {{.Status}}.\n" +
			"Reference: {{.Reference}}\n",
		HTML: htmlLayoutStart +
			`<h2>Appointment update</h2>` +
			`<p>Dear {{.Name}},</p>` +
			`<p>Your appointment for <strong>{{.Department}}</strong> on <strong>{{.ScheduledAt}}</strong> is now <strong>{{.Status}}</strong>.</p>` +
			`<p>Reference: {{.Reference}}</p>` +
			htmlLayoutEnd,
	},
	TemplateApplicationReceived: {
		Subject: "Application received: {{.Position}}",
		Text: "Dear {{.Name}},\n\n" +
			"Thank you for applying for the {{.Position}} position. We will review your application and get back to you.\n" +
			"Reference: {{.Reference}}\n",
		HTML: htmlLayoutStart +
			`<h2>Application received</h2>` +
			`<p>Dear {{.Name}},</p>` +
			`<p>Thank you for applying for the <strong>{{.Position}}</strong> position. ` +
			`We will review your application and get back to you.</p><p>Reference: {{.Reference}}</p>` +
			htmlLayoutEnd,
	},
	TemplatePasswordReset: {
		Subject: "Reset your password",
		Text: "Hello {{.Name}},\n\n" +
			"Use the link below to reset your password. It expires in {{.ExpiresIn}}.\n\n{{.Link}}\n\n" +
			"If you did not request this, you can ignore this email.\n",
		HTML: htmlLayoutStart +
			`<h2>Reset your password</h2>` +
			`<p>Hello {{.Name}},</p>` +
			`<p>Use the link below to reset your password. It expires in {{.ExpiresIn}}.</p>` +
			`<p><a href="{{.Link}}">Reset password</a></p>` +
			`<p>If you did not request this, you can ignore this email.</p>` +
			htmlLayoutEnd,
	},
	TemplateSubscribed: {
		Subject: "Thanks for subscribing",
		Text:    "You are now subscribed to hospital news and health updates as {{.Email}}.\n",
		HTML: htmlLayoutStart +
			`<h2>Thanks for subscribing</h2>` +
			`<p>You are now subscribed to hospital news and health updates as {{.Email}}.</p>` +
			htmlLayoutEnd,
	},
	TemplateTest: {
		Subject: "Test email",
		Text:    "This is a test email requested by {{.Requester}} at {{.Time}}.\n",
		HTML: htmlLayoutStart +
			`<h2>Test email</h2><p>This is a test email requested by {{.Requester}} at {{.Time}}.</p>` +
			htmlLayoutEnd,
	},
}
