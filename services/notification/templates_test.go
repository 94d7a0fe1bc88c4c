package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateStore_RenderContact(t *testing.T) {
	store := NewTemplateStore()

	out, err := store.Render(TemplateContact, map[string]string{
		"Name":    "Jo",
		"Email":   "jo@x.com",
		"Message": "hi",
	})
	require.NoError(t, err)

	assert.Equal(t, "New contact form message from Jo", out.Subject)
	assert.Contains(t, out.Text, "Name: Jo")
	assert.Contains(t, out.Text, "hi")
	assert.Contains(t, out.HTML, "jo@x.com")
}

func TestTemplateStore_EscapesHostileInput(t *testing.T) {
	store := NewTemplateStore()

	out, err := store.Render(TemplateContact, map[string]string{
		"Name":    `<script>alert("x")</script>Jo`,
		"Email":   `"><img src=x onerror=alert(1)>`,
		"Message": `&lt;script&gt;steal()&lt;/script&gt; Tom & Jerry`,
	})
	require.NoError(t, err)

	assert.NotContains(t, out.HTML, "<script")
	assert.NotContains(t, out.HTML, "<img")
	assert.NotContains(t, out.HTML, "onerror=")
	assert.Contains(t, out.HTML, "Jo")
	assert.Contains(t, out.HTML, "Tom &amp; Jerry")
	assert.NotContains(t, out.Subject, "<script")
}

func TestTemplateStore_SubjectStaysOnOneLine(t *testing.T) {
	store := NewTemplateStore()

	out, err := store.Render(TemplateContact, map[string]string{"Name": "Jo\r\nBcc: victim@x.com"})
	require.NoError(t, err)

	assert.NotContains(t, out.Subject, "\n")
	assert.NotContains(t, out.Subject, "\r")
	assert.Equal(t, "New contact form message from Jo Bcc: victim@x.com", out.Subject)
}

func TestTemplateStore_MissingKeysRenderEmpty(t *testing.T) {
	store := NewTemplateStore()

	out, err := store.Render(TemplateSubscribed, nil)
	require.NoError(t, err)
	assert.NotContains(t, out.Text, "<no value>")
}

func TestTemplateStore_UnknownTemplate(t *testing.T) {
	_, err := NewTemplateStore().Render("nope", nil)
	assert.Error(t, err)
}

func TestTemplateStore_Register(t *testing.T) {
	store := NewTemplateStore()

	err := store.Register("broken", Template{Subject: "{{.Name", Text: "x", HTML: "x"})
	assert.Error(t, err)

	require.NoError(t, store.Register("custom", Template{Subject: "Hi {{.Name}}", Text: "Body {{.Name}}", HTML: "<b>{{.Name}}</b>"}))
	out, err := store.Render("custom", map[string]string{"Name": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "Hi Ada", out.Subject)
	assert.Equal(t, "<b>Ada</b>", out.HTML)
}

func TestTemplateStore_BuiltinsRender(t *testing.T) {
	store := NewTemplateStore()
	data := map[string]string{
		"Name":        "Ada",
		"Email":       "ada@x.com",
		"Message":     "hello",
		"Department":  "Cardiology",
		"ScheduledAt": "Mon, 02 Mar 2026 09:00 UTC",
		"Status":      "CONFIRMED",
		"Reference":   "abc",
		"Position":    "Nurse",
		"Link":        "https://hospital.test/reset-password?token=t",
		"ExpiresIn":   "1h0m0s",
		"Requester":   "admin@x.com",
		"Time":        "now",
	}

	for _, name := range []string{
		TemplateContact, TemplateAppointmentBooked, TemplateAppointmentStatus,
		TemplateApplicationReceived, TemplatePasswordReset, TemplateSubscribed, TemplateTest,
	} {
		t.Run(name, func(t *testing.T) {
			out, err := store.Render(name, data)
			require.NoError(t, err)
			assert.NotEmpty(t, out.Subject)
			assert.NotEmpty(t, out.Text)
			assert.NotEmpty(t, out.HTML)

			req := out.Request("ada@x.com", "")
			assert.NoError(t, validateRequest(req))
		})
	}
}

func TestTemplateStore_ResetLinkSurvivesSanitizing(t *testing.T) {
	store := NewTemplateStore()

	out, err := store.Render(TemplatePasswordReset, map[string]string{
		"Name": "Ada",
		"Link": "https://hospital.test/reset-password?token=abc&x=1",
	})
	require.NoError(t, err)
	assert.Contains(t, out.Text, "https://hospital.test/reset-password?token=abc&x=1")
	assert.Contains(t, out.HTML, `href="https://hospital.test/reset-password?token=abc&amp;x=1"`)
}
