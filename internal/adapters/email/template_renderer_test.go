package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialevents/internal/domain"
)

func TestTemplateRenderer_Notification(t *testing.T) {
	r := NewTemplateRenderer()

	subject, html, text, err := r.Render("notification", domain.NotificationEmailData{
		Email: "alice@example.com",
		Name:  "Alice",
		Title: "Inscription confirmée",
		Body:  "Votre place pour \"Randonnée du dimanche\" est réservée.",
	})
	require.NoError(t, err)
	assert.Equal(t, "Inscription confirmée", subject)
	assert.Contains(t, html, "Bonjour Alice")
	assert.Contains(t, html, "Inscription confirmée")
	assert.Contains(t, text, "Randonnée du dimanche")
	// HTML body escapes the quoted event name.
	assert.Contains(t, html, "&#34;Randonnée du dimanche&#34;")
}

func TestTemplateRenderer_UnknownTemplate(t *testing.T) {
	r := NewTemplateRenderer()
	_, _, _, err := r.Render("missing", nil)
	require.Error(t, err)
}
