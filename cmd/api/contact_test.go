package main

import (
	"errors"
	"net/http"
	"testing"

	"foodspot/internal/mailer"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactAdminHandler(t *testing.T) {
	payload := map[string]string{
		"name":    "Meera",
		"email":   "meera@example.com",
		"subject": "  Wrong timings  ",
		"message": "Paragon closes at 11 now.",
	}

	t.Run("mail not configured", func(t *testing.T) {
		env := newTestApplication(t)
		rr := env.do(t, http.MethodPost, "/v1/contact", env.token(t, uuid.New()), payload)
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})

	t.Run("sends to the admin inbox", func(t *testing.T) {
		env := newTestApplication(t)
		m := &fakeMailer{}
		env.app.mailer = m
		env.app.config.mail.adminEmail = "team@foodspot.test"

		rr := env.do(t, http.MethodPost, "/v1/contact", env.token(t, uuid.New()), payload)
		require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())

		require.Len(t, m.sent, 1)
		assert.Equal(t, mailer.ContactAdminTemplate, m.sent[0].template)
		assert.Equal(t, "team@foodspot.test", m.sent[0].to)
		assert.Equal(t, "meera@example.com", m.sent[0].replyTo)
	})

	t.Run("invalid email", func(t *testing.T) {
		env := newTestApplication(t)
		env.app.mailer = &fakeMailer{}
		env.app.config.mail.adminEmail = "team@foodspot.test"

		bad := map[string]string{"name": "x", "email": "not-an-email", "subject": "s", "message": "m"}
		rr := env.do(t, http.MethodPost, "/v1/contact", env.token(t, uuid.New()), bad)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("delivery failure", func(t *testing.T) {
		env := newTestApplication(t)
		env.app.mailer = &fakeMailer{err: errors.New("smtp down")}
		env.app.config.mail.adminEmail = "team@foodspot.test"

		rr := env.do(t, http.MethodPost, "/v1/contact", env.token(t, uuid.New()), payload)
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}
