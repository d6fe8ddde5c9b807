package main

import (
	"fmt"
	"net/http"
	"strings"

	"foodspot/internal/mailer"
)

type contactPayload struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required,max=150"`
	Message string `json:"message" validate:"required,max=5000"`
}

// contactAdminHandler godoc
//
//	@Summary		Contact the team
//	@Description	Emails the admin inbox. Replies go to the given email.
//	@Tags			contact
//	@Accept			json
//	@Param			payload	body	contactPayload	true	"Message"
//	@Success		202
//	@Failure		400	{object}	error
//	@Failure		503	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/contact [post]
func (app *application) contactAdminHandler(w http.ResponseWriter, r *http.Request) {
	identity := getIdentityFromContext(r)

	var payload contactPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	payload.Subject = strings.TrimSpace(payload.Subject)
	payload.Message = strings.TrimSpace(payload.Message)
	if err := validateStruct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if app.mailer == nil || app.config.mail.adminEmail == "" {
		app.logger.Errorw("contact form used without mail configuration", "user_id", identity.UserID)
		writeJSONError(w, http.StatusServiceUnavailable, mailer.ErrNotConfigured.Error())
		return
	}

	data := struct {
		contactPayload
		UserID string
	}{payload, identity.UserID.String()}

	if err := app.mailer.Send(mailer.ContactAdminTemplate, app.config.mail.adminEmail, payload.Email, data); err != nil {
		app.internalServerError(w, r, fmt.Errorf("send contact email: %w", err))
		return
	}

	app.logger.Infow("contact message sent", "user_id", identity.UserID, "subject", payload.Subject)
	w.WriteHeader(http.StatusAccepted)
}
