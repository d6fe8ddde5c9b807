package main

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"foodspot/internal/domain/accesscontrol"
	"foodspot/internal/domain/preferences"
	"foodspot/internal/events"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type preferencesResponse struct {
	*preferences.Preference
	NeedsOnboarding bool                     `json:"needs_onboarding"`
	IsModerator     bool                     `json:"is_moderator"`
	Roles           []accesscontrol.RoleName `json:"roles"`
}

// getPreferencesHandler godoc
//
//	@Summary		Current user's preferences
//	@Description	Creates the row on first access. needs_onboarding is true until a username is chosen.
//	@Tags			preferences
//	@Produce		json
//	@Success		200	{object}	preferencesResponse
//	@Security		ApiKeyAuth
//	@Router			/me [get]
func (app *application) getPreferencesHandler(w http.ResponseWriter, r *http.Request) {
	identity := getIdentityFromContext(r)

	pref, err := app.store.Preferences.GetOrCreate(r.Context(), identity.UserID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	roles, err := app.store.AccessControl.RolesOf(r.Context(), identity.UserID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, preferencesResponse{
		Preference:      pref,
		NeedsOnboarding: pref.NeedsOnboarding(),
		IsModerator:     accesscontrol.CanModerate(roles),
		Roles:           roles,
	})
}

type updatePreferencesPayload struct {
	DisplayName  *string `json:"display_name" validate:"omitempty,max=80"`
	PushEnabled  *bool   `json:"push_enabled"`
	EmailEnabled *bool   `json:"email_enabled"`
}

func (p updatePreferencesPayload) updates() map[string]any {
	updates := map[string]any{}
	if p.DisplayName != nil {
		updates["display_name"] = strings.TrimSpace(*p.DisplayName)
	}
	if p.PushEnabled != nil {
		updates["push_enabled"] = *p.PushEnabled
	}
	if p.EmailEnabled != nil {
		updates["email_enabled"] = *p.EmailEnabled
	}
	return updates
}

// updatePreferencesHandler godoc
//
//	@Summary		Update preferences
//	@Tags			preferences
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		updatePreferencesPayload	true	"Fields to change"
//	@Success		200		{object}	preferences.Preference
//	@Failure		400		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/me [patch]
func (app *application) updatePreferencesHandler(w http.ResponseWriter, r *http.Request) {
	identity := getIdentityFromContext(r)

	var payload updatePreferencesPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := validateStruct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Preferences.Update(r.Context(), identity.UserID, payload.updates()); err != nil {
		if errors.Is(err, preferences.ErrNoFields) || errors.Is(err, preferences.ErrInvalidField) {
			app.badRequestResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	app.profileChanged(w, r)
}

// profileChanged publishes the update and writes the fresh preferences.
func (app *application) profileChanged(w http.ResponseWriter, r *http.Request) {
	identity := getIdentityFromContext(r)
	app.bus.ProfileUpdated.Publish(events.ProfileUpdated{UserID: identity.UserID, At: time.Now()})

	pref, err := app.store.Preferences.GetOrCreate(r.Context(), identity.UserID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	app.jsonResponse(w, http.StatusOK, pref)
}

type usernamePayload struct {
	Username string `json:"username" validate:"required,username"`
}

// setUsernameHandler godoc
//
//	@Summary		Choose a username
//	@Description	A username can be set once. Uniqueness is case-insensitive.
//	@Tags			preferences
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		usernamePayload	true	"Username"
//	@Success		200		{object}	preferences.Preference
//	@Failure		400		{object}	error
//	@Failure		409		{object}	error	"Taken or already set"
//	@Security		ApiKeyAuth
//	@Router			/me/username [put]
func (app *application) setUsernameHandler(w http.ResponseWriter, r *http.Request) {
	identity := getIdentityFromContext(r)

	var payload usernamePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	payload.Username = strings.TrimSpace(payload.Username)
	if err := validateStruct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Preferences.SetUsername(r.Context(), identity.UserID, payload.Username); err != nil {
		if errors.Is(err, preferences.ErrUsernameTaken) || errors.Is(err, preferences.ErrUsernameAlreadySet) {
			app.conflictResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	app.profileChanged(w, r)
}

// usernameAvailableHandler godoc
//
//	@Summary		Check a username
//	@Description	Advisory only; the final check happens when the username is set
//	@Tags			preferences
//	@Produce		json
//	@Param			username	query		string	true	"Username"
//	@Success		200			{object}	map[string]interface{}
//	@Failure		400			{object}	error
//	@Router			/users/username-available [get]
func (app *application) usernameAvailableHandler(w http.ResponseWriter, r *http.Request) {
	payload := usernamePayload{Username: strings.TrimSpace(r.URL.Query().Get("username"))}
	if err := validateStruct(payload); err != nil {
		app.badRequestResponse(w, r, errors.New("username must be 3-30 letters, digits, '_' or '.'"))
		return
	}

	available, err := app.store.Preferences.UsernameAvailable(r.Context(), payload.Username)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"username":  payload.Username,
		"available": available,
	})
}

// uploadAvatarHandler godoc
//
//	@Summary		Upload an avatar
//	@Description	Multipart form with an "avatar" file. The image is cropped to 300x300.
//	@Tags			preferences
//	@Accept			mpfd
//	@Produce		json
//	@Param			avatar	formData	file	true	"Avatar"
//	@Success		200		{object}	preferences.Preference
//	@Failure		400		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/me/avatar [put]
func (app *application) uploadAvatarHandler(w http.ResponseWriter, r *http.Request) {
	identity := getIdentityFromContext(r)

	if err := parseMultipart(w, r); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	file, _, err := r.FormFile("avatar")
	if err != nil {
		app.badRequestResponse(w, r, errors.New("avatar file is required"))
		return
	}
	defer file.Close()

	url, err := app.uploadToCloudinary(r.Context(), file, uploader.UploadParams{
		Folder:         avatarsFolder,
		PublicID:       "avatar_" + identity.UserID.String() + "_" + time.Now().Format("20060102150405"),
		Transformation: "c_fill,g_face,w_300,h_300",
	})
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	previous, err := app.store.Preferences.SetAvatar(r.Context(), identity.UserID, url)
	if err != nil {
		app.cleanupUploads([]string{url})
		app.internalServerError(w, r, err)
		return
	}
	if previous != nil && *previous != "" {
		if err := app.deletePhotoFromCloudinary(r.Context(), *previous); err != nil {
			app.logger.Warnw("failed to delete old avatar", "user_id", identity.UserID, "error", err)
		}
	}

	app.profileChanged(w, r)
}
