package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"foodspot/internal/domain/pushtokens"
)

type registerPushTokenPayload struct {
	Token      string          `json:"token" validate:"required,expotoken"`
	DeviceInfo json.RawMessage `json:"device_info" swaggertype:"object"`
}

type pushTokenPayload struct {
	Token string `json:"token" validate:"required,max=255"`
}

type removeTokensPayload struct {
	Tokens []string `json:"tokens" validate:"required,min=1,max=500,dive,required"`
}

// prunePayload takes a Go duration, e.g. {"older_than": "1680h"} for 70 days.
type prunePayload struct {
	OlderThan string `json:"older_than" validate:"required"`
}

var errPruneWindow = errors.New("older_than must be a duration of at least 24h")

func (p prunePayload) window() (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(p.OlderThan))
	if err != nil || d < pushtokens.MinPruneAge {
		return 0, errPruneWindow
	}
	return d, nil
}

// savePushTokenHandler godoc
//
//	@Summary		Register a device for push notifications
//	@Description	Stores or refreshes the caller's Expo push token with optional device info
//	@Tags			notifications
//	@Accept			json
//	@Param			payload	body	registerPushTokenPayload	true	"Expo push token"
//	@Success		204
//	@Failure		400	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/me/push-tokens [post]
func (app *application) savePushTokenHandler(w http.ResponseWriter, r *http.Request) {
	identity := getIdentityFromContext(r)

	var payload registerPushTokenPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	payload.Token = strings.TrimSpace(payload.Token)
	if err := validateStruct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.PushTokens.Register(r.Context(), identity.UserID, payload.Token, payload.DeviceInfo); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// removePushTokenHandler godoc
//
//	@Summary		Unregister a device
//	@Tags			notifications
//	@Accept			json
//	@Param			payload	body	pushTokenPayload	true	"Token to remove"
//	@Success		204
//	@Failure		404	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/me/push-tokens [delete]
func (app *application) removePushTokenHandler(w http.ResponseWriter, r *http.Request) {
	identity := getIdentityFromContext(r)

	var payload pushTokenPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := validateStruct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.PushTokens.Unregister(r.Context(), identity.UserID, payload.Token); err != nil {
		if errors.Is(err, pushtokens.ErrTokenNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// bulkRemoveTokensHandler godoc
//
//	@Summary		Remove device tokens for every user
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		removeTokensPayload	true	"Tokens to remove"
//	@Success		200		{object}	map[string]int64
//	@Failure		400		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/admin/push-tokens/bulk-remove [post]
func (app *application) bulkRemoveTokensHandler(w http.ResponseWriter, r *http.Request) {
	var payload removeTokensPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := validateStruct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	n, err := app.store.PushTokens.RemoveTokens(r.Context(), payload.Tokens)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.logger.Infow("push tokens removed", "requested", len(payload.Tokens), "removed", n)
	app.jsonResponse(w, http.StatusOK, map[string]int64{"removed": n})
}

// pruneStaleTokensHandler godoc
//
//	@Summary		Prune stale device tokens
//	@Description	Removes tokens not refreshed within older_than (at least 24h)
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		prunePayload	true	"Age threshold"
//	@Success		200		{object}	map[string]int64
//	@Failure		400		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/admin/push-tokens/prune [post]
func (app *application) pruneStaleTokensHandler(w http.ResponseWriter, r *http.Request) {
	var payload prunePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	window, err := payload.window()
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	n, err := app.store.PushTokens.PruneStale(r.Context(), window)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.logger.Infow("stale push tokens pruned", "older_than", window.String(), "removed", n)
	app.jsonResponse(w, http.StatusOK, map[string]int64{"removed": n})
}
