package main

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"foodspot/internal/domain/notifications"
	"foodspot/internal/events"
	"foodspot/internal/params"

	"github.com/google/uuid"
)

// listNotificationsHandler godoc
//
//	@Summary		Notification inbox
//	@Description	Active broadcast and personal notifications, newest first, with read state
//	@Tags			notifications
//	@Produce		json
//	@Param			page	query		int	false	"Page"
//	@Param			limit	query		int	false	"Page size"
//	@Success		200		{array}		notifications.Inbox
//	@Security		ApiKeyAuth
//	@Router			/me/notifications [get]
func (app *application) listNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	identity := getIdentityFromContext(r)
	p := params.ParsePagination(r.URL.Query())

	inbox, err := app.store.Notifications.ListForUser(r.Context(), identity.UserID, p.Limit+1, p.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	writePage(w, p, inbox)
}

// unreadCountHandler godoc
//
//	@Summary		Unread notification count
//	@Tags			notifications
//	@Produce		json
//	@Success		200	{object}	map[string]int
//	@Security		ApiKeyAuth
//	@Router			/me/notifications/unread-count [get]
func (app *application) unreadCountHandler(w http.ResponseWriter, r *http.Request) {
	identity := getIdentityFromContext(r)

	count, err := app.store.Notifications.UnreadCount(r.Context(), identity.UserID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]int{"unread": count})
}

// markNotificationReadHandler godoc
//
//	@Summary		Mark a notification read
//	@Tags			notifications
//	@Param			notificationID	path	int	true	"Notification ID"
//	@Success		204
//	@Failure		404	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/me/notifications/{notificationID}/read [post]
func (app *application) markNotificationReadHandler(w http.ResponseWriter, r *http.Request) {
	identity := getIdentityFromContext(r)

	notificationID, err := idParam(r, "notificationID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Notifications.MarkRead(r.Context(), notificationID, identity.UserID); err != nil {
		if errors.Is(err, notifications.ErrNotificationNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// markAllNotificationsReadHandler godoc
//
//	@Summary		Mark all notifications read
//	@Tags			notifications
//	@Produce		json
//	@Success		200	{object}	map[string]int64
//	@Security		ApiKeyAuth
//	@Router			/me/notifications/read-all [post]
func (app *application) markAllNotificationsReadHandler(w http.ResponseWriter, r *http.Request) {
	identity := getIdentityFromContext(r)

	n, err := app.store.Notifications.MarkAllRead(r.Context(), identity.UserID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]int64{"marked": n})
}

type createNotificationPayload struct {
	Title   string     `json:"title" validate:"required,max=120"`
	Message string     `json:"message" validate:"required,max=2000"`
	UserID  *uuid.UUID `json:"user_id"`
}

// createNotificationHandler godoc
//
//	@Summary		Publish a notification
//	@Description	Without user_id the notification is a broadcast. Registered devices get an Expo push.
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		createNotificationPayload	true	"Notification"
//	@Success		201		{object}	notifications.Notification
//	@Failure		400		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/admin/notifications [post]
func (app *application) createNotificationHandler(w http.ResponseWriter, r *http.Request) {
	var payload createNotificationPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	payload.Title = strings.TrimSpace(payload.Title)
	payload.Message = strings.TrimSpace(payload.Message)
	if err := validateStruct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	n := &notifications.Notification{
		Title:   payload.Title,
		Message: payload.Message,
		UserID:  payload.UserID,
	}
	if err := app.store.Notifications.Create(r.Context(), n); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.bus.NotificationPublished.Publish(events.NotificationPublished{
		NotificationID: n.ID,
		UserID:         n.UserID,
		Title:          n.Title,
		Message:        n.Message,
		At:             time.Now(),
	})

	app.jsonResponse(w, http.StatusCreated, n)
}

// adminListNotificationsHandler godoc
//
//	@Summary		All notifications
//	@Tags			admin
//	@Produce		json
//	@Param			page	query		int	false	"Page"
//	@Param			limit	query		int	false	"Page size"
//	@Success		200		{array}		notifications.Notification
//	@Security		ApiKeyAuth
//	@Router			/admin/notifications [get]
func (app *application) adminListNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	p := params.ParsePagination(r.URL.Query())

	list, err := app.store.Notifications.ListAll(r.Context(), p.Limit+1, p.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	writePage(w, p, list)
}

// deactivateNotificationHandler godoc
//
//	@Summary		Deactivate a notification
//	@Tags			admin
//	@Param			notificationID	path	int	true	"Notification ID"
//	@Success		204
//	@Failure		404	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/admin/notifications/{notificationID} [delete]
func (app *application) deactivateNotificationHandler(w http.ResponseWriter, r *http.Request) {
	notificationID, err := idParam(r, "notificationID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Notifications.Deactivate(r.Context(), notificationID); err != nil {
		if errors.Is(err, notifications.ErrNotificationNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
