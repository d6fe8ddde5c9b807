package main

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"foodspot/internal/realtime"

	"github.com/gorilla/websocket"
)

func (app *application) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      app.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin accepts the configured frontend. Native clients send
// no Origin header and are allowed; they still need a valid token.
func (app *application) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || app.config.frontendURL == "" {
		return true
	}
	return strings.EqualFold(strings.TrimSuffix(origin, "/"), strings.TrimSuffix(app.config.frontendURL, "/"))
}

// wsHandler godoc
//
//	@Summary		Realtime updates
//	@Description	Websocket of {type, data} change notices. Clients refetch the affected list. Browsers pass the token as ?token=.
//	@Tags			realtime
//	@Success		101
//	@Failure		401	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/ws [get]
func (app *application) wsHandler(w http.ResponseWriter, r *http.Request) {
	if app.hub == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "realtime updates are unavailable")
		return
	}
	if !websocket.IsWebSocketUpgrade(r) {
		app.badRequestResponse(w, r, errors.New("expected a websocket upgrade"))
		return
	}

	identity := getIdentityFromContext(r)

	upgrader := app.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		app.logger.Warnw("websocket upgrade failed", "error", err)
		return
	}

	realtime.NewClient(app.hub, conn, identity.UserID).Start()
}
