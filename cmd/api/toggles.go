package main

import (
	"errors"
	"net/http"

	"foodspot/internal/domain/community"
	"foodspot/internal/domain/favorites"
	"foodspot/internal/toggle"
)

// setRelation runs a favorite/visited/like/saved change through the toggle
// machine and writes the outcome. A rolled back change is reported as an
// error so the client restores its previous state.
func (app *application) setRelation(w http.ResponseWriter, r *http.Request, key toggle.Key, on bool, commit toggle.CommitFunc) {
	out, err := app.toggles.Set(r.Context(), key, on, commit)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if out.State == toggle.RolledBack {
		if errors.Is(out.Err, favorites.ErrSpotNotFound) || errors.Is(out.Err, community.ErrPostNotFound) {
			app.notFoundResponse(w, r, out.Err)
			return
		}
		app.internalServerError(w, r, out.Err)
		return
	}

	app.jsonResponse(w, http.StatusOK, out)
}
