package main

import (
	"context"
	"net/http"

	"foodspot/internal/domain/favorites"
	"foodspot/internal/domain/spots"
	"foodspot/internal/toggle"
)

func (app *application) listSpots(w http.ResponseWriter, r *http.Request, list favorites.List) {
	identity := getIdentityFromContext(r)

	ids, err := app.store.Favorites.SpotIDs(r.Context(), list, identity.UserID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	result := []spots.Spot{}
	if len(ids) > 0 {
		result, err = app.store.Spots.ListByIDs(r.Context(), ids)
		if err != nil {
			app.internalServerError(w, r, err)
			return
		}
	}

	app.jsonResponse(w, http.StatusOK, app.withShareCodes(result))
}

func (app *application) setSpotInList(w http.ResponseWriter, r *http.Request, list favorites.List, on bool) {
	identity := getIdentityFromContext(r)

	spotID, err := idParam(r, "spotID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	kind := toggle.Favorite
	if list == favorites.Visited {
		kind = toggle.Visited
	}

	key := toggle.Key{UserID: identity.UserID, Kind: kind, EntityID: spotID}
	app.setRelation(w, r, key, on, func(ctx context.Context, desired bool) error {
		return app.store.Favorites.Set(ctx, list, identity.UserID, spotID, desired)
	})
}

// listFavoritesHandler godoc
//
//	@Summary		Favorite spots
//	@Tags			favorites
//	@Produce		json
//	@Success		200	{array}	spots.Spot
//	@Security		ApiKeyAuth
//	@Router			/me/favorites [get]
func (app *application) listFavoritesHandler(w http.ResponseWriter, r *http.Request) {
	app.listSpots(w, r, favorites.Favorites)
}

// addFavoriteHandler godoc
//
//	@Summary		Favorite a spot
//	@Tags			favorites
//	@Produce		json
//	@Param			spotID	path		int	true	"Spot ID"
//	@Success		200		{object}	toggle.Outcome
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/me/favorites/{spotID} [put]
func (app *application) addFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	app.setSpotInList(w, r, favorites.Favorites, true)
}

// removeFavoriteHandler godoc
//
//	@Summary		Unfavorite a spot
//	@Tags			favorites
//	@Produce		json
//	@Param			spotID	path		int	true	"Spot ID"
//	@Success		200		{object}	toggle.Outcome
//	@Security		ApiKeyAuth
//	@Router			/me/favorites/{spotID} [delete]
func (app *application) removeFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	app.setSpotInList(w, r, favorites.Favorites, false)
}

// listVisitedHandler godoc
//
//	@Summary		Visited spots
//	@Tags			favorites
//	@Produce		json
//	@Success		200	{array}	spots.Spot
//	@Security		ApiKeyAuth
//	@Router			/me/visited [get]
func (app *application) listVisitedHandler(w http.ResponseWriter, r *http.Request) {
	app.listSpots(w, r, favorites.Visited)
}

// addVisitedHandler godoc
//
//	@Summary		Mark a spot visited
//	@Tags			favorites
//	@Produce		json
//	@Param			spotID	path		int	true	"Spot ID"
//	@Success		200		{object}	toggle.Outcome
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/me/visited/{spotID} [put]
func (app *application) addVisitedHandler(w http.ResponseWriter, r *http.Request) {
	app.setSpotInList(w, r, favorites.Visited, true)
}

// removeVisitedHandler godoc
//
//	@Summary		Unmark a visited spot
//	@Tags			favorites
//	@Produce		json
//	@Param			spotID	path		int	true	"Spot ID"
//	@Success		200		{object}	toggle.Outcome
//	@Security		ApiKeyAuth
//	@Router			/me/visited/{spotID} [delete]
func (app *application) removeVisitedHandler(w http.ResponseWriter, r *http.Request) {
	app.setSpotInList(w, r, favorites.Visited, false)
}
