package main

import (
	"errors"
	"net/http"
	"strings"

	"foodspot/internal/discovery"
	"foodspot/internal/domain/spots"
	"foodspot/internal/geo"
	"foodspot/internal/geocode"
	"foodspot/internal/params"
	"foodspot/internal/search"
)

var errPlaceNotFound = errors.New("location not found")

// discoverHandler godoc
//
//	@Summary		Discover spots
//	@Description	Returns the trending, recent, popular and all shelves. place is geocoded and all is limited to 30 km around it; lat/lng skip geocoding; q filters all by text and tags.
//	@Tags			spots
//	@Produce		json
//	@Param			place	query		string	false	"Place name, e.g. Fort Kochi"
//	@Param			lat		query		number	false	"Latitude"
//	@Param			lng		query		number	false	"Longitude"
//	@Param			q		query		string	false	"Text or tag query"
//	@Success		200		{object}	discovery.Result
//	@Failure		400		{object}	error
//	@Failure		404		{object}	error	"Place not found"
//	@Router			/discover [get]
func (app *application) discoverHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	center, err := params.ParseCoordinates(q)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	result, err := app.discovery.Discover(r.Context(), discovery.Request{
		Place:  strings.TrimSpace(q.Get("place")),
		Center: center,
		Text:   q.Get("q"),
	})
	if err != nil {
		if errors.Is(err, geocode.ErrNotFound) {
			app.notFoundResponse(w, r, errPlaceNotFound)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, result)
}

type searchResult struct {
	Query string       `json:"query"`
	Spots []spots.Spot `json:"spots"`
}

// searchSpotsHandler godoc
//
//	@Summary		Search spots
//	@Description	Matches verified spots by name, location or tags. Queries shorter than two characters match nothing.
//	@Tags			spots
//	@Produce		json
//	@Param			q	query		string	true	"Search text"
//	@Success		200	{object}	searchResult
//	@Router			/spots/search [get]
func (app *application) searchSpotsHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	result := searchResult{Query: query, Spots: []spots.Spot{}}
	if len([]rune(strings.TrimSpace(query))) < search.MinQueryLength {
		app.jsonResponse(w, http.StatusOK, result)
		return
	}

	verified, err := app.store.Spots.ListVerified(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	result.Spots = search.Filter(verified, query)
	app.jsonResponse(w, http.StatusOK, result)
}

type geocodeResult struct {
	Place string    `json:"place"`
	Point geo.Point `json:"point"`
}

// geocodeHandler godoc
//
//	@Summary		Resolve a place name
//	@Description	Looks up a place name within the service region
//	@Tags			spots
//	@Produce		json
//	@Param			place	query		string	true	"Place name"
//	@Success		200		{object}	geocodeResult
//	@Failure		400		{object}	error
//	@Failure		404		{object}	error
//	@Router			/geocode [get]
func (app *application) geocodeHandler(w http.ResponseWriter, r *http.Request) {
	place := strings.TrimSpace(r.URL.Query().Get("place"))
	if place == "" {
		app.badRequestResponse(w, r, errors.New("place is required"))
		return
	}

	point, err := app.geocoder.Resolve(r.Context(), place)
	if err != nil {
		if errors.Is(err, geocode.ErrNotFound) {
			app.notFoundResponse(w, r, errPlaceNotFound)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, geocodeResult{Place: place, Point: point})
}
