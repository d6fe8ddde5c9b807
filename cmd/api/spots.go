package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"foodspot/internal/domain/reviews"
	"foodspot/internal/domain/spots"
	"foodspot/internal/events"
	"foodspot/internal/geo"
	"foodspot/internal/params"
	"foodspot/internal/sharecode"

	"github.com/go-chi/chi/v5"
)

// withShareCode fills the share code of s. Encoding only fails for
// negative ids, which the database never hands out.
func (app *application) withShareCode(s *spots.Spot) {
	if app.shareCodes == nil {
		return
	}
	if code, err := app.shareCodes.Encode(s.ID); err == nil {
		s.ShareCode = code
	}
}

func (app *application) withShareCodes(list []spots.Spot) []spots.Spot {
	for i := range list {
		app.withShareCode(&list[i])
	}
	return list
}

// parseSpotForm reads a spot from either a JSON body or a multipart form
// with the JSON in the "spot" field and up to five files in "images".
func parseSpotForm(w http.ResponseWriter, r *http.Request, fields *spots.Fields) ([]*multipart.FileHeader, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := readJSON(w, r, fields); err != nil {
			return nil, err
		}
		return nil, nil
	}

	if err := parseMultipart(w, r); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(r.FormValue("spot")), fields); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	return r.MultipartForm.File["images"], nil
}

// createSpotHandler godoc
//
//	@Summary		Submit a spot
//	@Description	Creates an unverified spot. Send JSON, or multipart with the JSON in "spot" and up to 5 files in "images".
//	@Tags			spots
//	@Accept			json,mpfd
//	@Produce		json
//	@Param			payload	body		spots.Fields	true	"Spot"
//	@Success		201		{object}	spots.Spot
//	@Failure		400		{object}	error
//	@Failure		401		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/spots [post]
func (app *application) createSpotHandler(w http.ResponseWriter, r *http.Request) {
	identity := getIdentityFromContext(r)

	var fields spots.Fields
	files, err := parseSpotForm(w, r, &fields)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := validateStruct(fields); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if len(fields.ImageURLs)+len(files) > spots.MaxImages {
		app.badRequestResponse(w, r, spots.ErrTooManyImages)
		return
	}

	if len(files) > 0 {
		urls, err := app.uploadImages(r.Context(), files, foodImagesFolder, "spot_"+identity.UserID.String())
		if err != nil {
			app.internalServerError(w, r, err)
			return
		}
		fields.ImageURLs = append(fields.ImageURLs, urls...)
	}

	spot := &spots.Spot{CreatedBy: identity.UserID}
	fields.Apply(spot)

	if err := app.store.Spots.Create(r.Context(), spot); err != nil {
		app.cleanupUploads(fields.ImageURLs[len(fields.ImageURLs)-len(files):])
		if errors.Is(err, spots.ErrTooManyImages) {
			app.badRequestResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if !spot.HasCoordinates() {
		app.geocodeSpotAsync(*spot)
	}
	app.bus.SpotChanged.Publish(events.SpotChanged{SpotID: spot.ID, Change: events.SpotCreated, At: time.Now()})

	app.withShareCode(spot)
	app.jsonResponse(w, http.StatusCreated, spot)
}

type spotDetail struct {
	spots.Spot
	ReviewStats reviews.Stats `json:"review_stats"`
}

// getVerifiedSpot loads a spot for public routes. Unverified spots are
// reported as missing.
func (app *application) getVerifiedSpot(w http.ResponseWriter, r *http.Request, spotID int64) (*spots.Spot, bool) {
	spot, err := app.store.Spots.GetByID(r.Context(), spotID)
	if err != nil {
		if errors.Is(err, spots.ErrSpotNotFound) {
			app.notFoundResponse(w, r, err)
			return nil, false
		}
		app.internalServerError(w, r, err)
		return nil, false
	}
	if !spot.Verified {
		app.notFoundResponse(w, r, spots.ErrSpotNotFound)
		return nil, false
	}
	return spot, true
}

func (app *application) writeSpotDetail(w http.ResponseWriter, r *http.Request, spot *spots.Spot) {
	stats, err := app.store.Reviews.Stats(r.Context(), spot.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.withShareCode(spot)
	app.jsonResponse(w, http.StatusOK, spotDetail{Spot: *spot, ReviewStats: stats})
}

// getSpotHandler godoc
//
//	@Summary		Get a spot
//	@Tags			spots
//	@Produce		json
//	@Param			spotID	path		int	true	"Spot ID"
//	@Success		200		{object}	spotDetail
//	@Failure		404		{object}	error
//	@Router			/spots/{spotID} [get]
func (app *application) getSpotHandler(w http.ResponseWriter, r *http.Request) {
	spotID, err := idParam(r, "spotID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	spot, ok := app.getVerifiedSpot(w, r, spotID)
	if !ok {
		return
	}
	app.writeSpotDetail(w, r, spot)
}

// shareLinkHandler godoc
//
//	@Summary		Resolve a share link
//	@Tags			spots
//	@Produce		json
//	@Param			code	path		string	true	"Share code"
//	@Success		200		{object}	spotDetail
//	@Failure		404		{object}	error
//	@Router			/s/{code} [get]
func (app *application) shareLinkHandler(w http.ResponseWriter, r *http.Request) {
	spotID, err := app.shareCodes.Decode(chi.URLParam(r, "code"))
	if err != nil {
		app.notFoundResponse(w, r, sharecode.ErrInvalidCode)
		return
	}

	spot, ok := app.getVerifiedSpot(w, r, spotID)
	if !ok {
		return
	}
	app.writeSpotDetail(w, r, spot)
}

type directions struct {
	SpotID     int64     `json:"spot_id"`
	From       geo.Point `json:"from"`
	To         geo.Point `json:"to"`
	DistanceKm float64   `json:"distance_km"`
	MapsURL    string    `json:"maps_url"`
}

var errNoCoordinates = errors.New("spot has no coordinates yet")

// directionsHandler godoc
//
//	@Summary		Directions to a spot
//	@Description	Straight-line distance from lat/lng to the spot and a maps link
//	@Tags			spots
//	@Produce		json
//	@Param			spotID	path		int		true	"Spot ID"
//	@Param			lat		query		number	true	"Latitude"
//	@Param			lng		query		number	true	"Longitude"
//	@Success		200		{object}	directions
//	@Failure		400		{object}	error
//	@Failure		404		{object}	error
//	@Failure		422		{object}	error	"Spot not geocoded"
//	@Router			/spots/{spotID}/directions [get]
func (app *application) directionsHandler(w http.ResponseWriter, r *http.Request) {
	spotID, err := idParam(r, "spotID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	from, err := params.ParseCoordinates(r.URL.Query())
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if from == nil {
		app.badRequestResponse(w, r, params.ErrInvalidCoordinates)
		return
	}

	spot, ok := app.getVerifiedSpot(w, r, spotID)
	if !ok {
		return
	}
	if !spot.HasCoordinates() {
		app.unprocessableEntityResponse(w, r, errNoCoordinates)
		return
	}

	to := geo.PointOf(spot)
	app.jsonResponse(w, http.StatusOK, directions{
		SpotID:     spot.ID,
		From:       *from,
		To:         to,
		DistanceKm: math.Round(geo.DistanceTo(spot, *from)*100) / 100,
		MapsURL:    mapsURL(*from, to),
	})
}

func mapsURL(from, to geo.Point) string {
	q := url.Values{}
	q.Set("api", "1")
	q.Set("origin", fmt.Sprintf("%f,%f", from.Latitude, from.Longitude))
	q.Set("destination", fmt.Sprintf("%f,%f", to.Latitude, to.Longitude))
	return "https://www.google.com/maps/dir/?" + q.Encode()
}
