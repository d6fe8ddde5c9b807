package main

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"foodspot/internal/domain/accesscontrol"
	"foodspot/internal/domain/spots"
	"foodspot/internal/events"
	"foodspot/internal/params"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// adminListSpotsHandler godoc
//
//	@Summary		Spots for moderation
//	@Tags			admin
//	@Produce		json
//	@Param			status	query		string	false	"pending (default) or all"
//	@Param			page	query		int		false	"Page"
//	@Param			limit	query		int		false	"Page size"
//	@Success		200		{array}		spots.Spot
//	@Security		ApiKeyAuth
//	@Router			/admin/spots [get]
func (app *application) adminListSpotsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := params.ParsePagination(q)

	var (
		list []spots.Spot
		err  error
	)
	switch q.Get("status") {
	case "", "pending":
		list, err = app.store.Spots.ListPending(r.Context(), p.Limit+1, p.Offset)
	case "all":
		list, err = app.store.Spots.ListAll(r.Context(), p.Limit+1, p.Offset)
	default:
		app.badRequestResponse(w, r, errors.New("status must be pending or all"))
		return
	}
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	writePage(w, p, app.withShareCodes(list))
}

type verifySpotPayload struct {
	Verified *bool `json:"verified" validate:"required"`
}

// verifySpotHandler godoc
//
//	@Summary		Verify or unverify a spot
//	@Tags			admin
//	@Accept			json
//	@Param			spotID	path	int					true	"Spot ID"
//	@Param			payload	body	verifySpotPayload	true	"Verification flag"
//	@Success		204
//	@Failure		404	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/admin/spots/{spotID}/verify [put]
func (app *application) verifySpotHandler(w http.ResponseWriter, r *http.Request) {
	spotID, err := idParam(r, "spotID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload verifySpotPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := validateStruct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Spots.SetVerified(r.Context(), spotID, *payload.Verified); err != nil {
		if errors.Is(err, spots.ErrSpotNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	change := events.SpotVerified
	if !*payload.Verified {
		change = events.SpotUpdated
	}
	app.bus.SpotChanged.Publish(events.SpotChanged{SpotID: spotID, Change: change, At: time.Now()})

	w.WriteHeader(http.StatusNoContent)
}

// deleteSpotHandler godoc
//
//	@Summary		Delete a spot
//	@Description	Removes the spot and its images
//	@Tags			admin
//	@Param			spotID	path	int	true	"Spot ID"
//	@Success		204
//	@Failure		404	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/admin/spots/{spotID} [delete]
func (app *application) deleteSpotHandler(w http.ResponseWriter, r *http.Request) {
	spotID, err := idParam(r, "spotID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	spot, err := app.store.Spots.GetByID(r.Context(), spotID)
	if err != nil {
		if errors.Is(err, spots.ErrSpotNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Spots.Delete(r.Context(), spotID); err != nil {
		if errors.Is(err, spots.ErrSpotNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	for _, u := range spot.ImageURLs {
		if err := app.deletePhotoFromCloudinary(r.Context(), u); err != nil {
			app.logger.Warnw("failed to delete spot image", "spot_id", spotID, "url", u, "error", err)
		}
	}
	app.bus.SpotChanged.Publish(events.SpotChanged{SpotID: spotID, Change: events.SpotDeleted, At: time.Now()})

	w.WriteHeader(http.StatusNoContent)
}

// uploadSpotImagesHandler godoc
//
//	@Summary		Add images to a spot
//	@Description	Multipart form with files in "images". A spot holds at most 5 images.
//	@Tags			admin
//	@Accept			mpfd
//	@Produce		json
//	@Param			spotID	path		int		true	"Spot ID"
//	@Param			images	formData	file	true	"Images"
//	@Success		201		{object}	map[string][]string
//	@Failure		400		{object}	error
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/admin/spots/{spotID}/images [post]
func (app *application) uploadSpotImagesHandler(w http.ResponseWriter, r *http.Request) {
	spotID, err := idParam(r, "spotID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := parseMultipart(w, r); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		app.badRequestResponse(w, r, errors.New("at least one image is required"))
		return
	}

	spot, err := app.store.Spots.GetByID(r.Context(), spotID)
	if err != nil {
		if errors.Is(err, spots.ErrSpotNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}
	if len(spot.ImageURLs)+len(files) > spots.MaxImages {
		app.badRequestResponse(w, r, spots.ErrTooManyImages)
		return
	}

	urls, err := app.uploadImages(r.Context(), files, foodImagesFolder, "spot_admin")
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	for i, u := range urls {
		if err := app.store.Spots.AddImageURL(r.Context(), spotID, u); err != nil {
			app.cleanupUploads(urls[i:])
			if errors.Is(err, spots.ErrTooManyImages) {
				app.badRequestResponse(w, r, err)
				return
			}
			app.internalServerError(w, r, err)
			return
		}
	}

	app.bus.SpotChanged.Publish(events.SpotChanged{SpotID: spotID, Change: events.SpotUpdated, At: time.Now()})
	app.jsonResponse(w, http.StatusCreated, map[string][]string{"image_urls": urls})
}

// deleteSpotImageHandler godoc
//
//	@Summary		Remove an image from a spot
//	@Tags			admin
//	@Param			spotID	path	int		true	"Spot ID"
//	@Param			url		query	string	true	"Image URL"
//	@Success		204
//	@Failure		404	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/admin/spots/{spotID}/images [delete]
func (app *application) deleteSpotImageHandler(w http.ResponseWriter, r *http.Request) {
	spotID, err := idParam(r, "spotID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	imageURL := strings.TrimSpace(r.URL.Query().Get("url"))
	if imageURL == "" {
		app.badRequestResponse(w, r, errors.New("url is required"))
		return
	}

	if err := app.store.Spots.RemoveImageURL(r.Context(), spotID, imageURL); err != nil {
		if errors.Is(err, spots.ErrSpotNotFound) || errors.Is(err, spots.ErrImageNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if err := app.deletePhotoFromCloudinary(r.Context(), imageURL); err != nil {
		app.logger.Warnw("failed to delete spot image", "spot_id", spotID, "url", imageURL, "error", err)
	}
	app.bus.SpotChanged.Publish(events.SpotChanged{SpotID: spotID, Change: events.SpotUpdated, At: time.Now()})

	w.WriteHeader(http.StatusNoContent)
}

func parseRoleParams(r *http.Request) (uuid.UUID, accesscontrol.RoleName, error) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		return uuid.Nil, "", errors.New("invalid user ID")
	}

	role := accesscontrol.RoleName(chi.URLParam(r, "role"))
	if role != accesscontrol.RoleAdmin && role != accesscontrol.RoleModerator {
		return uuid.Nil, "", errors.New("role must be admin or moderator")
	}
	return userID, role, nil
}

// listRoleAssignmentsHandler godoc
//
//	@Summary		Staff role assignments
//	@Tags			admin
//	@Produce		json
//	@Success		200	{array}	accesscontrol.Assignment
//	@Security		ApiKeyAuth
//	@Router			/admin/roles [get]
func (app *application) listRoleAssignmentsHandler(w http.ResponseWriter, r *http.Request) {
	assignments, err := app.store.AccessControl.ListAssignments(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	app.jsonResponse(w, http.StatusOK, assignments)
}

// assignRoleHandler godoc
//
//	@Summary		Grant a staff role
//	@Tags			admin
//	@Param			userID	path	string	true	"User ID"
//	@Param			role	path	string	true	"admin or moderator"
//	@Success		204
//	@Security		ApiKeyAuth
//	@Router			/admin/roles/{userID}/{role} [put]
func (app *application) assignRoleHandler(w http.ResponseWriter, r *http.Request) {
	userID, role, err := parseRoleParams(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.AccessControl.AssignRole(r.Context(), userID, role); err != nil {
		if errors.Is(err, accesscontrol.ErrUnknownRole) {
			app.badRequestResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	app.logger.Infow("role assigned", "user_id", userID, "role", role, "by", getIdentityFromContext(r).UserID)
	w.WriteHeader(http.StatusNoContent)
}

// removeRoleHandler godoc
//
//	@Summary		Revoke a staff role
//	@Tags			admin
//	@Param			userID	path	string	true	"User ID"
//	@Param			role	path	string	true	"admin or moderator"
//	@Success		204
//	@Failure		404	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/admin/roles/{userID}/{role} [delete]
func (app *application) removeRoleHandler(w http.ResponseWriter, r *http.Request) {
	userID, role, err := parseRoleParams(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.AccessControl.RemoveRole(r.Context(), userID, role); err != nil {
		if errors.Is(err, accesscontrol.ErrRoleNotAssigned) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	app.logger.Infow("role removed", "user_id", userID, "role", role, "by", getIdentityFromContext(r).UserID)
	w.WriteHeader(http.StatusNoContent)
}
