package main

import (
	"errors"
	"net/http"

	"foodspot/internal/domain/reviews"
	"foodspot/internal/events"

	"golang.org/x/sync/errgroup"
)

type createReviewPayload struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=1000"`
}

// createSpotReviewHandler godoc
//
//	@Summary		Review a spot
//	@Tags			reviews
//	@Accept			json
//	@Produce		json
//	@Param			spotID	path		int					true	"Spot ID"
//	@Param			payload	body		createReviewPayload	true	"Review"
//	@Success		201		{object}	reviews.Review
//	@Failure		400		{object}	error
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/spots/{spotID}/reviews [post]
func (app *application) createSpotReviewHandler(w http.ResponseWriter, r *http.Request) {
	identity := getIdentityFromContext(r)

	spotID, err := idParam(r, "spotID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload createReviewPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := validateStruct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if _, ok := app.getVerifiedSpot(w, r, spotID); !ok {
		return
	}

	review := &reviews.Review{
		SpotID:  spotID,
		UserID:  identity.UserID,
		Rating:  payload.Rating,
		Comment: payload.Comment,
	}
	if err := app.store.Reviews.Create(r.Context(), review); err != nil {
		app.internalServerError(w, r, err)
		return
	}
	app.bus.SpotChanged.Publish(events.SpotChanged{SpotID: spotID, Change: events.SpotReviewed, At: review.CreatedAt})

	app.jsonResponse(w, http.StatusCreated, review)
}

type spotReviewsResponse struct {
	Stats   reviews.Stats    `json:"stats"`
	Reviews []reviews.Review `json:"reviews"`
}

// getSpotReviewsHandler godoc
//
//	@Summary		List reviews of a spot
//	@Description	Newest first, with the rating summary shown above the list.
//	@Tags			reviews
//	@Produce		json
//	@Param			spotID	path		int	true	"Spot ID"
//	@Success		200		{object}	spotReviewsResponse
//	@Router			/spots/{spotID}/reviews [get]
func (app *application) getSpotReviewsHandler(w http.ResponseWriter, r *http.Request) {
	spotID, err := idParam(r, "spotID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var resp spotReviewsResponse
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		resp.Reviews, err = app.store.Reviews.ListBySpot(ctx, spotID)
		return err
	})
	g.Go(func() (err error) {
		resp.Stats, err = app.store.Reviews.Stats(ctx, spotID)
		return err
	})
	if err := g.Wait(); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, resp)
}

// deleteReviewHandler godoc
//
//	@Summary		Delete a review
//	@Tags			admin
//	@Param			reviewID	path	int	true	"Review ID"
//	@Success		200
//	@Failure		404	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/admin/reviews/{reviewID} [delete]
func (app *application) deleteReviewHandler(w http.ResponseWriter, r *http.Request) {
	reviewID, err := idParam(r, "reviewID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Reviews.Delete(r.Context(), reviewID); err != nil {
		if errors.Is(err, reviews.ErrReviewNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]string{"message": "review deleted"})
}
