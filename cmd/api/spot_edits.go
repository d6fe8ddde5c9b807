package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"foodspot/internal/domain/spotedits"
	"foodspot/internal/domain/spots"
	"foodspot/internal/events"
	"foodspot/internal/params"
)

// suggestEditHandler godoc
//
//	@Summary		Suggest an edit
//	@Description	Proposes a full replacement of a spot's details. A moderator applies it on approval.
//	@Tags			spots
//	@Accept			json
//	@Produce		json
//	@Param			spotID	path		int				true	"Spot ID"
//	@Param			payload	body		spots.Fields	true	"Suggested details"
//	@Success		201		{object}	spotedits.Edit
//	@Failure		400		{object}	error
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/spots/{spotID}/edits [post]
func (app *application) suggestEditHandler(w http.ResponseWriter, r *http.Request) {
	identity := getIdentityFromContext(r)

	spotID, err := idParam(r, "spotID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload spots.Fields
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := validateStruct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if _, err := app.store.Spots.GetByID(r.Context(), spotID); err != nil {
		if errors.Is(err, spots.ErrSpotNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	edit := &spotedits.Edit{
		SpotID:  spotID,
		UserID:  identity.UserID,
		Payload: payload,
	}
	if err := app.store.SpotEdits.Create(r.Context(), edit); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusCreated, edit)
}

// listEditsHandler godoc
//
//	@Summary		List edit suggestions
//	@Tags			admin
//	@Produce		json
//	@Param			status	query		string	false	"pending (default), approved or rejected"
//	@Param			spot_id	query		int		false	"Only suggestions for this spot"
//	@Param			page	query		int		false	"Page"
//	@Param			limit	query		int		false	"Page size"
//	@Success		200		{array}		spotedits.Edit
//	@Security		ApiKeyAuth
//	@Router			/admin/edits [get]
func (app *application) listEditsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := params.ParsePagination(q)

	status := spotedits.StatusPending
	if s := q.Get("status"); s != "" {
		status = spotedits.Status(s)
		if !status.Valid() {
			app.badRequestResponse(w, r, errors.New("invalid status"))
			return
		}
	}

	filter := spotedits.Filter{Status: &status, Limit: p.Limit + 1, Offset: p.Offset}
	if s := q.Get("spot_id"); s != "" {
		spotID, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			app.badRequestResponse(w, r, errors.New("invalid spot_id"))
			return
		}
		filter.SpotID = &spotID
	}

	edits, err := app.store.SpotEdits.List(r.Context(), filter)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	writePage(w, p, edits)
}

type decideEditPayload struct {
	Note *string `json:"note" validate:"omitempty,max=500"`
}

func (app *application) readDecision(w http.ResponseWriter, r *http.Request) (int64, *string, bool) {
	editID, err := idParam(r, "editID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return 0, nil, false
	}

	var payload decideEditPayload
	if r.ContentLength != 0 {
		if err := readJSON(w, r, &payload); err != nil {
			app.badRequestResponse(w, r, err)
			return 0, nil, false
		}
		if err := validateStruct(payload); err != nil {
			app.badRequestResponse(w, r, err)
			return 0, nil, false
		}
	}
	return editID, payload.Note, true
}

func (app *application) editDecisionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, spotedits.ErrEditNotFound), errors.Is(err, spots.ErrSpotNotFound):
		app.notFoundResponse(w, r, err)
	case errors.Is(err, spotedits.ErrNotPending):
		app.conflictResponse(w, r, err)
	default:
		app.internalServerError(w, r, err)
	}
}

// approveEditHandler godoc
//
//	@Summary		Approve an edit suggestion
//	@Description	Copies the suggested details onto the spot and marks the suggestion approved, in one transaction
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Param			editID	path		int					true	"Edit ID"
//	@Param			payload	body		decideEditPayload	false	"Optional note"
//	@Success		200		{object}	spotedits.Edit
//	@Failure		404		{object}	error
//	@Failure		409		{object}	error	"Already decided"
//	@Security		ApiKeyAuth
//	@Router			/admin/edits/{editID}/approve [post]
func (app *application) approveEditHandler(w http.ResponseWriter, r *http.Request) {
	identity := getIdentityFromContext(r)

	editID, note, ok := app.readDecision(w, r)
	if !ok {
		return
	}

	edit, err := app.store.ApproveEdit(r.Context(), editID, identity.UserID, note)
	if err != nil {
		app.editDecisionError(w, r, err)
		return
	}

	app.bus.SpotChanged.Publish(events.SpotChanged{SpotID: edit.SpotID, Change: events.SpotUpdated, At: time.Now()})
	app.jsonResponse(w, http.StatusOK, edit)
}

// rejectEditHandler godoc
//
//	@Summary		Reject an edit suggestion
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Param			editID	path		int					true	"Edit ID"
//	@Param			payload	body		decideEditPayload	false	"Optional note"
//	@Success		200		{object}	spotedits.Edit
//	@Failure		404		{object}	error
//	@Failure		409		{object}	error	"Already decided"
//	@Security		ApiKeyAuth
//	@Router			/admin/edits/{editID}/reject [post]
func (app *application) rejectEditHandler(w http.ResponseWriter, r *http.Request) {
	identity := getIdentityFromContext(r)

	editID, note, ok := app.readDecision(w, r)
	if !ok {
		return
	}

	edit, err := app.store.SpotEdits.MarkRejected(r.Context(), editID, identity.UserID, note)
	if err != nil {
		app.editDecisionError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, edit)
}
