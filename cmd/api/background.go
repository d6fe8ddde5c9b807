package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"foodspot/internal/domain/spots"
	"foodspot/internal/events"
	"foodspot/internal/geocode"
)

const (
	geocodeBackfillJob   = "geocode_backfill"
	geocodeBackfillBatch = 50
	geocodeSpotTimeout   = 15 * time.Second
)

// geocodeSpot resolves the spot's location label and stores the result.
// A label that cannot be resolved counts against the spot's attempts.
func (app *application) geocodeSpot(ctx context.Context, spot spots.Spot) (bool, error) {
	point, err := app.geocoder.Resolve(ctx, spot.Location)
	if err != nil {
		if !errors.Is(err, geocode.ErrNotFound) {
			return false, err
		}
		if err := app.store.Spots.RecordGeocodeFailure(ctx, spot.ID); err != nil {
			return false, err
		}
		return false, nil
	}

	if err := app.store.Spots.SetCoordinates(ctx, spot.ID, point.Latitude, point.Longitude); err != nil {
		return false, err
	}
	if spot.Verified {
		app.bus.SpotChanged.Publish(events.SpotChanged{SpotID: spot.ID, Change: events.SpotUpdated, At: time.Now()})
	}
	return true, nil
}

func (app *application) geocodeSpotAsync(spot spots.Spot) {
	if spot.Location == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), geocodeSpotTimeout)
		defer cancel()

		if _, err := app.geocodeSpot(ctx, spot); err != nil {
			app.logger.Warnw("geocode new spot", "spot_id", spot.ID, "error", err)
		}
	}()
}

type backfillReport struct {
	Checked  int `json:"checked"`
	Resolved int `json:"resolved"`
}

// backfillCoordinates geocodes one batch of spots that have a location
// label but no coordinates.
func (app *application) backfillCoordinates(ctx context.Context) (backfillReport, error) {
	start := time.Now()
	report, err := app.backfillBatch(ctx)
	app.metrics.ObserveJob(geocodeBackfillJob, time.Since(start), err)
	return report, err
}

func (app *application) backfillBatch(ctx context.Context) (backfillReport, error) {
	var report backfillReport

	pending, err := app.store.Spots.ListMissingCoordinates(ctx, geocodeBackfillBatch)
	if err != nil {
		return report, fmt.Errorf("list spots without coordinates: %w", err)
	}

	for _, spot := range pending {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Checked++
		ok, err := app.geocodeSpot(ctx, spot)
		if err != nil {
			return report, fmt.Errorf("geocode spot %d: %w", spot.ID, err)
		}
		if ok {
			report.Resolved++
		}
	}
	return report, nil
}

// runGeocodeBackfill runs the backfill now and then every interval until
// ctx is done.
func (app *application) runGeocodeBackfill(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		report, err := app.backfillCoordinates(ctx)
		if err != nil {
			app.logger.Errorw("geocode backfill failed", "error", err)
		} else if report.Checked > 0 {
			app.logger.Infow("geocode backfill", "checked", report.Checked, "resolved", report.Resolved)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// geocodeBackfillHandler godoc
//
//	@Summary		Run the geocode backfill once
//	@Tags			admin
//	@Produce		json
//	@Success		200	{object}	backfillReport
//	@Security		ApiKeyAuth
//	@Router			/admin/geocode/backfill [post]
func (app *application) geocodeBackfillHandler(w http.ResponseWriter, r *http.Request) {
	report, err := app.backfillCoordinates(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	app.jsonResponse(w, http.StatusOK, report)
}
