package main

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"foodspot/internal/leaderboard"

	"github.com/google/uuid"
)

const defaultLeaderboardLimit = 50

// contributors joins spot and review counts with public profiles.
func (app *application) contributors(ctx context.Context) ([]leaderboard.Contributor, error) {
	spotCounts, err := app.store.Spots.CountByCreator(ctx)
	if err != nil {
		return nil, fmt.Errorf("count spots: %w", err)
	}
	reviewCounts, err := app.store.Reviews.CountByAuthor(ctx)
	if err != nil {
		return nil, fmt.Errorf("count reviews: %w", err)
	}

	byUser := map[uuid.UUID]*leaderboard.Contributor{}
	var ids []uuid.UUID
	get := func(id uuid.UUID) *leaderboard.Contributor {
		c, ok := byUser[id]
		if !ok {
			c = &leaderboard.Contributor{UserID: id}
			byUser[id] = c
			ids = append(ids, id)
		}
		return c
	}
	for _, sc := range spotCounts {
		get(sc.UserID).Spots = sc.Count
	}
	for _, rc := range reviewCounts {
		get(rc.UserID).Reviews = rc.Count
	}

	profiles, err := app.store.Preferences.Profiles(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}

	out := make([]leaderboard.Contributor, 0, len(ids))
	for _, id := range ids {
		c := byUser[id]
		if p, ok := profiles[id]; ok {
			c.Username = p.Username
			c.DisplayName = p.DisplayName
			c.AvatarURL = p.AvatarURL
		}
		out = append(out, *c)
	}
	return out, nil
}

// leaderboardHandler godoc
//
//	@Summary		Contributor leaderboard
//	@Description	100 points per spot submitted and 10 per review. Staff accounts are hidden.
//	@Tags			leaderboard
//	@Produce		json
//	@Param			limit	query		int	false	"Number of entries"
//	@Success		200		{array}		leaderboard.Entry
//	@Router			/leaderboard [get]
func (app *application) leaderboardHandler(w http.ResponseWriter, r *http.Request) {
	limit := app.config.leaderboard.limit
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n < limit {
			limit = n
		}
	}

	contributors, err := app.contributors(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, app.ranker.Rank(contributors, limit))
}
