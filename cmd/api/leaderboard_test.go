package main

import (
	"net/http"
	"testing"

	"foodspot/internal/domain/preferences"
	"foodspot/internal/domain/reviews"
	"foodspot/internal/domain/spots"
	"foodspot/internal/leaderboard"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaderboardHandler(t *testing.T) {
	env := newTestApplication(t)

	anu, ravi, staff, ghost := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	env.spots.counts = []spots.CreatorCount{
		{UserID: anu, Count: 2},
		{UserID: ravi, Count: 1},
		{UserID: staff, Count: 9},
	}
	env.reviews.counts = []reviews.AuthorCount{
		{UserID: ravi, Count: 15},
		{UserID: ghost, Count: 1},
	}
	env.prefs.profiles[anu] = preferences.Profile{UserID: anu, Username: "anu"}
	env.prefs.profiles[ravi] = preferences.Profile{UserID: ravi, Username: "ravi"}
	env.prefs.profiles[staff] = preferences.Profile{UserID: staff, Username: "admin_team"}
	env.prefs.profiles[ghost] = preferences.Profile{UserID: ghost, Username: "ghost"}

	rr := env.do(t, http.MethodGet, "/v1/leaderboard", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var entries []leaderboard.Entry
	decodeData(t, rr, &entries)
	require.Len(t, entries, 3)

	// ravi: 100 + 150, anu: 200, ghost: 10
	assert.Equal(t, "ravi", entries[0].Username)
	assert.Equal(t, 250, entries[0].Score)
	assert.Equal(t, "🥇", entries[0].Badge)
	assert.Equal(t, "anu", entries[1].Username)
	assert.Equal(t, 200, entries[1].Score)
	assert.Equal(t, "ghost", entries[2].Username)
	assert.Equal(t, 3, entries[2].Rank)

	rr = env.do(t, http.MethodGet, "/v1/leaderboard?limit=1", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	decodeData(t, rr, &entries)
	assert.Len(t, entries, 1)
}
