package main

import (
	"net/http"
	"testing"

	"foodspot/internal/domain/spots"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type outcomeResponse struct {
	State string `json:"state"`
	Value bool   `json:"value"`
}

func TestFavoriteToggle(t *testing.T) {
	env := newTestApplication(t)
	env.spots.put(spots.Spot{ID: 7, Name: "Dhe Puttu", Verified: true})
	tok := env.token(t, uuid.New())

	rr := env.do(t, http.MethodPut, "/v1/me/favorites/7", tok, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var out outcomeResponse
	decodeData(t, rr, &out)
	assert.Equal(t, "committed", out.State)
	assert.True(t, out.Value)

	// adding twice is harmless
	rr = env.do(t, http.MethodPut, "/v1/me/favorites/7", tok, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, http.MethodGet, "/v1/me/favorites", tok, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var list []spots.Spot
	decodeData(t, rr, &list)
	require.Len(t, list, 1)
	assert.Equal(t, int64(7), list[0].ID)
	assert.NotEmpty(t, list[0].ShareCode)

	rr = env.do(t, http.MethodDelete, "/v1/me/favorites/7", tok, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	decodeData(t, rr, &out)
	assert.Equal(t, "committed", out.State)
	assert.False(t, out.Value)

	rr = env.do(t, http.MethodGet, "/v1/me/favorites", tok, nil)
	decodeData(t, rr, &list)
	assert.Empty(t, list)
}

func TestFavoriteListsAreSeparate(t *testing.T) {
	env := newTestApplication(t)
	env.spots.put(spots.Spot{ID: 1, Name: "Ceylon Bake House", Verified: true})
	tok := env.token(t, uuid.New())

	rr := env.do(t, http.MethodPut, "/v1/me/visited/1", tok, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var list []spots.Spot
	decodeData(t, env.do(t, http.MethodGet, "/v1/me/favorites", tok, nil), &list)
	assert.Empty(t, list)

	decodeData(t, env.do(t, http.MethodGet, "/v1/me/visited", tok, nil), &list)
	assert.Len(t, list, 1)

	// lists are per user
	decodeData(t, env.do(t, http.MethodGet, "/v1/me/visited", env.token(t, uuid.New()), nil), &list)
	assert.Empty(t, list)
}

func TestFavoriteUnknownSpotRollsBack(t *testing.T) {
	env := newTestApplication(t)

	rr := env.do(t, http.MethodPut, "/v1/me/favorites/404", env.token(t, uuid.New()), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(t, http.MethodPut, "/v1/me/favorites/abc", env.token(t, uuid.New()), nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
