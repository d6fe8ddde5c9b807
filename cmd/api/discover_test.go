package main

import (
	"net/http"
	"testing"
	"time"

	"foodspot/internal/domain/spots"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type discoverResponse struct {
	Trending []spots.Spot `json:"trending"`
	Recent   []spots.Spot `json:"recent"`
	Popular  []spots.Spot `json:"popular"`
	All      []spots.Spot `json:"all"`
}

func seedDiscoverSpots(env *testEnv) {
	now := time.Now()
	env.spots.put(spots.Spot{
		ID: 1, Name: "Kayees Rahmathulla", Location: "Mattancherry", Verified: true,
		Latitude: float(9.9580), Longitude: float(76.2590), Tags: []string{"biriyani"},
		CreatedAt: now.Add(-2 * time.Hour),
	})
	env.spots.put(spots.Spot{
		ID: 2, Name: "Villa Maya", Location: "Thiruvananthapuram", Verified: true,
		Latitude: float(8.4855), Longitude: float(76.9492), Tags: []string{"fine-dining"},
		CreatedAt: now.Add(-time.Hour),
	})
	env.spots.put(spots.Spot{
		ID: 3, Name: "Paragon", Location: "Kozhikode", Verified: true,
		Tags: []string{"seafood"}, CreatedAt: now.Add(-30 * 24 * time.Hour),
	})
	env.spots.put(spots.Spot{
		ID: 4, Name: "Unverified Biriyani", Location: "Fort Kochi",
		Latitude: float(9.9650), Longitude: float(76.2420), CreatedAt: now,
	})
}

func ids(list []spots.Spot) []int64 {
	out := make([]int64, 0, len(list))
	for _, s := range list {
		out = append(out, s.ID)
	}
	return out
}

func TestDiscoverHandler(t *testing.T) {
	env := newTestApplication(t)
	seedDiscoverSpots(env)

	t.Run("no filter returns every verified spot newest first", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/v1/discover", "", nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var res discoverResponse
		decodeData(t, rr, &res)
		assert.Equal(t, []int64{2, 1, 3}, ids(res.All))
		assert.Equal(t, []int64{2, 1}, ids(res.Trending))
		assert.Equal(t, []int64{2, 1, 3}, ids(res.Recent))
	})

	t.Run("place limits all to the radius", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/v1/discover?place=Fort+Kochi", "", nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var res discoverResponse
		decodeData(t, rr, &res)
		assert.Equal(t, []int64{1}, ids(res.All))
		assert.Len(t, res.Trending, 2, "shelves other than all are not filtered")
	})

	t.Run("explicit coordinates skip geocoding", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/v1/discover?lat=8.49&lng=76.95&place=Nowhere", "", nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var res discoverResponse
		decodeData(t, rr, &res)
		assert.Equal(t, []int64{2}, ids(res.All))
	})

	t.Run("text query matches tags", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/v1/discover?q=fine+dining", "", nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var res discoverResponse
		decodeData(t, rr, &res)
		assert.Equal(t, []int64{2}, ids(res.All))
	})

	t.Run("unknown place is 404", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/v1/discover?place=Atlantis", "", nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Contains(t, rr.Body.String(), "location not found")
	})

	t.Run("partial coordinates are rejected", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/v1/discover?lat=9.9", "", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestSearchSpotsHandler(t *testing.T) {
	env := newTestApplication(t)
	seedDiscoverSpots(env)

	tests := []struct {
		name  string
		query string
		want  []int64
	}{
		{"single character matches nothing", "p", []int64{}},
		{"name substring", "para", []int64{3}},
		{"location", "mattancherry", []int64{1}},
		{"tag without hyphen", "finedining", []int64{2}},
		{"unverified spots are hidden", "unverified", []int64{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := env.do(t, http.MethodGet, "/v1/spots/search?q="+tc.query, "", nil)
			require.Equal(t, http.StatusOK, rr.Code)

			var res searchResult
			decodeData(t, rr, &res)
			assert.Equal(t, tc.want, ids(res.Spots))
		})
	}
}

func TestGeocodeHandler(t *testing.T) {
	env := newTestApplication(t)

	rr := env.do(t, http.MethodGet, "/v1/geocode?place=Fort+Kochi", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var res geocodeResult
	decodeData(t, rr, &res)
	assert.InDelta(t, 9.9658, res.Point.Latitude, 1e-9)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/v1/geocode", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/v1/geocode?place=Atlantis", "", nil).Code)
}
