package main

import (
	"net/http"
	"testing"

	"foodspot/internal/domain/preferences"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPreferencesReportsRoles(t *testing.T) {
	env := newTestApplication(t)

	type me struct {
		Username        *string  `json:"username"`
		NeedsOnboarding bool     `json:"needs_onboarding"`
		IsModerator     bool     `json:"is_moderator"`
		Roles           []string `json:"roles"`
	}

	t.Run("new user", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/v1/me", env.token(t, uuid.New()), nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var got me
		decodeData(t, rr, &got)
		assert.True(t, got.NeedsOnboarding)
		assert.False(t, got.IsModerator)
		assert.Empty(t, got.Roles)
	})

	t.Run("moderator with username", func(t *testing.T) {
		id, tok := env.moderator(t)
		env.prefs.profiles[id] = preferences.Profile{UserID: id, Username: "foodie"}

		rr := env.do(t, http.MethodGet, "/v1/me", tok, nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var got me
		decodeData(t, rr, &got)
		assert.False(t, got.NeedsOnboarding)
		assert.True(t, got.IsModerator)
		assert.Equal(t, []string{"moderator"}, got.Roles)
	})
}
