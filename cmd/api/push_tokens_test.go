package main

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"foodspot/internal/domain/pushtokens"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePushTokens struct {
	pushtokens.Store
	tokens map[string]uuid.UUID
	pruned time.Duration
}

func (f *fakePushTokens) Register(_ context.Context, userID uuid.UUID, token string, _ json.RawMessage) error {
	f.tokens[token] = userID
	return nil
}

func (f *fakePushTokens) Unregister(_ context.Context, userID uuid.UUID, token string) error {
	if owner, ok := f.tokens[token]; !ok || owner != userID {
		return pushtokens.ErrTokenNotFound
	}
	delete(f.tokens, token)
	return nil
}

func (f *fakePushTokens) RemoveTokens(_ context.Context, tokens []string) (int64, error) {
	var n int64
	for _, tok := range tokens {
		if _, ok := f.tokens[tok]; ok {
			delete(f.tokens, tok)
			n++
		}
	}
	return n, nil
}

func (f *fakePushTokens) PruneStale(_ context.Context, olderThan time.Duration) (int64, error) {
	f.pruned = olderThan
	return 3, nil
}

func withPushTokens(t *testing.T) (*testEnv, *fakePushTokens) {
	env := newTestApplication(t)
	fake := &fakePushTokens{tokens: map[string]uuid.UUID{}}
	env.app.store.PushTokens = fake
	return env, fake
}

func TestRegisterPushToken(t *testing.T) {
	env, fake := withPushTokens(t)
	user := uuid.New()
	tok := env.token(t, user)

	rr := env.do(t, http.MethodPost, "/v1/me/push-tokens", tok, map[string]any{
		"token":       "ExponentPushToken[abc123]",
		"device_info": map[string]string{"os": "android"},
	})
	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, user, fake.tokens["ExponentPushToken[abc123]"])

	rr = env.do(t, http.MethodPost, "/v1/me/push-tokens", tok, map[string]any{"token": "not-a-token"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodPost, "/v1/me/push-tokens", "", map[string]any{"token": "ExpoPushToken[x]"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestUnregisterPushToken(t *testing.T) {
	env, fake := withPushTokens(t)
	user := uuid.New()
	fake.tokens["ExpoPushToken[mine]"] = user

	rr := env.do(t, http.MethodDelete, "/v1/me/push-tokens", env.token(t, uuid.New()), map[string]string{"token": "ExpoPushToken[mine]"})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(t, http.MethodDelete, "/v1/me/push-tokens", env.token(t, user), map[string]string{"token": "ExpoPushToken[mine]"})
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, fake.tokens)
}

func TestAdminPushTokenMaintenance(t *testing.T) {
	env, fake := withPushTokens(t)
	fake.tokens["a"] = uuid.New()
	fake.tokens["b"] = uuid.New()
	_, mod := env.moderator(t)

	rr := env.do(t, http.MethodPost, "/v1/admin/push-tokens/bulk-remove", env.token(t, uuid.New()), map[string]any{"tokens": []string{"a"}})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = env.do(t, http.MethodPost, "/v1/admin/push-tokens/bulk-remove", mod, map[string]any{"tokens": []string{"a", "zzz"}})
	require.Equal(t, http.StatusOK, rr.Code)
	var removed map[string]int64
	decodeData(t, rr, &removed)
	assert.Equal(t, int64(1), removed["removed"])

	rr = env.do(t, http.MethodPost, "/v1/admin/push-tokens/prune", mod, map[string]string{"older_than": "1h"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodPost, "/v1/admin/push-tokens/prune", mod, map[string]string{"older_than": "1680h"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 70*24*time.Hour, fake.pruned)
}
