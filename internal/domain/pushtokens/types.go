package pushtokens

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

const QueryTimeoutDuration = 5 * time.Second

// MinPruneAge is the shortest window PruneStale is allowed to use.
const MinPruneAge = 24 * time.Hour

var ErrTokenNotFound = errors.New("push token not registered")

type Store interface {
	// Register upserts a device token for userID and refreshes last_updated.
	Register(ctx context.Context, userID uuid.UUID, token string, deviceInfo json.RawMessage) error
	Unregister(ctx context.Context, userID uuid.UUID, token string) error
	RemoveTokens(ctx context.Context, tokens []string) (int64, error)
	PruneStale(ctx context.Context, olderThan time.Duration) (int64, error)

	// TokensForUsers and BroadcastTokens skip users who turned push off.
	TokensForUsers(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID][]string, error)
	BroadcastTokens(ctx context.Context) ([]string, error)
}
