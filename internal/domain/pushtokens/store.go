package pushtokens

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"foodspot/internal/dbx"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Repository struct {
	db dbx.Querier
}

func NewRepository(db dbx.Querier) Store {
	return &Repository{db: db}
}

func (r *Repository) Register(ctx context.Context, userID uuid.UUID, token string, deviceInfo json.RawMessage) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	if len(deviceInfo) == 0 {
		deviceInfo = json.RawMessage(`{}`)
	}

	q := `
	INSERT INTO user_push_tokens (user_id, expo_push_token, device_info, last_updated)
	VALUES ($1, $2, $3, NOW())
	ON CONFLICT (user_id, expo_push_token)
	DO UPDATE SET device_info = EXCLUDED.device_info, last_updated = NOW()`

	if _, err := r.db.Exec(ctx, q, userID, token, deviceInfo); err != nil {
		return fmt.Errorf("register push token: %w", err)
	}
	return nil
}

func (r *Repository) Unregister(ctx context.Context, userID uuid.UUID, token string) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := r.db.Exec(ctx,
		`DELETE FROM user_push_tokens WHERE user_id = $1 AND expo_push_token = $2`,
		userID, token)
	if err != nil {
		return fmt.Errorf("unregister push token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTokenNotFound
	}
	return nil
}

// RemoveTokens deletes the given tokens for every user, e.g. devices Expo
// reported as unregistered.
func (r *Repository) RemoveTokens(ctx context.Context, tokens []string) (int64, error) {
	if len(tokens) == 0 {
		return 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM user_push_tokens WHERE expo_push_token = ANY($1)`, tokens)
	if err != nil {
		return 0, fmt.Errorf("remove push tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

// PruneStale deletes tokens that have not been refreshed for olderThan.
func (r *Repository) PruneStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan < MinPruneAge {
		return 0, fmt.Errorf("prune window %s is shorter than %s", olderThan, MinPruneAge)
	}
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := r.db.Exec(ctx,
		`DELETE FROM user_push_tokens WHERE last_updated < NOW() - make_interval(secs => $1)`,
		olderThan.Seconds())
	if err != nil {
		return 0, fmt.Errorf("prune push tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

const pushEnabled = `COALESCE(p.push_enabled, true)`

func (r *Repository) TokensForUsers(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID][]string, error) {
	result := make(map[uuid.UUID][]string, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	q := `
	SELECT t.user_id, t.expo_push_token
	FROM user_push_tokens t
	LEFT JOIN user_preferences p ON p.user_id = t.user_id
	WHERE t.user_id = ANY($1) AND ` + pushEnabled

	rows, err := r.db.Query(ctx, q, userIDs)
	if err != nil {
		return nil, fmt.Errorf("query push tokens: %w", err)
	}

	type row struct {
		UserID uuid.UUID
		Token  string
	}
	collected, err := pgx.CollectRows(rows, func(rw pgx.CollectableRow) (row, error) {
		var out row
		err := rw.Scan(&out.UserID, &out.Token)
		return out, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan push tokens: %w", err)
	}
	for _, c := range collected {
		result[c.UserID] = append(result[c.UserID], c.Token)
	}
	return result, nil
}

func (r *Repository) BroadcastTokens(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	q := `
	SELECT DISTINCT t.expo_push_token
	FROM user_push_tokens t
	LEFT JOIN user_preferences p ON p.user_id = t.user_id
	WHERE ` + pushEnabled

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query broadcast tokens: %w", err)
	}
	tokens, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan broadcast tokens: %w", err)
	}
	return tokens, nil
}
