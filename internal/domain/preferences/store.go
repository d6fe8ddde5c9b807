package preferences

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"foodspot/internal/dbx"

	"github.com/google/uuid"
)

type Repository struct {
	db dbx.Querier
}

func NewRepository(db dbx.Querier) Store {
	return &Repository{db: db}
}

func (r *Repository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*Preference, error) {
	_, err := r.db.Exec(ctx, `
		INSERT INTO user_preferences (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING`, userID)
	if err != nil {
		return nil, fmt.Errorf("ensure preferences: %w", err)
	}

	var p Preference
	err = r.db.QueryRow(ctx, `
		SELECT user_id, username, display_name, avatar_url, push_enabled, email_enabled, created_at, updated_at
		FROM user_preferences
		WHERE user_id = $1`, userID).Scan(
		&p.UserID,
		&p.Username,
		&p.DisplayName,
		&p.AvatarURL,
		&p.PushEnabled,
		&p.EmailEnabled,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("get preferences: %w", err)
	}
	return &p, nil
}

// SetUsername sets the username once. Uniqueness is enforced by the
// database, so two users racing for one name cannot both win.
func (r *Repository) SetUsername(ctx context.Context, userID uuid.UUID, username string) error {
	if _, err := r.GetOrCreate(ctx, userID); err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE user_preferences
		SET username = $2, updated_at = NOW()
		WHERE user_id = $1 AND username IS NULL`, userID, username)
	if err != nil {
		if dbx.IsUniqueViolation(err, UsernameConstraint) {
			return ErrUsernameTaken
		}
		return fmt.Errorf("set username: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUsernameAlreadySet
	}
	return nil
}

func (r *Repository) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	var taken bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM user_preferences WHERE lower(username) = lower($1))`,
		username).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return !taken, nil
}

var updatableFields = map[string]bool{
	"display_name":  true,
	"avatar_url":    true,
	"push_enabled":  true,
	"email_enabled": true,
}

// Update changes the given columns. Only display name, avatar and the
// notification toggles may be updated here; the username has SetUsername.
func (r *Repository) Update(ctx context.Context, userID uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return ErrNoFields
	}
	if _, err := r.GetOrCreate(ctx, userID); err != nil {
		return err
	}

	fields := make([]string, 0, len(updates))
	for field := range updates {
		if !updatableFields[field] {
			return fmt.Errorf("%w: %s", ErrInvalidField, field)
		}
		fields = append(fields, field)
	}
	sort.Strings(fields)

	setClauses := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+1)
	for i, field := range fields {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", field, i+1))
		args = append(args, updates[field])
	}
	args = append(args, userID)

	query := fmt.Sprintf("UPDATE user_preferences SET %s, updated_at = NOW() WHERE user_id = $%d",
		strings.Join(setClauses, ", "), len(args))

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("update preferences: %w", err)
	}
	return nil
}

// SetAvatar stores a new avatar URL and returns the one it replaced.
func (r *Repository) SetAvatar(ctx context.Context, userID uuid.UUID, url string) (*string, error) {
	p, err := r.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := r.db.Exec(ctx, `
		UPDATE user_preferences SET avatar_url = $2, updated_at = NOW() WHERE user_id = $1`,
		userID, url); err != nil {
		return nil, fmt.Errorf("set avatar: %w", err)
	}
	return p.AvatarURL, nil
}

func (r *Repository) Profiles(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]Profile, error) {
	out := make(map[uuid.UUID]Profile, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT user_id, COALESCE(username, ''), COALESCE(display_name, ''), COALESCE(avatar_url, '')
		FROM user_preferences
		WHERE user_id = ANY($1)`, userIDs)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.UserID, &p.Username, &p.DisplayName, &p.AvatarURL); err != nil {
			return nil, err
		}
		out[p.UserID] = p
	}
	return out, rows.Err()
}
