package preferences

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrUsernameAlreadySet = errors.New("username can only be set once")
	ErrNoFields           = errors.New("no fields to update")
	ErrInvalidField       = errors.New("invalid field name")
)

// UsernameConstraint is the unique index on lower(username).
const UsernameConstraint = "user_preferences_username_key"

// Preference is the per-identity profile row. It is created on first access.
type Preference struct {
	UserID       uuid.UUID `json:"user_id"`
	Username     *string   `json:"username,omitempty"`
	DisplayName  *string   `json:"display_name,omitempty"`
	AvatarURL    *string   `json:"avatar_url,omitempty"`
	PushEnabled  bool      `json:"push_enabled"`
	EmailEnabled bool      `json:"email_enabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NeedsOnboarding reports whether the user still has to pick a username.
func (p *Preference) NeedsOnboarding() bool {
	return p.Username == nil || *p.Username == ""
}

// Profile is the public part of a preference row.
type Profile struct {
	UserID      uuid.UUID `json:"user_id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
}

type Store interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*Preference, error)
	SetUsername(ctx context.Context, userID uuid.UUID, username string) error
	UsernameAvailable(ctx context.Context, username string) (bool, error)
	Update(ctx context.Context, userID uuid.UUID, updates map[string]any) error
	SetAvatar(ctx context.Context, userID uuid.UUID, url string) (previous *string, err error)
	Profiles(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]Profile, error)
}
