package notifications

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotificationNotFound = errors.New("notification not found")

// Notification is either broadcast (UserID nil) or scoped to one user.
type Notification struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Active    bool       `json:"active"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Inbox is a notification as seen by one user.
type Inbox struct {
	Notification
	Read   bool       `json:"read"`
	ReadAt *time.Time `json:"read_at,omitempty"`
}

type Store interface {
	Create(ctx context.Context, n *Notification) error
	// ListForUser returns active broadcast and user-scoped notifications,
	// newest first, with the user's read state.
	ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Inbox, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, notificationID int64, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Deactivate(ctx context.Context, notificationID int64) error
	ListAll(ctx context.Context, limit, offset int) ([]Notification, error)
}
