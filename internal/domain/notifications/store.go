package notifications

import (
	"context"
	"fmt"

	"foodspot/internal/dbx"

	"github.com/google/uuid"
)

type Repository struct {
	db dbx.Querier
}

func NewRepository(db dbx.Querier) Store {
	return &Repository{db: db}
}

// visibleTo selects the active notifications $1 can see.
const visibleTo = `n.active AND (n.user_id IS NULL OR n.user_id = $1)`

func (r *Repository) Create(ctx context.Context, n *Notification) error {
	q := `
		INSERT INTO notifications (title, message, user_id)
		VALUES ($1, $2, $3)
		RETURNING id, active, created_at`
	if err := r.db.QueryRow(ctx, q, n.Title, n.Message, n.UserID).Scan(&n.ID, &n.Active, &n.CreatedAt); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Inbox, error) {
	q := `
		SELECT n.id, n.title, n.message, n.active, n.user_id, n.created_at, un.read_at
		FROM notifications n
		LEFT JOIN user_notifications un
		       ON un.notification_id = n.id AND un.user_id = $1
		WHERE ` + visibleTo + `
		ORDER BY n.created_at DESC, n.id DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, q, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	out := []Inbox{}
	for rows.Next() {
		var in Inbox
		if err := rows.Scan(
			&in.ID,
			&in.Title,
			&in.Message,
			&in.Active,
			&in.UserID,
			&in.CreatedAt,
			&in.ReadAt,
		); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		in.Read = in.ReadAt != nil
		out = append(out, in)
	}
	return out, rows.Err()
}

func (r *Repository) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	q := `
		SELECT COUNT(*)
		FROM notifications n
		WHERE ` + visibleTo + `
		  AND NOT EXISTS (
		      SELECT 1 FROM user_notifications un
		      WHERE un.notification_id = n.id AND un.user_id = $1
		  )`

	var count int
	if err := r.db.QueryRow(ctx, q, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead is idempotent. A notification the user cannot see is reported as
// not found.
func (r *Repository) MarkRead(ctx context.Context, notificationID int64, userID uuid.UUID) error {
	q := `
		INSERT INTO user_notifications (notification_id, user_id, read_at)
		SELECT n.id, $1, NOW()
		FROM notifications n
		WHERE n.id = $2 AND ` + visibleTo + `
		ON CONFLICT (notification_id, user_id) DO NOTHING`

	tag, err := r.db.Exec(ctx, q, userID, notificationID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var visible bool
	err = r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM notifications n WHERE n.id = $2 AND `+visibleTo+`)`,
		userID, notificationID).Scan(&visible)
	if err != nil {
		return fmt.Errorf("check notification: %w", err)
	}
	if !visible {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *Repository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	q := `
		INSERT INTO user_notifications (notification_id, user_id, read_at)
		SELECT n.id, $1, NOW()
		FROM notifications n
		WHERE ` + visibleTo + `
		ON CONFLICT (notification_id, user_id) DO NOTHING`

	tag, err := r.db.Exec(ctx, q, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *Repository) Deactivate(ctx context.Context, notificationID int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE notifications SET active = false WHERE id = $1`, notificationID)
	if err != nil {
		return fmt.Errorf("deactivate notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *Repository) ListAll(ctx context.Context, limit, offset int) ([]Notification, error) {
	q := `
		SELECT id, title, message, active, user_id, created_at
		FROM notifications
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list all notifications: %w", err)
	}
	defer rows.Close()

	out := []Notification{}
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.Title, &n.Message, &n.Active, &n.UserID, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
