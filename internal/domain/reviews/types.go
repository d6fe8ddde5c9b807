package reviews

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrReviewNotFound = errors.New("review not found")

type Review struct {
	ID        int64     `json:"id" db:"id"`
	SpotID    int64     `json:"spot_id" db:"spot_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Rating    int       `json:"rating" db:"rating"`
	Comment   string    `json:"comment" db:"comment"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// Author profile, nil until the author picks a username.
	Username  *string `json:"username,omitempty" db:"username"`
	AvatarURL *string `json:"avatar_url,omitempty" db:"avatar_url"`
}

// Stats summarizes a spot's reviews. Average is rounded to one decimal and
// Breakdown[i] counts the reviews rated i+1.
type Stats struct {
	Total     int     `json:"total"`
	Average   float64 `json:"average"`
	Breakdown [5]int  `json:"breakdown"`
}

type AuthorCount struct {
	UserID uuid.UUID
	Count  int
}

type Store interface {
	Create(ctx context.Context, r *Review) error
	ListBySpot(ctx context.Context, spotID int64) ([]Review, error)
	Stats(ctx context.Context, spotID int64) (Stats, error)
	Delete(ctx context.Context, reviewID int64) error

	// Leaderboard and Popular shelf inputs.
	CountByAuthor(ctx context.Context) ([]AuthorCount, error)
	CountsBySpot(ctx context.Context) (map[int64]int, error)
}
