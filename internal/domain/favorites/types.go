package favorites

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrSpotNotFound = errors.New("spot not found")

// List picks the relation table: the user's favorites or the spots they
// marked as visited.
type List string

const (
	Favorites List = "favorites"
	Visited   List = "visited"
)

func (l List) table() string {
	if l == Visited {
		return "visited_spots"
	}
	return "user_favorites"
}

type Entry struct {
	UserID    uuid.UUID `json:"user_id"`
	SpotID    int64     `json:"spot_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Store interface {
	// Set adds or removes spotID from the user's list. Both directions are
	// idempotent.
	Set(ctx context.Context, list List, userID uuid.UUID, spotID int64, on bool) error
	Contains(ctx context.Context, list List, userID uuid.UUID, spotID int64) (bool, error)
	// SpotIDs returns the spots in the list, most recently added first.
	SpotIDs(ctx context.Context, list List, userID uuid.UUID) ([]int64, error)
}
