package reviews

import (
	"context"
	"fmt"

	"foodspot/internal/dbx"

	"github.com/jackc/pgx/v5"
)

type Repository struct {
	db dbx.Querier
}

func NewRepository(db dbx.Querier) Store {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, review *Review) error {
	q := `
	INSERT INTO reviews (spot_id, user_id, rating, comment)
	VALUES ($1, $2, $3, $4)
	RETURNING id, created_at`

	err := r.db.QueryRow(ctx, q, review.SpotID, review.UserID, review.Rating, review.Comment).
		Scan(&review.ID, &review.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert review for spot %d: %w", review.SpotID, err)
	}
	return nil
}

// ListBySpot returns the reviews of a spot, newest first, with the author's
// public profile when one exists.
func (r *Repository) ListBySpot(ctx context.Context, spotID int64) ([]Review, error) {
	q := `
	SELECT r.id, r.spot_id, r.user_id, r.rating, r.comment, r.created_at,
	       p.username, p.avatar_url
	FROM reviews r
	LEFT JOIN user_preferences p ON p.user_id = r.user_id
	WHERE r.spot_id = $1
	ORDER BY r.created_at DESC, r.id DESC`

	rows, err := r.db.Query(ctx, q, spotID)
	if err != nil {
		return nil, fmt.Errorf("list reviews of spot %d: %w", spotID, err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[Review])
}

func (r *Repository) Stats(ctx context.Context, spotID int64) (Stats, error) {
	q := `
	SELECT COUNT(*),
	       COALESCE(ROUND(AVG(rating)::numeric, 1), 0)::float8,
	       COUNT(*) FILTER (WHERE rating = 1),
	       COUNT(*) FILTER (WHERE rating = 2),
	       COUNT(*) FILTER (WHERE rating = 3),
	       COUNT(*) FILTER (WHERE rating = 4),
	       COUNT(*) FILTER (WHERE rating = 5)
	FROM reviews
	WHERE spot_id = $1`

	var s Stats
	b := &s.Breakdown
	err := r.db.QueryRow(ctx, q, spotID).Scan(&s.Total, &s.Average, &b[0], &b[1], &b[2], &b[3], &b[4])
	if err != nil {
		return Stats{}, fmt.Errorf("review stats of spot %d: %w", spotID, err)
	}
	return s, nil
}

// Delete removes a review regardless of author. Only moderators reach it.
func (r *Repository) Delete(ctx context.Context, reviewID int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, reviewID)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrReviewNotFound
	}
	return nil
}

func (r *Repository) CountByAuthor(ctx context.Context) ([]AuthorCount, error) {
	rows, err := r.db.Query(ctx, `SELECT user_id, COUNT(*) FROM reviews GROUP BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("count reviews by author: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[AuthorCount])
}

func (r *Repository) CountsBySpot(ctx context.Context) (map[int64]int, error) {
	rows, err := r.db.Query(ctx, `SELECT spot_id, COUNT(*) FROM reviews GROUP BY spot_id`)
	if err != nil {
		return nil, fmt.Errorf("count reviews by spot: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]int)
	for rows.Next() {
		var (
			spotID int64
			n      int
		)
		if err := rows.Scan(&spotID, &n); err != nil {
			return nil, err
		}
		out[spotID] = n
	}
	return out, rows.Err()
}
