package community

import (
	"context"
	"errors"
	"fmt"

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

// $1 is always the viewer.
const postSelect = `
	SELECT
		cp.id, cp.user_id, cp.image_url, cp.caption, cp.created_at,
		(SELECT COUNT(*) FROM post_likes l WHERE l.post_id = cp.id) AS like_count,
		(SELECT COUNT(*) FROM post_comments c WHERE c.post_id = cp.id) AS comment_count,
		EXISTS (SELECT 1 FROM post_likes l WHERE l.post_id = cp.id AND l.user_id = $1) AS liked,
		EXISTS (SELECT 1 FROM saved_posts s WHERE s.post_id = cp.id AND s.user_id = $1) AS saved,
		p.username, p.avatar_url
	FROM community_posts cp
	LEFT JOIN user_preferences p ON p.user_id = cp.user_id`

func scanPost(row pgx.Row, p *Post) error {
	return row.Scan(
		&p.ID,
		&p.UserID,
		&p.ImageURL,
		&p.Caption,
		&p.CreatedAt,
		&p.LikeCount,
		&p.CommentCount,
		&p.Liked,
		&p.Saved,
		&p.Username,
		&p.AvatarURL,
	)
}

func collectPosts(rows pgx.Rows) ([]Post, error) {
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		var p Post
		if err := scanPost(rows, &p); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (r *Repository) CreatePost(ctx context.Context, p *Post) error {
	q := `
		INSERT INTO community_posts (user_id, image_url, caption)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`
	if err := r.db.QueryRow(ctx, q, p.UserID, p.ImageURL, p.Caption).Scan(&p.ID, &p.CreatedAt); err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

func (r *Repository) GetPost(ctx context.Context, postID int64, viewer uuid.UUID) (*Post, error) {
	q := postSelect + ` WHERE cp.id = $2`

	var p Post
	if err := scanPost(r.db.QueryRow(ctx, q, viewer, postID), &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	return &p, nil
}

// ListFeed returns the newest posts first with the viewer's liked/saved flags.
func (r *Repository) ListFeed(ctx context.Context, viewer uuid.UUID, limit, offset int) ([]Post, error) {
	q := postSelect + `
	ORDER BY cp.created_at DESC, cp.id DESC
	LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, q, viewer, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list feed: %w", err)
	}
	return collectPosts(rows)
}

// ListSaved returns the viewer's saved posts, most recently saved first.
func (r *Repository) ListSaved(ctx context.Context, viewer uuid.UUID, limit, offset int) ([]Post, error) {
	q := postSelect + `
	JOIN saved_posts sp ON sp.post_id = cp.id AND sp.user_id = $1
	ORDER BY sp.created_at DESC, cp.id DESC
	LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, q, viewer, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list saved posts: %w", err)
	}
	return collectPosts(rows)
}

func (r *Repository) DeletePost(ctx context.Context, postID int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM community_posts WHERE id = $1`, postID)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (r *Repository) postAuthor(ctx context.Context, postID int64) (uuid.UUID, error) {
	var author uuid.UUID
	err := r.db.QueryRow(ctx, `SELECT user_id FROM community_posts WHERE id = $1`, postID).Scan(&author)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrPostNotFound
	}
	return author, err
}

// SetLike is idempotent in both directions.
func (r *Repository) SetLike(ctx context.Context, postID int64, userID uuid.UUID, liked bool) error {
	return r.setRelation(ctx, "post_likes", postID, userID, liked)
}

func (r *Repository) SetSaved(ctx context.Context, postID int64, userID uuid.UUID, saved bool) error {
	return r.setRelation(ctx, "saved_posts", postID, userID, saved)
}

func (r *Repository) setRelation(ctx context.Context, table string, postID int64, userID uuid.UUID, on bool) error {
	var q string
	if on {
		q = fmt.Sprintf(`
			INSERT INTO %s (post_id, user_id)
			SELECT $1, $2 WHERE EXISTS (SELECT 1 FROM community_posts WHERE id = $1)
			ON CONFLICT (post_id, user_id) DO NOTHING`, table)
	} else {
		q = fmt.Sprintf(`DELETE FROM %s WHERE post_id = $1 AND user_id = $2`, table)
	}

	tag, err := r.db.Exec(ctx, q, postID, userID)
	if err != nil {
		return fmt.Errorf("set %s: %w", table, err)
	}
	if on && tag.RowsAffected() == 0 {
		// either already set or the post is gone
		if _, err := r.postAuthor(ctx, postID); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) AddComment(ctx context.Context, c *Comment) error {
	q := `
		INSERT INTO post_comments (post_id, user_id, body)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`
	err := r.db.QueryRow(ctx, q, c.PostID, c.UserID, c.Body).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return ErrPostNotFound
		}
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

// ListComments returns a post's comments in conversation order.
func (r *Repository) ListComments(ctx context.Context, postID int64) ([]Comment, error) {
	q := `
		SELECT c.id, c.post_id, c.user_id, c.body, c.created_at, p.username, p.avatar_url
		FROM post_comments c
		LEFT JOIN user_preferences p ON p.user_id = c.user_id
		WHERE c.post_id = $1
		ORDER BY c.created_at ASC, c.id ASC`

	rows, err := r.db.Query(ctx, q, postID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := []Comment{}
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &c.Body, &c.CreatedAt, &c.Username, &c.AvatarURL); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (r *Repository) CommentAuthor(ctx context.Context, commentID int64) (uuid.UUID, error) {
	var author uuid.UUID
	err := r.db.QueryRow(ctx, `SELECT user_id FROM post_comments WHERE id = $1`, commentID).Scan(&author)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrCommentNotFound
	}
	return author, err
}

func (r *Repository) DeleteComment(ctx context.Context, commentID int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM post_comments WHERE id = $1`, commentID)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCommentNotFound
	}
	return nil
}
