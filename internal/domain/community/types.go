package community

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
)

// Post is a photo shared to the community feed. LikeCount, Liked and Saved
// are computed per viewer.
type Post struct {
	ID        int64     `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	ImageURL  string    `json:"image_url"`
	Caption   string    `json:"caption"`
	CreatedAt time.Time `json:"created_at"`

	LikeCount    int  `json:"like_count"`
	CommentCount int  `json:"comment_count"`
	Liked        bool `json:"liked"`
	Saved        bool `json:"saved"`

	// Joined fields
	Username  *string `json:"username,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

type Comment struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"post_id"`
	UserID    uuid.UUID `json:"user_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`

	Username  *string `json:"username,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

type Store interface {
	CreatePost(ctx context.Context, p *Post) error
	GetPost(ctx context.Context, postID int64, viewer uuid.UUID) (*Post, error)
	ListFeed(ctx context.Context, viewer uuid.UUID, limit, offset int) ([]Post, error)
	ListSaved(ctx context.Context, viewer uuid.UUID, limit, offset int) ([]Post, error)
	DeletePost(ctx context.Context, postID int64) error

	SetLike(ctx context.Context, postID int64, userID uuid.UUID, liked bool) error
	SetSaved(ctx context.Context, postID int64, userID uuid.UUID, saved bool) error

	AddComment(ctx context.Context, c *Comment) error
	ListComments(ctx context.Context, postID int64) ([]Comment, error)
	CommentAuthor(ctx context.Context, commentID int64) (uuid.UUID, error)
	DeleteComment(ctx context.Context, commentID int64) error
}
