package spotedits

import (
	"context"
	"errors"
	"time"

	"foodspot/internal/domain/spots"

	"github.com/google/uuid"
)

var (
	ErrEditNotFound = errors.New("edit suggestion not found")
	ErrNotPending   = errors.New("edit suggestion is no longer pending")
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Edit is a suggested full replacement of a spot's editable fields.
type Edit struct {
	ID         int64        `json:"id"`
	SpotID     int64        `json:"spot_id"`
	UserID     uuid.UUID    `json:"user_id"`
	Payload    spots.Fields `json:"payload"`
	Status     Status       `json:"status"`
	Note       *string      `json:"note,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	ReviewedAt *time.Time   `json:"reviewed_at,omitempty"`
	ReviewedBy *uuid.UUID   `json:"reviewed_by,omitempty"`
}

type Filter struct {
	Status *Status
	SpotID *int64
	Limit  int
	Offset int
}

type Store interface {
	Create(ctx context.Context, e *Edit) error
	GetByID(ctx context.Context, editID int64) (*Edit, error)
	List(ctx context.Context, f Filter) ([]Edit, error)
	// MarkApproved and MarkRejected only move pending suggestions and return
	// the updated row.
	MarkApproved(ctx context.Context, editID int64, reviewer uuid.UUID, note *string) (*Edit, error)
	MarkRejected(ctx context.Context, editID int64, reviewer uuid.UUID, note *string) (*Edit, error)
}
