// Package accesscontrol stores staff roles. Moderation rights come from
// these rows only; there is no shared PIN.
package accesscontrol

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
)

var (
	ErrRoleNotAssigned = errors.New("role not assigned to user")
	ErrUnknownRole     = errors.New("unknown role")
)

type RoleName string

const (
	RoleAdmin     RoleName = "admin"
	RoleModerator RoleName = "moderator"
)

// ModerationRoles may verify spots, decide edits and remove content.
var ModerationRoles = []RoleName{RoleModerator, RoleAdmin}

// CanModerate reports whether roles include any moderation role.
func CanModerate(roles []RoleName) bool {
	return slices.ContainsFunc(roles, func(r RoleName) bool {
		return slices.Contains(ModerationRoles, r)
	})
}

type Assignment struct {
	UserID     uuid.UUID `json:"user_id"`
	Role       RoleName  `json:"role"`
	AssignedAt time.Time `json:"assigned_at"`
}

type Store interface {
	// AssignRole is idempotent. It returns ErrUnknownRole when role has no row
	// in the roles table.
	AssignRole(ctx context.Context, userID uuid.UUID, role RoleName) error
	RemoveRole(ctx context.Context, userID uuid.UUID, role RoleName) error
	RolesOf(ctx context.Context, userID uuid.UUID) ([]RoleName, error)
	UserHasAnyRole(ctx context.Context, userID uuid.UUID, roles ...RoleName) (bool, error)
	ListAssignments(ctx context.Context) ([]Assignment, error)
}
