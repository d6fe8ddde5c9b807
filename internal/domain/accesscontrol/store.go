package accesscontrol

import (
	"context"
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

func (r *Repository) AssignRole(ctx context.Context, userID uuid.UUID, role RoleName) error {
	q := `
	WITH role AS (
		SELECT id FROM roles WHERE name = $2
	), granted AS (
		INSERT INTO user_roles (user_id, role_id)
		SELECT $1, id FROM role
		ON CONFLICT DO NOTHING
	)
	SELECT EXISTS (SELECT 1 FROM role)`

	var known bool
	if err := r.db.QueryRow(ctx, q, userID, string(role)).Scan(&known); err != nil {
		return fmt.Errorf("assign role %s: %w", role, err)
	}
	if !known {
		return ErrUnknownRole
	}
	return nil
}

func (r *Repository) RemoveRole(ctx context.Context, userID uuid.UUID, role RoleName) error {
	q := `
	DELETE FROM user_roles ur
	USING roles r
	WHERE ur.role_id = r.id AND ur.user_id = $1 AND r.name = $2`

	tag, err := r.db.Exec(ctx, q, userID, string(role))
	if err != nil {
		return fmt.Errorf("remove role %s: %w", role, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRoleNotAssigned
	}
	return nil
}

func (r *Repository) RolesOf(ctx context.Context, userID uuid.UUID) ([]RoleName, error) {
	q := `
	SELECT r.name
	FROM user_roles ur
	JOIN roles r ON r.id = ur.role_id
	WHERE ur.user_id = $1
	ORDER BY r.name`

	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("roles of %s: %w", userID, err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[RoleName])
}

func (r *Repository) UserHasAnyRole(ctx context.Context, userID uuid.UUID, roles ...RoleName) (bool, error) {
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}

	q := `
	SELECT EXISTS (
		SELECT 1
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		WHERE ur.user_id = $1 AND r.name = ANY($2)
	)`

	var ok bool
	if err := r.db.QueryRow(ctx, q, userID, names).Scan(&ok); err != nil {
		return false, fmt.Errorf("check roles: %w", err)
	}
	return ok, nil
}

func (r *Repository) ListAssignments(ctx context.Context) ([]Assignment, error) {
	q := `
	SELECT ur.user_id, r.name, ur.assigned_at
	FROM user_roles ur
	JOIN roles r ON r.id = ur.role_id
	ORDER BY ur.assigned_at DESC`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list role assignments: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[Assignment])
}
