package spotedits

import (
	"context"
	"errors"
	"fmt"
	"strings"

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

const editColumns = `
	id, spot_id, user_id, payload, status, note, created_at, reviewed_at, reviewed_by`

func scanEdit(row pgx.Row, e *Edit) error {
	return row.Scan(
		&e.ID,
		&e.SpotID,
		&e.UserID,
		&e.Payload,
		&e.Status,
		&e.Note,
		&e.CreatedAt,
		&e.ReviewedAt,
		&e.ReviewedBy,
	)
}

func (r *Repository) Create(ctx context.Context, e *Edit) error {
	const q = `
		INSERT INTO spot_edits (spot_id, user_id, payload)
		VALUES ($1, $2, $3)
		RETURNING id, status, created_at
	`
	if err := r.db.QueryRow(ctx, q, e.SpotID, e.UserID, e.Payload).Scan(&e.ID, &e.Status, &e.CreatedAt); err != nil {
		return fmt.Errorf("create spot_edit: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, editID int64) (*Edit, error) {
	q := `SELECT` + editColumns + ` FROM spot_edits WHERE id = $1`

	var e Edit
	if err := scanEdit(r.db.QueryRow(ctx, q, editID), &e); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEditNotFound
		}
		return nil, fmt.Errorf("get spot_edit: %w", err)
	}
	return &e, nil
}

func (r *Repository) List(ctx context.Context, f Filter) ([]Edit, error) {
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.Limit <= 0 || f.Limit > 60 {
		f.Limit = 20
	}

	where := []string{"1=1"}
	args := []any{}
	arg := 1

	if f.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", arg))
		args = append(args, string(*f.Status))
		arg++
	}
	if f.SpotID != nil {
		where = append(where, fmt.Sprintf("spot_id = $%d", arg))
		args = append(args, *f.SpotID)
		arg++
	}

	args = append(args, f.Limit, f.Offset)
	q := fmt.Sprintf(`
		SELECT %s
		FROM spot_edits
		WHERE %s
		ORDER BY created_at ASC, id ASC
		LIMIT $%d OFFSET $%d
	`, editColumns, strings.Join(where, " AND "), arg, arg+1)

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list spot_edits: %w", err)
	}
	defer rows.Close()

	out := []Edit{}
	for rows.Next() {
		var e Edit
		if err := scanEdit(rows, &e); err != nil {
			return nil, fmt.Errorf("scan spot_edits: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repository) transition(ctx context.Context, editID int64, to Status, reviewer uuid.UUID, note *string) (*Edit, error) {
	q := `
		UPDATE spot_edits
		SET status = $2, note = $3, reviewed_at = NOW(), reviewed_by = $4
		WHERE id = $1 AND status = 'pending'
		RETURNING` + editColumns

	var e Edit
	err := scanEdit(r.db.QueryRow(ctx, q, editID, string(to), note, reviewer), &e)
	if err == nil {
		return &e, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("mark spot_edit %s: %w", to, err)
	}

	// nothing updated: either missing or already decided
	if _, getErr := r.GetByID(ctx, editID); getErr != nil {
		return nil, getErr
	}
	return nil, ErrNotPending
}

func (r *Repository) MarkApproved(ctx context.Context, editID int64, reviewer uuid.UUID, note *string) (*Edit, error) {
	return r.transition(ctx, editID, StatusApproved, reviewer, note)
}

func (r *Repository) MarkRejected(ctx context.Context, editID int64, reviewer uuid.UUID, note *string) (*Edit, error) {
	return r.transition(ctx, editID, StatusRejected, reviewer, note)
}
