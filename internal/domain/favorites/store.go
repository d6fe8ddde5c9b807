package favorites

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

func (r *Repository) Set(ctx context.Context, list List, userID uuid.UUID, spotID int64, on bool) error {
	if !on {
		query := fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1 AND spot_id = $2`, list.table())
		if _, err := r.db.Exec(ctx, query, userID, spotID); err != nil {
			return fmt.Errorf("remove from %s: %w", list, err)
		}
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, spot_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, list.table())
	if _, err := r.db.Exec(ctx, query, userID, spotID); err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return ErrSpotNotFound
		}
		return fmt.Errorf("add to %s: %w", list, err)
	}
	return nil
}

func (r *Repository) Contains(ctx context.Context, list List, userID uuid.UUID, spotID int64) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE user_id = $1 AND spot_id = $2)`, list.table())

	var ok bool
	if err := r.db.QueryRow(ctx, query, userID, spotID).Scan(&ok); err != nil {
		return false, fmt.Errorf("check %s: %w", list, err)
	}
	return ok, nil
}

func (r *Repository) SpotIDs(ctx context.Context, list List, userID uuid.UUID) ([]int64, error) {
	query := fmt.Sprintf(`
		SELECT spot_id FROM %s
		WHERE user_id = $1
		ORDER BY created_at DESC`, list.table())

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", list, err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
