package storage

import (
	"context"
	"fmt"

	"foodspot/internal/domain/accesscontrol"
	"foodspot/internal/domain/community"
	"foodspot/internal/domain/favorites"
	"foodspot/internal/domain/notifications"
	"foodspot/internal/domain/preferences"
	"foodspot/internal/domain/pushtokens"
	"foodspot/internal/domain/reviews"
	"foodspot/internal/domain/spotedits"
	"foodspot/internal/domain/spots"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Container struct {
	Spots         spots.Store
	SpotEdits     spotedits.Store
	Reviews       reviews.Store
	Community     community.Store
	Notifications notifications.Store
	Preferences   preferences.Store
	Favorites     favorites.Store
	PushTokens    pushtokens.Store
	AccessControl accesscontrol.Store

	// EditTx runs fn with tx-scoped stores. NewContainer wires it to the pool.
	EditTx EditTxFunc
}

// EditTx is a temporary, tx-scoped set of repos for moderating edits.
type EditTx struct {
	Spots     spots.Store
	SpotEdits spotedits.Store
}

type EditTxFunc func(ctx context.Context, fn func(tx *EditTx) error) error

func NewContainer(db *pgxpool.Pool) *Container {
	return &Container{
		Spots:         spots.NewRepository(db),
		SpotEdits:     spotedits.NewRepository(db),
		Reviews:       reviews.NewRepository(db),
		Community:     community.NewRepository(db),
		Notifications: notifications.NewRepository(db),
		Preferences:   preferences.NewRepository(db),
		Favorites:     favorites.NewRepository(db),
		PushTokens:    pushtokens.NewRepository(db),
		AccessControl: accesscontrol.NewRepository(db),
		EditTx:        poolEditTx(db),
	}
}

func poolEditTx(pool *pgxpool.Pool) EditTxFunc {
	return func(ctx context.Context, fn func(tx *EditTx) error) error {
		if pool == nil {
			return fmt.Errorf("storage container pool is nil")
		}

		tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
		if err != nil {
			return err
		}
		defer func() {
			_ = tx.Rollback(ctx) // safe even if already committed
		}()

		if err := fn(&EditTx{
			Spots:     spots.NewRepository(tx),
			SpotEdits: spotedits.NewRepository(tx),
		}); err != nil {
			return err
		}
		return tx.Commit(ctx)
	}
}

// WithEditTx runs an edit moderation unit-of-work atomically.
func (c *Container) WithEditTx(ctx context.Context, fn func(tx *EditTx) error) error {
	if c.EditTx == nil {
		return fmt.Errorf("storage container has no transaction runner")
	}
	return c.EditTx(ctx, fn)
}

// ApproveEdit marks a pending suggestion approved and copies its payload
// onto the spot. Both writes commit or neither does.
func (c *Container) ApproveEdit(ctx context.Context, editID int64, reviewer uuid.UUID, note *string) (*spotedits.Edit, error) {
	var approved *spotedits.Edit
	err := c.WithEditTx(ctx, func(tx *EditTx) error {
		e, err := tx.SpotEdits.MarkApproved(ctx, editID, reviewer, note)
		if err != nil {
			return err
		}
		if err := tx.Spots.ApplyFields(ctx, e.SpotID, e.Payload); err != nil {
			return fmt.Errorf("apply edit %d: %w", editID, err)
		}
		approved = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return approved, nil
}
