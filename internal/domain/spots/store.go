package spots

import (
	"context"
	"errors"
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

const spotColumns = `
	id, name, category, price_tier, location, latitude, longitude,
	description, tags, image_urls, instagram, whatsapp, phone,
	verified, created_at, created_by`

func scanSpot(row pgx.Row, s *Spot) error {
	return row.Scan(
		&s.ID,
		&s.Name,
		&s.Category,
		&s.PriceTier,
		&s.Location,
		&s.Latitude,
		&s.Longitude,
		&s.Description,
		&s.Tags,
		&s.ImageURLs,
		&s.Instagram,
		&s.WhatsApp,
		&s.Phone,
		&s.Verified,
		&s.CreatedAt,
		&s.CreatedBy,
	)
}

func collectSpots(rows pgx.Rows) ([]Spot, error) {
	defer rows.Close()

	out := []Spot{}
	for rows.Next() {
		var s Spot
		if err := scanSpot(rows, &s); err != nil {
			return nil, fmt.Errorf("scan spot row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows spots: %w", err)
	}
	return out, nil
}

// Create inserts a new spot. New spots are always unverified.
func (r *Repository) Create(ctx context.Context, s *Spot) error {
	if len(s.ImageURLs) > MaxImages {
		return ErrTooManyImages
	}
	if s.Tags == nil {
		s.Tags = []string{}
	}
	if s.ImageURLs == nil {
		s.ImageURLs = []string{}
	}

	const query = `
	INSERT INTO spots (
		name, category, price_tier, location, latitude, longitude,
		description, tags, image_urls, instagram, whatsapp, phone,
		verified, created_by
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, false, $13)
	RETURNING id, verified, created_at
	`

	err := r.db.QueryRow(ctx, query,
		s.Name,
		s.Category,
		s.PriceTier,
		s.Location,
		s.Latitude,
		s.Longitude,
		s.Description,
		s.Tags,
		s.ImageURLs,
		s.Instagram,
		s.WhatsApp,
		s.Phone,
		s.CreatedBy,
	).Scan(&s.ID, &s.Verified, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert spot: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, spotID int64) (*Spot, error) {
	query := `SELECT` + spotColumns + ` FROM spots WHERE id = $1`

	var s Spot
	if err := scanSpot(r.db.QueryRow(ctx, query, spotID), &s); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSpotNotFound
		}
		return nil, fmt.Errorf("get spot: %w", err)
	}
	return &s, nil
}

// ListVerified returns every verified spot, newest first.
func (r *Repository) ListVerified(ctx context.Context) ([]Spot, error) {
	query := `SELECT` + spotColumns + `
	FROM spots
	WHERE verified = true
	ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list verified spots: %w", err)
	}
	return collectSpots(rows)
}

// ListPending returns spots waiting for moderation, oldest first.
func (r *Repository) ListPending(ctx context.Context, limit, offset int) ([]Spot, error) {
	query := `SELECT` + spotColumns + `
	FROM spots
	WHERE verified = false
	ORDER BY created_at ASC
	LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list pending spots: %w", err)
	}
	return collectSpots(rows)
}

// ListAll returns every spot regardless of status, newest first.
func (r *Repository) ListAll(ctx context.Context, limit, offset int) ([]Spot, error) {
	query := `SELECT` + spotColumns + `
	FROM spots
	ORDER BY created_at DESC, id DESC
	LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list spots: %w", err)
	}
	return collectSpots(rows)
}

// ListByIDs returns the spots with the given ids in the order of ids.
// Missing ids are skipped.
func (r *Repository) ListByIDs(ctx context.Context, ids []int64) ([]Spot, error) {
	if len(ids) == 0 {
		return []Spot{}, nil
	}
	query := `SELECT` + spotColumns + `
	FROM spots
	WHERE id = ANY($1)`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("list spots by id: %w", err)
	}
	found, err := collectSpots(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]Spot, len(found))
	for _, s := range found {
		byID[s.ID] = s
	}
	out := make([]Spot, 0, len(found))
	for _, id := range ids {
		if s, ok := byID[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// ListMissingCoordinates returns spots that still need geocoding and have
// not failed too often.
func (r *Repository) ListMissingCoordinates(ctx context.Context, limit int) ([]Spot, error) {
	query := `SELECT` + spotColumns + `
	FROM spots
	WHERE (latitude IS NULL OR longitude IS NULL)
	  AND location <> ''
	  AND geocode_attempts < $2
	ORDER BY created_at DESC
	LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit, MaxGeocodeAttempts)
	if err != nil {
		return nil, fmt.Errorf("list spots without coordinates: %w", err)
	}
	return collectSpots(rows)
}

func (r *Repository) SetVerified(ctx context.Context, spotID int64, verified bool) error {
	ct, err := r.db.Exec(ctx, `UPDATE spots SET verified = $1 WHERE id = $2`, verified, spotID)
	if err != nil {
		return fmt.Errorf("set spot verified: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrSpotNotFound
	}
	return nil
}

func (r *Repository) SetCoordinates(ctx context.Context, spotID int64, lat, lng float64) error {
	ct, err := r.db.Exec(ctx, `UPDATE spots SET latitude = $1, longitude = $2 WHERE id = $3`, lat, lng, spotID)
	if err != nil {
		return fmt.Errorf("set spot coordinates: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrSpotNotFound
	}
	return nil
}

// ApplyFields replaces every editable column of the spot.
func (r *Repository) ApplyFields(ctx context.Context, spotID int64, f Fields) error {
	if len(f.ImageURLs) > MaxImages {
		return ErrTooManyImages
	}
	tags := f.Tags
	if tags == nil {
		tags = []string{}
	}
	images := f.ImageURLs
	if images == nil {
		images = []string{}
	}

	const query = `
	UPDATE spots SET
		name = $1, category = $2, price_tier = $3, location = $4,
		latitude = $5, longitude = $6, description = $7, tags = $8,
		image_urls = $9, instagram = $10, whatsapp = $11, phone = $12
	WHERE id = $13
	`
	ct, err := r.db.Exec(ctx, query,
		f.Name, f.Category, f.PriceTier, f.Location,
		f.Latitude, f.Longitude, f.Description, tags,
		images, f.Instagram, f.WhatsApp, f.Phone,
		spotID,
	)
	if err != nil {
		return fmt.Errorf("apply spot fields: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrSpotNotFound
	}
	return nil
}

// AddImageURL appends an image unless the spot already has MaxImages.
func (r *Repository) AddImageURL(ctx context.Context, spotID int64, url string) error {
	const query = `
		UPDATE spots
		SET image_urls = array_append(image_urls, $1)
		WHERE id = $2 AND cardinality(image_urls) < $3
	`
	ct, err := r.db.Exec(ctx, query, url, spotID, MaxImages)
	if err != nil {
		return fmt.Errorf("failed to add image URL: %w", err)
	}
	if ct.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, spotID); err != nil {
			return err
		}
		return ErrTooManyImages
	}
	return nil
}

func (r *Repository) RemoveImageURL(ctx context.Context, spotID int64, url string) error {
	const query = `
		UPDATE spots
		SET image_urls = array_remove(image_urls, $1)
		WHERE id = $2 AND $1 = ANY(image_urls)
	`
	ct, err := r.db.Exec(ctx, query, url, spotID)
	if err != nil {
		return fmt.Errorf("failed to remove image URL: %w", err)
	}
	if ct.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, spotID); err != nil {
			return err
		}
		return ErrImageNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, spotID int64) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM spots WHERE id = $1`, spotID)
	if err != nil {
		return fmt.Errorf("delete spot: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrSpotNotFound
	}
	return nil
}

// RecordGeocodeFailure counts a failed lookup so the backfill eventually
// stops retrying the spot.
func (r *Repository) RecordGeocodeFailure(ctx context.Context, spotID int64) error {
	_, err := r.db.Exec(ctx, `UPDATE spots SET geocode_attempts = geocode_attempts + 1 WHERE id = $1`, spotID)
	if err != nil {
		return fmt.Errorf("record geocode failure: %w", err)
	}
	return nil
}

// CountByCreator counts created spots per user. Verification status does not
// matter for the leaderboard.
func (r *Repository) CountByCreator(ctx context.Context) ([]CreatorCount, error) {
	rows, err := r.db.Query(ctx, `SELECT created_by, COUNT(*) FROM spots GROUP BY created_by`)
	if err != nil {
		return nil, fmt.Errorf("count spots by creator: %w", err)
	}
	defer rows.Close()

	var out []CreatorCount
	for rows.Next() {
		var c CreatorCount
		if err := rows.Scan(&c.UserID, &c.Count); err != nil {
			return nil, fmt.Errorf("scan creator count: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
