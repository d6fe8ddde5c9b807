package spots

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSpotNotFound  = errors.New("spot not found")
	ErrTooManyImages = errors.New("a spot can have at most 5 images")
	ErrImageNotFound = errors.New("image does not belong to this spot")
)

const (
	MaxImages = 5

	// MaxGeocodeAttempts bounds how often the backfill retries one spot.
	MaxGeocodeAttempts = 3
)

// Spot is a food place submitted by a contributor. It shows up in discovery
// only once a moderator has verified it.
type Spot struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	PriceTier   int       `json:"price_tier"` // 1-4
	Location    string    `json:"location"`   // free text label, e.g. "Fort Kochi"
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	Description *string   `json:"description,omitempty"`
	Tags        []string  `json:"tags"`
	ImageURLs   []string  `json:"image_urls"`
	Instagram   *string   `json:"instagram,omitempty"`
	WhatsApp    *string   `json:"whatsapp,omitempty"`
	Phone       *string   `json:"phone,omitempty"`
	Verified    bool      `json:"verified"`
	CreatedAt   time.Time `json:"created_at"`
	CreatedBy   uuid.UUID `json:"created_by"`
	ShareCode   string    `json:"share_code,omitempty"`
}

// Coordinates satisfies geo.Locatable.
func (s Spot) Coordinates() (*float64, *float64) {
	return s.Latitude, s.Longitude
}

// HasCoordinates reports whether the spot has been geocoded.
func (s Spot) HasCoordinates() bool {
	return s.Latitude != nil && s.Longitude != nil
}

// Fields is the editable part of a spot. Edit suggestions carry a complete
// Fields value that replaces the spot's current one on approval.
type Fields struct {
	Name        string   `json:"name" validate:"required,max=120"`
	Category    string   `json:"category" validate:"required,max=50"`
	PriceTier   int      `json:"price_tier" validate:"required,min=1,max=4"`
	Location    string   `json:"location" validate:"required,max=255"`
	Latitude    *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=2000"`
	Tags        []string `json:"tags" validate:"max=20,dive,min=1,max=40"`
	ImageURLs   []string `json:"image_urls" validate:"max=5,dive,url"`
	Instagram   *string  `json:"instagram,omitempty" validate:"omitempty,max=100"`
	WhatsApp    *string  `json:"whatsapp,omitempty" validate:"omitempty,max=20"`
	Phone       *string  `json:"phone,omitempty" validate:"omitempty,max=20"`
}

// FieldsOf extracts the editable fields of a spot.
func FieldsOf(s *Spot) Fields {
	return Fields{
		Name:        s.Name,
		Category:    s.Category,
		PriceTier:   s.PriceTier,
		Location:    s.Location,
		Latitude:    s.Latitude,
		Longitude:   s.Longitude,
		Description: s.Description,
		Tags:        s.Tags,
		ImageURLs:   s.ImageURLs,
		Instagram:   s.Instagram,
		WhatsApp:    s.WhatsApp,
		Phone:       s.Phone,
	}
}

// Apply overwrites the editable fields of s with f.
func (f Fields) Apply(s *Spot) {
	s.Name = f.Name
	s.Category = f.Category
	s.PriceTier = f.PriceTier
	s.Location = f.Location
	s.Latitude = f.Latitude
	s.Longitude = f.Longitude
	s.Description = f.Description
	s.Tags = f.Tags
	s.ImageURLs = f.ImageURLs
	s.Instagram = f.Instagram
	s.WhatsApp = f.WhatsApp
	s.Phone = f.Phone
}

// CreatorCount is the number of spots a user has created, any status.
type CreatorCount struct {
	UserID uuid.UUID
	Count  int
}

type Store interface {
	Create(ctx context.Context, s *Spot) error
	GetByID(ctx context.Context, spotID int64) (*Spot, error)
	ListVerified(ctx context.Context) ([]Spot, error)
	ListPending(ctx context.Context, limit, offset int) ([]Spot, error)
	ListAll(ctx context.Context, limit, offset int) ([]Spot, error)
	ListByIDs(ctx context.Context, ids []int64) ([]Spot, error)
	ListMissingCoordinates(ctx context.Context, limit int) ([]Spot, error)
	RecordGeocodeFailure(ctx context.Context, spotID int64) error
	SetVerified(ctx context.Context, spotID int64, verified bool) error
	SetCoordinates(ctx context.Context, spotID int64, lat, lng float64) error
	ApplyFields(ctx context.Context, spotID int64, f Fields) error
	AddImageURL(ctx context.Context, spotID int64, url string) error
	RemoveImageURL(ctx context.Context, spotID int64, url string) error
	Delete(ctx context.Context, spotID int64) error
	CountByCreator(ctx context.Context) ([]CreatorCount, error)
}
