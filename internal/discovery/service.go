package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"foodspot/internal/domain/spots"
	"foodspot/internal/geo"

	"golang.org/x/sync/errgroup"
)

type SpotLister interface {
	ListVerified(ctx context.Context) ([]spots.Spot, error)
}

type ReviewCounter interface {
	CountsBySpot(ctx context.Context) (map[int64]int, error)
}

type PlaceResolver interface {
	Resolve(ctx context.Context, place string) (geo.Point, error)
}

// Request describes what the caller searched for. Place is geocoded,
// Center is used as is. When both are set Center wins.
type Request struct {
	Place  string
	Center *geo.Point
	Text   string
}

type Result struct {
	Shelves
	Center *geo.Point `json:"center,omitempty"`
}

type Service struct {
	spots    SpotLister
	reviews  ReviewCounter
	resolver PlaceResolver
	now      func() time.Time
}

func NewService(s SpotLister, r ReviewCounter, resolver PlaceResolver) *Service {
	return &Service{spots: s, reviews: r, resolver: resolver, now: time.Now}
}

// Discover loads verified spots and review counts concurrently, resolves
// the place if there is one and assembles the shelves. A place that cannot
// be resolved is returned as the resolver's error.
func (s *Service) Discover(ctx context.Context, req Request) (*Result, error) {
	var (
		verified []spots.Spot
		counts   map[int64]int
		center   = req.Center
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		verified, err = s.spots.ListVerified(gctx)
		if err != nil {
			return fmt.Errorf("list verified spots: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		counts, err = s.reviews.CountsBySpot(gctx)
		if err != nil {
			return fmt.Errorf("count reviews: %w", err)
		}
		return nil
	})
	if place := strings.TrimSpace(req.Place); center == nil && place != "" && s.resolver != nil {
		g.Go(func() error {
			p, err := s.resolver.Resolve(gctx, place)
			if err != nil {
				return fmt.Errorf("resolve %q: %w", place, err)
			}
			center = &p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	shelves := Assemble(verified, counts, s.now(), Filter{
		Center: center,
		Radius: geo.DefaultRadiusKm,
		Text:   strings.TrimSpace(req.Text),
	})
	return &Result{Shelves: shelves, Center: center}, nil
}
