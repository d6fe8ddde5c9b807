// Package discovery composes the home and explore shelves out of the
// verified spot list.
package discovery

import (
	"sort"
	"time"

	"foodspot/internal/domain/spots"
	"foodspot/internal/geo"
	"foodspot/internal/search"
)

const (
	ShelfSize      = 5
	TrendingWindow = 7 * 24 * time.Hour
)

// Shelves are independent lists. A spot may sit on more than one shelf.
type Shelves struct {
	Trending []spots.Spot `json:"trending"`
	Recent   []spots.Spot `json:"recent"`
	Popular  []spots.Spot `json:"popular"`
	All      []spots.Spot `json:"all"`
}

// Newest returns a copy of list sorted by creation time, newest first.
// Equal timestamps fall back to the higher id first.
func Newest(list []spots.Spot) []spots.Spot {
	out := make([]spots.Spot, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func capped(list []spots.Spot, n int) []spots.Spot {
	if len(list) > n {
		return list[:n]
	}
	return list
}

// Trending is spots created within the last TrendingWindow of now, newest
// first, capped at ShelfSize. newest must already be sorted by Newest.
func Trending(newest []spots.Spot, now time.Time) []spots.Spot {
	cutoff := now.Add(-TrendingWindow)
	out := make([]spots.Spot, 0, ShelfSize)
	for _, s := range newest {
		if len(out) == ShelfSize {
			break
		}
		if s.CreatedAt.After(cutoff) {
			out = append(out, s)
		}
	}
	return out
}

// Recent is the ShelfSize newest spots.
func Recent(newest []spots.Spot) []spots.Spot {
	out := make([]spots.Spot, len(capped(newest, ShelfSize)))
	copy(out, newest)
	return out
}

// Popular orders by review count, most reviewed first, ties newest first.
// Spots without reviews still qualify so the shelf fills up on a young
// dataset.
func Popular(newest []spots.Spot, reviewCounts map[int64]int) []spots.Spot {
	out := make([]spots.Spot, len(newest))
	copy(out, newest)
	sort.SliceStable(out, func(i, j int) bool {
		return reviewCounts[out[i].ID] > reviewCounts[out[j].ID]
	})
	return capped(out, ShelfSize)
}

// Filter narrows the All shelf. A zero Filter keeps everything.
type Filter struct {
	Center *geo.Point
	Radius float64
	Text   string
}

func (f Filter) apply(list []spots.Spot) []spots.Spot {
	if f.Center != nil {
		radius := f.Radius
		if radius <= 0 {
			radius = geo.DefaultRadiusKm
		}
		list = geo.WithinRadius(list, *f.Center, radius)
	}
	if f.Text != "" {
		list = search.Filter(list, f.Text)
	}
	return list
}

// Assemble builds every shelf from the verified spots. Only All is affected
// by the filter.
func Assemble(verified []spots.Spot, reviewCounts map[int64]int, now time.Time, f Filter) Shelves {
	newest := Newest(verified)
	all := f.apply(newest)
	if all == nil {
		all = []spots.Spot{}
	}
	return Shelves{
		Trending: Trending(newest, now),
		Recent:   Recent(newest),
		Popular:  Popular(newest, reviewCounts),
		All:      all,
	}
}
