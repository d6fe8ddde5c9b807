package params

import (
	"errors"
	"math"
	"net/url"
	"strconv"
	"strings"

	"foodspot/internal/geo"
)

const (
	DefaultLimit = 15
	MaxLimit     = 30
)

var ErrInvalidCoordinates = errors.New("lat and lng must both be valid coordinates")

// Pagination is a page window. ?page=2&limit=30 gives Limit 30, Page 2,
// Offset 30.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"-"`
	Page    int  `json:"page"`
	HasNext bool `json:"has_next"`
	HasPrev bool `json:"has_prev"`
}

// ParsePagination parses ?limit=...&page=... safely. Keys are case sensitive.
func ParsePagination(q url.Values) Pagination {
	p := Pagination{
		Limit: DefaultLimit,
		Page:  1,
	}

	if limitStr := strings.TrimSpace(q.Get("limit")); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			switch {
			case limit <= 0:
				p.Limit = DefaultLimit
			case limit > MaxLimit:
				p.Limit = MaxLimit
			default:
				p.Limit = limit
			}
		}
	}

	if pageStr := strings.TrimSpace(q.Get("page")); pageStr != "" {
		if page, err := strconv.Atoi(pageStr); err == nil && page > 0 {
			p.Page = page
		}
	}

	p.Offset = (p.Page - 1) * p.Limit
	return p
}

// ComputeWindow fills the metadata when the total is unknown. fetched is the
// number of rows returned for a query that asked for Limit+1 rows.
func (p *Pagination) ComputeWindow(fetched int) {
	p.HasPrev = p.Page > 1
	p.HasNext = fetched > p.Limit
}

// ParseCoordinates reads ?lat=..&lng=... Both absent yields nil; one without
// the other, a non-number or an out of range value is an error.
func ParseCoordinates(q url.Values) (*geo.Point, error) {
	latStr := strings.TrimSpace(q.Get("lat"))
	lngStr := strings.TrimSpace(q.Get("lng"))
	if latStr == "" && lngStr == "" {
		return nil, nil
	}
	if latStr == "" || lngStr == "" {
		return nil, ErrInvalidCoordinates
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || math.IsNaN(lat) || lat < -90 || lat > 90 {
		return nil, ErrInvalidCoordinates
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil || math.IsNaN(lng) || lng < -180 || lng > 180 {
		return nil, ErrInvalidCoordinates
	}
	return &geo.Point{Latitude: lat, Longitude: lng}, nil
}
