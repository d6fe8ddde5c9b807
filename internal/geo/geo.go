package geo

import "math"

const (
	EarthRadiusKm = 6371.0

	// DefaultRadiusKm is the fixed search radius around a resolved place.
	DefaultRadiusKm = 30.0
)

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// Locatable is anything that may carry coordinates. Either value may be nil
// when the record has not been geocoded yet.
type Locatable interface {
	Coordinates() (lat, lng *float64)
}

// Distance returns the great-circle distance between a and b in kilometers
// using the haversine formula. NaN inputs produce NaN.
func Distance(a, b Point) float64 {
	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)
	deltaLat := toRadians(b.Latitude - a.Latitude)
	deltaLon := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}

// PointOf converts optional coordinates into a Point. Missing values become
// NaN so any distance computed from them is NaN as well.
func PointOf(l Locatable) Point {
	lat, lng := l.Coordinates()
	p := Point{Latitude: math.NaN(), Longitude: math.NaN()}
	if lat != nil {
		p.Latitude = *lat
	}
	if lng != nil {
		p.Longitude = *lng
	}
	return p
}

// DistanceTo is Distance from center to the item. Items without coordinates
// yield NaN.
func DistanceTo(item Locatable, center Point) float64 {
	return Distance(center, PointOf(item))
}

// WithinRadius keeps the items whose distance from center is <= radiusKm,
// preserving input order. Items without coordinates never pass because a NaN
// distance fails the comparison.
func WithinRadius[T Locatable](items []T, center Point, radiusKm float64) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if DistanceTo(item, center) <= radiusKm {
			out = append(out, item)
		}
	}
	return out
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
