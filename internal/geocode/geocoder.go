// Package geocode resolves free-text place names to coordinates through a
// Nominatim-compatible search endpoint.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"foodspot/internal/geo"
	"foodspot/internal/metrics"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org/search"
	DefaultRegion    = "Kerala, India"
	defaultUserAgent = "foodspot-api/1.0"
	bodyReadLimit    = 64 << 10
)

// ErrNotFound covers every failed lookup: no match, transport errors, bad
// responses and an open breaker.
var ErrNotFound = errors.New("place not found")

var errNoResults = errors.New("no results")

type Recorder interface {
	GeocodeLookup(result string)
}

type Geocoder struct {
	httpClient *http.Client
	baseURL    string
	region     string
	userAgent  string
	cache      Cache
	recorder   Recorder
	logger     *zap.SugaredLogger
	breaker    *gobreaker.CircuitBreaker[geo.Point]
	group      singleflight.Group
}

type Option func(*Geocoder)

func WithHTTPClient(client *http.Client) Option {
	return func(g *Geocoder) {
		if client != nil {
			g.httpClient = client
		}
	}
}

func WithBaseURL(baseURL string) Option {
	return func(g *Geocoder) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			g.baseURL = trimmed
		}
	}
}

// WithRegion sets the qualifier appended to every query. An empty region
// disables it.
func WithRegion(region string) Option {
	return func(g *Geocoder) {
		g.region = strings.TrimSpace(region)
	}
}

func WithUserAgent(ua string) Option {
	return func(g *Geocoder) {
		if ua != "" {
			g.userAgent = ua
		}
	}
}

func WithCache(c Cache) Option {
	return func(g *Geocoder) {
		if c != nil {
			g.cache = c
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(g *Geocoder) {
		g.recorder = r
	}
}

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(g *Geocoder) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// BreakerSettings controls when lookups stop reaching the endpoint.
type BreakerSettings struct {
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

func WithBreaker(s BreakerSettings) Option {
	return func(g *Geocoder) {
		g.breaker = newBreaker(s, g)
	}
}

func newBreaker(s BreakerSettings, g *Geocoder) *gobreaker.CircuitBreaker[geo.Point] {
	if s.FailureThreshold == 0 {
		s.FailureThreshold = 5
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = 30 * time.Second
	}
	return gobreaker.NewCircuitBreaker[geo.Point](gobreaker.Settings{
		Name:        "geocoder",
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.FailureThreshold
		},
		// an unknown place is a healthy answer
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errNoResults)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			g.logger.Warnw("geocoder breaker state change", "from", from.String(), "to", to.String())
		},
	})
}

func New(opts ...Option) *Geocoder {
	g := &Geocoder{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    DefaultBaseURL,
		region:     DefaultRegion,
		userAgent:  defaultUserAgent,
		cache:      NewMemoryCache(),
		logger:     zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	if g.breaker == nil {
		g.breaker = newBreaker(BreakerSettings{}, g)
	}
	return g
}

func (g *Geocoder) record(result string) {
	if g.recorder != nil {
		g.recorder.GeocodeLookup(result)
	}
}

// Resolve returns the coordinates of the first match for place. Successful
// lookups are cached by normalized query; failures are not.
func (g *Geocoder) Resolve(ctx context.Context, place string) (geo.Point, error) {
	key := Normalize(place)
	if key == "" {
		g.record(metrics.GeocodeNotFound)
		return geo.Point{}, ErrNotFound
	}

	if p, ok, err := g.cache.Get(ctx, key); err != nil {
		g.logger.Warnw("geocode cache read failed", "query", key, "error", err)
	} else if ok {
		g.record(metrics.GeocodeCacheHit)
		return p, nil
	}

	// Collapsed callers share this lookup, so it ignores any one caller's
	// cancellation.
	lookupCtx := context.WithoutCancel(ctx)
	ch := g.group.DoChan(key, func() (any, error) {
		return g.breaker.Execute(func() (geo.Point, error) {
			return g.lookup(lookupCtx, key)
		})
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		g.record(metrics.GeocodeNotFound)
		return geo.Point{}, ErrNotFound
	}

	v, err := res.Val, res.Err
	if err != nil {
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			g.record(metrics.GeocodeBreakerOpen)
		default:
			g.record(metrics.GeocodeNotFound)
		}
		g.logger.Debugw("geocode lookup failed", "query", key, "error", err)
		return geo.Point{}, ErrNotFound
	}

	p := v.(geo.Point)
	if err := g.cache.Set(ctx, key, p); err != nil {
		g.logger.Warnw("geocode cache write failed", "query", key, "error", err)
	}
	g.record(metrics.GeocodeResolved)
	return p, nil
}

type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (g *Geocoder) query(q string) string {
	if g.region == "" {
		return q
	}
	return q + ", " + g.region
}

func (g *Geocoder) lookup(ctx context.Context, q string) (geo.Point, error) {
	params := url.Values{}
	params.Set("q", g.query(q))
	params.Set("format", "json")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return geo.Point{}, fmt.Errorf("build geocode request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return geo.Point{}, fmt.Errorf("execute geocode request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return geo.Point{}, fmt.Errorf("geocode status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var results []searchResult
	if err := json.NewDecoder(io.LimitReader(resp.Body, bodyReadLimit)).Decode(&results); err != nil {
		return geo.Point{}, fmt.Errorf("decode geocode response: %w", err)
	}
	if len(results) == 0 {
		return geo.Point{}, errNoResults
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("parse latitude %q: %w", results[0].Lat, err)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("parse longitude %q: %w", results[0].Lon, err)
	}
	return geo.Point{Latitude: lat, Longitude: lng}, nil
}
