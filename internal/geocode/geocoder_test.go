package geocode

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"foodspot/internal/geo"
	"foodspot/internal/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (r *countingRecorder) GeocodeLookup(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = map[string]int{}
	}
	r.counts[result]++
}

func (r *countingRecorder) get(result string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[result]
}

func TestResolveSendsRegionQualifiedQuery(t *testing.T) {
	var got *http.Request
	g := New(WithHTTPClient(&http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		got = req
		return jsonResponse(http.StatusOK, `[{"lat":"9.9312","lon":"76.2673","display_name":"Kochi"}]`), nil
	})}))

	p, err := g.Resolve(context.Background(), "  Fort   Kochi ")
	require.NoError(t, err)
	assert.InDelta(t, 9.9312, p.Latitude, 1e-9)
	assert.InDelta(t, 76.2673, p.Longitude, 1e-9)

	require.NotNil(t, got)
	assert.Equal(t, http.MethodGet, got.Method)
	q := got.URL.Query()
	assert.Equal(t, "fort kochi, Kerala, India", q.Get("q"))
	assert.Equal(t, "json", q.Get("format"))
	assert.Equal(t, "1", q.Get("limit"))
	assert.NotEmpty(t, got.Header.Get("User-Agent"))
}

func TestResolveCachesCaseInsensitively(t *testing.T) {
	var calls atomic.Int32
	rec := &countingRecorder{}
	g := New(
		WithRecorder(rec),
		WithHTTPClient(&http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			calls.Add(1)
			return jsonResponse(http.StatusOK, `[{"lat":"10","lon":"76"}]`), nil
		})}),
	)

	for _, q := range []string{"Kochi", "kochi", " KOCHI "} {
		p, err := g.Resolve(context.Background(), q)
		require.NoError(t, err)
		assert.Equal(t, geo.Point{Latitude: 10, Longitude: 76}, p)
	}
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, rec.get(metrics.GeocodeResolved))
	assert.Equal(t, 2, rec.get(metrics.GeocodeCacheHit))
}

func TestResolveNotFoundCases(t *testing.T) {
	tests := []struct {
		name string
		rt   roundTripFunc
	}{
		{"empty result", func(*http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `[]`), nil
		}},
		{"server error", func(*http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusInternalServerError, `oops`), nil
		}},
		{"network error", func(*http.Request) (*http.Response, error) {
			return nil, errors.New("dial tcp: timeout")
		}},
		{"bad json", func(*http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{"lat":`), nil
		}},
		{"bad latitude", func(*http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `[{"lat":"north","lon":"76"}]`), nil
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := NewMemoryCache()
			g := New(WithCache(cache), WithHTTPClient(&http.Client{Transport: tt.rt}))

			_, err := g.Resolve(context.Background(), "Nowhere")
			assert.ErrorIs(t, err, ErrNotFound)
			assert.Zero(t, cache.Len())
		})
	}
}

func TestResolveDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	g := New(WithHTTPClient(&http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		calls.Add(1)
		return nil, errors.New("connection refused")
	})}))

	_, err := g.Resolve(context.Background(), "Kochi")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int32(1), calls.Load())
}

func TestResolveBlankQuery(t *testing.T) {
	g := New(WithHTTPClient(&http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})}))

	_, err := g.Resolve(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int32
	rec := &countingRecorder{}
	g := New(
		WithRecorder(rec),
		WithBreaker(BreakerSettings{FailureThreshold: 2, OpenTimeout: time.Minute}),
		WithHTTPClient(&http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			calls.Add(1)
			return nil, errors.New("unreachable")
		})}),
	)

	for _, q := range []string{"a place", "b place", "c place", "d place"} {
		_, err := g.Resolve(context.Background(), q)
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 2, rec.get(metrics.GeocodeBreakerOpen))
}

func TestEmptyResultsDoNotTripBreaker(t *testing.T) {
	var calls atomic.Int32
	g := New(
		WithBreaker(BreakerSettings{FailureThreshold: 1, OpenTimeout: time.Minute}),
		WithHTTPClient(&http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			calls.Add(1)
			return jsonResponse(http.StatusOK, `[]`), nil
		})}),
	)

	for _, q := range []string{"aa", "bb", "cc"} {
		_, err := g.Resolve(context.Background(), q)
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestConcurrentLookupsAreCollapsed(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	g := New(WithHTTPClient(&http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		calls.Add(1)
		<-release
		return jsonResponse(http.StatusOK, `[{"lat":"8.5","lon":"76.9"}]`), nil
	})}))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := g.Resolve(context.Background(), "Trivandrum")
			assert.NoError(t, err)
			assert.Equal(t, 8.5, p.Latitude)
		}()
	}

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.LessOrEqual(t, calls.Load(), int32(2))
}

func TestCanceledCallerDoesNotFailSharedLookup(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	rec := &countingRecorder{}
	g := New(
		WithRecorder(rec),
		WithBreaker(BreakerSettings{FailureThreshold: 1, OpenTimeout: time.Minute}),
		WithHTTPClient(&http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			if calls.Add(1) == 1 {
				close(started)
			}
			select {
			case <-release:
			case <-req.Context().Done():
				return nil, req.Context().Err()
			}
			return jsonResponse(http.StatusOK, `[{"lat":"11.25","lon":"75.78"}]`), nil
		})}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := g.Resolve(ctx, "Kozhikode")
		first <- err
	}()
	<-started

	type result struct {
		p   geo.Point
		err error
	}
	second := make(chan result, 1)
	go func() {
		p, err := g.Resolve(context.Background(), "kozhikode")
		second <- result{p, err}
	}()

	cancel()
	assert.ErrorIs(t, <-first, ErrNotFound)

	close(release)
	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, 11.25, got.p.Latitude)

	// the breaker saw a success, so the next place still reaches the endpoint
	_, err := g.Resolve(context.Background(), "Kannur")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Zero(t, rec.get(metrics.GeocodeBreakerOpen))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "fort kochi", Normalize("  Fort \t KOCHI "))
	assert.Equal(t, "", Normalize("   "))
}

func stubClient(body string) *http.Client {
	return &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, body), nil
	})}
}
