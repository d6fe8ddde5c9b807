package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Geocode lookup results.
const (
	GeocodeResolved    = "resolved"
	GeocodeCacheHit    = "cache_hit"
	GeocodeNotFound    = "not_found"
	GeocodeBreakerOpen = "breaker_open"
)

// Metrics groups the collectors the API exports on /v1/metrics. A nil
// *Metrics, or one built on a nil registerer, records nothing.
type Metrics struct {
	geocode     *prometheus.CounterVec
	toggles     *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec
	jobFailure  *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	geocode := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "foodspot_geocode_lookups_total",
		Help: "Geocoder lookups by result.",
	}, []string{"result"})
	toggles := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "foodspot_toggle_outcomes_total",
		Help: "Relation toggles by kind and terminal state.",
	}, []string{"kind", "state"})
	jobDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "foodspot_job_duration_seconds",
		Help:    "Duration of background jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	jobFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "foodspot_job_failures_total",
		Help: "Failed background job runs.",
	}, []string{"job"})
	reg.MustRegister(geocode, toggles, jobDuration, jobFailure)
	return &Metrics{
		geocode:     geocode,
		toggles:     toggles,
		jobDuration: jobDuration,
		jobFailure:  jobFailure,
	}
}

func (m *Metrics) GeocodeLookup(result string) {
	if m == nil || m.geocode == nil {
		return
	}
	m.geocode.WithLabelValues(normalizeLabel(result)).Inc()
}

func (m *Metrics) ToggleOutcome(kind, state string) {
	if m == nil || m.toggles == nil {
		return
	}
	m.toggles.WithLabelValues(normalizeLabel(kind), normalizeLabel(state)).Inc()
}

// ObserveJob records one run of a background job.
func (m *Metrics) ObserveJob(job string, duration time.Duration, err error) {
	if m == nil || m.jobDuration == nil {
		return
	}
	job = normalizeLabel(job)
	m.jobDuration.WithLabelValues(job).Observe(duration.Seconds())
	if err != nil {
		m.jobFailure.WithLabelValues(job).Inc()
	}
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
