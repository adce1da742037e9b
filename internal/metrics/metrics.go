// Package metrics exposes Prometheus collectors for catalog ingestion, HTTP
// traffic and the recommendation service.
//
// Collectors live on a private registry so tests can create independent
// instances. Serve them with Handler:
//
//	m := metrics.New()
//	store.SetObserver(m)
//	r.Handle("/metrics", m.Handler())
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/recipebox/internal/catalog"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "recipebox"

// Metrics holds every collector the service reports.
type Metrics struct {
	registry *prometheus.Registry

	// Catalog ingestion
	IngestTotal       *prometheus.CounterVec
	IngestDuration    prometheus.Histogram
	CatalogRecords    prometheus.Gauge
	CatalogDropped    prometheus.Gauge
	CatalogBytes      prometheus.Gauge
	CatalogLastLoaded prometheus.Gauge

	// HTTP
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Recommendations
	RecommendTotal     *prometheus.CounterVec
	RecommendDuration  *prometheus.HistogramVec
	BreakerState       *prometheus.GaugeVec
	BreakerTransitions *prometheus.CounterVec
}

// New creates the collectors on a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		IngestTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "catalog_ingest_total",
				Help:      "Catalog reload attempts by result (changed, unchanged, error)",
			},
			[]string{"source", "result"},
		),
		IngestDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "catalog_ingest_duration_seconds",
				Help:      "Time to fetch and ingest the catalog",
				Buckets:   prometheus.DefBuckets,
			},
		),
		CatalogRecords: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "catalog_records",
				Help:      "Recipes in the active catalog snapshot",
			},
		),
		CatalogDropped: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "catalog_dropped_rows",
				Help:      "Data rows dropped by the last ingestion (short, blank or over the row cap)",
			},
		),
		CatalogBytes: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "catalog_bytes",
				Help:      "Size of the last fetched catalog text",
			},
		),
		CatalogLastLoaded: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "catalog_last_loaded_timestamp_seconds",
				Help:      "Unix time of the last successful ingestion",
			},
		),

		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by route and status",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		RecommendTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "recommendations_total",
				Help:      "Recommendation requests by source (remote, fallback) and result",
			},
			[]string{"source", "result"},
		),
		RecommendDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "recommendation_duration_seconds",
				Help:      "Recommendation latency by source",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"source"},
		),
		BreakerState: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_state",
				Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"name"},
		),
		BreakerTransitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_transitions_total",
				Help:      "Circuit breaker state transitions",
			},
			[]string{"name", "from", "to"},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveIngest implements catalog.Observer.
func (m *Metrics) ObserveIngest(stats catalog.IngestStats) {
	m.IngestDuration.Observe(stats.Duration.Seconds())

	switch {
	case stats.Err != nil:
		m.IngestTotal.WithLabelValues(stats.Source, "error").Inc()
		return
	case !stats.Changed:
		m.IngestTotal.WithLabelValues(stats.Source, "unchanged").Inc()
		return
	}

	m.IngestTotal.WithLabelValues(stats.Source, "changed").Inc()
	m.CatalogRecords.Set(float64(stats.Records))
	m.CatalogDropped.Set(float64(stats.Dropped()))
	m.CatalogBytes.Set(float64(stats.Bytes))
	m.CatalogLastLoaded.Set(float64(time.Now().Unix()))
}

// ObserveRecommendation implements recommend.Observer.
func (m *Metrics) ObserveRecommendation(source string, d time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m.RecommendTotal.WithLabelValues(source, result).Inc()
	m.RecommendDuration.WithLabelValues(source).Observe(d.Seconds())
}

// BreakerStateChanged records a circuit breaker transition.
func (m *Metrics) BreakerStateChanged(name, from, to string) {
	m.BreakerState.WithLabelValues(name).Set(breakerStateValue(to))
	m.BreakerTransitions.WithLabelValues(name, from, to).Inc()
}

func breakerStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}

// Middleware records request counts and latency labelled by chi route
// pattern, so /api/recipes/{id} is one series regardless of the ID.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
