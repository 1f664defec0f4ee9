// Package metrics defines the Prometheus metric collectors used by the crawler
// and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	GraphQueriesTotal    *prometheus.CounterVec
	PeopleIndexedTotal   prometheus.Counter
	BranchesTotal        prometheus.Counter
	CrawlDuration        *prometheus.HistogramVec
	IndexSavesTotal      *prometheus.CounterVec
	IndexDocuments       *prometheus.GaugeVec
	SearchesTotal        *prometheus.CounterVec
	ResolverCacheTotal   *prometheus.CounterVec
}

// New creates all collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 15, 60, 300, 900},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		GraphQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "graph_queries_total",
				Help: "Graph queries issued by shape and status (ok, error, rejected).",
			},
			[]string{"shape", "status"},
		),
		PeopleIndexedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "crawl_people_indexed_total",
				Help: "Total person entities handed to the indexer.",
			},
		),
		BranchesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "crawl_branches_total",
				Help: "Total recursive branches taken by crawls.",
			},
		),
		CrawlDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crawl_duration_seconds",
				Help:    "Crawl duration in seconds by mode (country, generic).",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
			},
			[]string{"mode"},
		),
		IndexSavesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "index_saves_total",
				Help: "Index file rewrites by status.",
			},
			[]string{"status"},
		),
		IndexDocuments: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "index_documents",
				Help: "Registered documents per subject index.",
			},
			[]string{"subject"},
		),
		SearchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "searches_total",
				Help: "Keyword searches by outcome (match, no_match, error).",
			},
			[]string{"outcome"},
		),
		ResolverCacheTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resolver_cache_total",
				Help: "Keyword resolution cache lookups by result (hit, miss).",
			},
			[]string{"result"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.GraphQueriesTotal,
		m.PeopleIndexedTotal,
		m.BranchesTotal,
		m.CrawlDuration,
		m.IndexSavesTotal,
		m.IndexDocuments,
		m.SearchesTotal,
		m.ResolverCacheTotal,
	)

	return m
}

func (m *Metrics) ObserveQuery(shape, status string) {
	if m == nil {
		return
	}
	m.GraphQueriesTotal.WithLabelValues(shape, status).Inc()
}

func (m *Metrics) PersonIndexed() {
	if m == nil {
		return
	}
	m.PeopleIndexedTotal.Inc()
}

func (m *Metrics) Branched() {
	if m == nil {
		return
	}
	m.BranchesTotal.Inc()
}

func (m *Metrics) ObserveCrawl(mode string, d time.Duration) {
	if m == nil {
		return
	}
	m.CrawlDuration.WithLabelValues(mode).Observe(d.Seconds())
}

func (m *Metrics) IndexSaved(status string) {
	if m == nil {
		return
	}
	m.IndexSavesTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) SetDocuments(subject string, n int) {
	if m == nil {
		return
	}
	m.IndexDocuments.WithLabelValues(subject).Set(float64(n))
}

func (m *Metrics) Searched(outcome string) {
	if m == nil {
		return
	}
	m.SearchesTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.ResolverCacheTotal.WithLabelValues(result).Inc()
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
