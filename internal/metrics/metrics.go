// Package metrics exposes Prometheus instrumentation for the access core.
package metrics

import (
	"net/http" // Handler type
	"time"     // Durations

	"github.com/prometheus/client_golang/prometheus"          // Metric types
	"github.com/prometheus/client_golang/prometheus/promhttp" // Exposition handler
)

// Recorder collects access and ledger metrics. A nil *Recorder records nothing.
type Recorder struct {
	registry       *prometheus.Registry
	accessRequests *prometheus.CounterVec
	accessDuration prometheus.Histogram
	ledgerEntries  *prometheus.CounterVec
	conflicts      prometheus.Counter
}

// Option configures a Recorder
type Option func(*options)

type options struct {
	namespace string
	buckets   []float64
}

// WithNamespace overrides the metric namespace
func WithNamespace(ns string) Option {
	return func(o *options) {
		if ns != "" {
			o.namespace = ns
		}
	}
}

// WithBuckets overrides the latency histogram buckets
func WithBuckets(b []float64) Option {
	return func(o *options) {
		if len(b) > 0 {
			o.buckets = b
		}
	}
}

// New creates a Recorder on its own registry
func New(opts ...Option) *Recorder {
	o := options{namespace: "race_access", buckets: prometheus.DefBuckets}
	for _, opt := range opts {
		opt(&o)
	}
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		accessRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace,
			Name:      "requests_total",
			Help:      "Access requests by outcome reason.",
		}, []string{"reason"}),
		accessDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: o.namespace,
			Name:      "duration_seconds",
			Help:      "Latency of access requests.",
			Buckets:   o.buckets,
		}),
		ledgerEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace,
			Name:      "ledger_entries_total",
			Help:      "Ledger entries appended by type.",
		}, []string{"type"}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: o.namespace,
			Name:      "conflicts_total",
			Help:      "Optimistic concurrency conflicts retried.",
		}),
	}
	r.registry.MustRegister(r.accessRequests, r.accessDuration, r.ledgerEntries, r.conflicts)
	return r
}

// Access records one access request outcome
func (r *Recorder) Access(reason string, took time.Duration) {
	if r == nil {
		return
	}
	r.accessRequests.WithLabelValues(reason).Inc()
	r.accessDuration.Observe(took.Seconds())
}

// LedgerEntry records one appended entry
func (r *Recorder) LedgerEntry(entryType string) {
	if r == nil {
		return
	}
	r.ledgerEntries.WithLabelValues(entryType).Inc()
}

// Conflict records one retried optimistic conflict
func (r *Recorder) Conflict() {
	if r == nil {
		return
	}
	r.conflicts.Inc()
}

// Registry returns the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
