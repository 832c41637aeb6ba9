// Package metrics counts collection outcomes with Prometheus collectors and
// exports them in the text exposition format when a run ends.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for one run
type Metrics struct {
	registry *prometheus.Registry

	CandidatesTotal     *prometheus.CounterVec
	SavedTotal          *prometheus.CounterVec
	DuplicatesTotal     *prometheus.CounterVec
	FailuresTotal       *prometheus.CounterVec
	AdapterFailureTotal *prometheus.CounterVec
	SearchDuration      *prometheus.HistogramVec
	RunDuration         prometheus.Gauge
}

// New registers the run collectors on a private registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		CandidatesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rashset_candidates_total",
			Help: "Image URLs returned by the search sources.",
		}, []string{"source", "label"}),
		SavedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rashset_saved_total",
			Help: "Images written to the dataset.",
		}, []string{"source", "label"}),
		DuplicatesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rashset_duplicates_total",
			Help: "Candidates rejected because their fingerprint was already seen.",
		}, []string{"source", "label"}),
		FailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rashset_failures_total",
			Help: "Candidates skipped because of an error.",
		}, []string{"source", "kind"}), // kind: fetch, decode, hash, write
		AdapterFailureTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rashset_search_failures_total",
			Help: "Search requests that failed as a whole.",
		}, []string{"source"}),
		SearchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rashset_search_duration_seconds",
			Help:    "Duration of search requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		RunDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "rashset_run_duration_seconds",
			Help: "Wall time of the last collection run.",
		}),
	}
}

// Registry returns the registry holding the run collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Candidate(source, label string) {
	m.CandidatesTotal.WithLabelValues(source, label).Inc()
}

func (m *Metrics) Saved(source, label string) {
	m.SavedTotal.WithLabelValues(source, label).Inc()
}

func (m *Metrics) Duplicate(source, label string) {
	m.DuplicatesTotal.WithLabelValues(source, label).Inc()
}

func (m *Metrics) Failed(source, kind string) {
	m.FailuresTotal.WithLabelValues(source, kind).Inc()
}

func (m *Metrics) SearchFailed(source string) {
	m.AdapterFailureTotal.WithLabelValues(source).Inc()
}

func (m *Metrics) SearchFinished(source string, d time.Duration) {
	m.SearchDuration.WithLabelValues(source).Observe(d.Seconds())
}

func (m *Metrics) RunFinished(d time.Duration) {
	m.RunDuration.Set(d.Seconds())
}

// WriteTextfile writes all collectors to path for a node_exporter textfile
// collector. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}
