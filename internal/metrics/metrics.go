package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission and registration outcome labels. Failures are labelled with
// their error kind instead.
const (
	OutcomeRecorded         = "recorded"
	OutcomeUnrecognized     = "unrecognized"
	OutcomeNoFace           = "no_face"
	OutcomeLocationRejected = "location_rejected"
	OutcomeRegistered       = "registered"
)

// Metrics provides observability for the attendance pipeline.
type Metrics struct {
	// Attendance submissions by outcome
	Submissions *prometheus.CounterVec

	// Registrations by outcome
	Registrations *prometheus.CounterVec

	// Events moved from the active ledger into the archive
	RolloverMoved prometheus.Counter

	// Face extraction latency
	ExtractLatency prometheus.Histogram
}

// New creates a Metrics instance registered with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a Metrics instance registered with reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Submissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_submissions_total",
			Help: "Total attendance submissions by outcome",
		}, []string{"outcome"}),

		Registrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "registrations_total",
			Help: "Total registrations by outcome",
		}, []string{"outcome"}),

		RolloverMoved: f.NewCounter(prometheus.CounterOpts{
			Name: "rollover_moved_total",
			Help: "Total attendance events moved into the monthly archive",
		}),

		ExtractLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "extract_duration_seconds",
			Help:    "Duration of face template extraction",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}

// IncrementSubmission records an attendance submission outcome.
func (m *Metrics) IncrementSubmission(outcome string) {
	if m != nil {
		m.Submissions.WithLabelValues(outcome).Inc()
	}
}

// IncrementRegistration records a registration outcome.
func (m *Metrics) IncrementRegistration(outcome string) {
	if m != nil {
		m.Registrations.WithLabelValues(outcome).Inc()
	}
}

// AddRolloverMoved records events moved by a rollover.
func (m *Metrics) AddRolloverMoved(n int) {
	if m != nil && n > 0 {
		m.RolloverMoved.Add(float64(n))
	}
}

// ObserveExtractLatency records the duration of one extraction call.
func (m *Metrics) ObserveExtractLatency(d time.Duration) {
	if m != nil {
		m.ExtractLatency.Observe(d.Seconds())
	}
}
