// Package metrics records resolution metrics with the Prometheus client.
package metrics

import (
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"go.trai.ch/accord/internal/core/domain"
	"go.trai.ch/zerr"
)

// Recorder implements ports.Metrics on a private registry.
type Recorder struct {
	registry   *prometheus.Registry
	conflicts  *prometheus.CounterVec
	attempts   *prometheus.CounterVec
	duration   prometheus.Histogram
	components prometheus.Gauge
}

// New creates a Recorder with its collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		conflicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accord_conflicts_total",
				Help: "Number of conflicts by kind, severity and final status.",
			},
			[]string{"kind", "severity", "status"},
		),
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "accord_strategy_attempts_total",
				Help: "Number of strategy evaluations on conflicts by strategy and result.",
			},
			[]string{"strategy", "result"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "accord_resolution_duration_seconds",
				Help:    "Time taken to resolve a set of requirements.",
				Buckets: prometheus.DefBuckets,
			},
		),
		components: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "accord_components",
				Help: "Number of independent components in the last resolution.",
			},
		),
	}
	r.registry.MustRegister(r.conflicts, r.attempts, r.duration, r.components)
	return r
}

// ObserveConflict counts a conflict in its final state.
func (r *Recorder) ObserveConflict(c *domain.Conflict) {
	r.conflicts.WithLabelValues(string(c.Kind), c.Severity.String(), string(c.Status)).Inc()
}

// ObserveAttempt counts one strategy evaluation.
func (r *Recorder) ObserveAttempt(strategy string, succeeded bool) {
	result := "failed"
	if succeeded {
		result = "succeeded"
	}
	r.attempts.WithLabelValues(strategy, result).Inc()
}

// ObserveRun records the duration and partitioning of a resolution run.
func (r *Recorder) ObserveRun(d time.Duration, components int) {
	r.duration.Observe(d.Seconds())
	r.components.Set(float64(components))
}

// WriteText writes every metric in the Prometheus text exposition format.
func (r *Recorder) WriteText(w io.Writer) error {
	families, err := r.registry.Gather()
	if err != nil {
		return zerr.Wrap(err, "failed to gather metrics")
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return zerr.Wrap(err, "failed to write metrics")
		}
	}
	return nil
}
