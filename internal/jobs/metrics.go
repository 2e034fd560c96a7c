package jobmetrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for background jobs.
type Metrics struct {
	runs     *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
	drifts   prometheus.Gauge
	costs    *prometheus.CounterVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the job metrics against the provided registerer. When the
// registerer is nil the default Prometheus registerer is used.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		defaultOnce.Do(func() {
			defaultMetrics = buildMetrics(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return buildMetrics(registerer)
}

// Tracker provides lifecycle instrumentation helpers for a single job run.
type Tracker struct {
	metrics *Metrics
	job     string
	start   time.Time
}

// Track spawns a tracker for the given job name.
func (m *Metrics) Track(job string) *Tracker {
	if m == nil {
		return &Tracker{job: job, start: time.Now()}
	}
	return &Tracker{metrics: m, job: job, start: time.Now()}
}

// End finalises the tracker, recording duration, success/failure counts and
// returning the provided error untouched.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil || t.job == "" {
		return err
	}
	status := "success"
	if err != nil {
		status = "failure"
		t.metrics.failures.WithLabelValues(t.job).Inc()
	}
	t.metrics.runs.WithLabelValues(t.job, status).Inc()
	t.metrics.duration.WithLabelValues(t.job).Observe(time.Since(t.start).Seconds())
	return err
}

// SetStockDrifts publishes the number of inputs whose stock disagrees with
// their latest registry.
func (m *Metrics) SetStockDrifts(count int) {
	if m == nil {
		return
	}
	m.drifts.Set(float64(count))
}

// AddAverageCosts counts average cost rows written for a reference month.
func (m *Metrics) AddAverageCosts(month string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.costs.WithLabelValues(month).Add(float64(count))
}

func buildMetrics(registerer prometheus.Registerer) *Metrics {
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nutri_jobs_total",
		Help: "Total job executions partitioned by job name and status.",
	}, []string{"job", "status"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nutri_jobs_failures_total",
		Help: "Total failures observed for background jobs.",
	}, []string{"job"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nutri_job_duration_seconds",
		Help:    "Duration in seconds of background job executions.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	drifts := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "nutri_stock_drift_inputs",
		Help: "Inputs whose current stock differs from the closing stock of their latest registry.",
	})
	costs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nutri_average_costs_recalculated_total",
		Help: "Average cost rows recalculated per reference month.",
	}, []string{"month"})
	registerer.MustRegister(runs, failures, duration, drifts, costs)
	return &Metrics{runs: runs, failures: failures, duration: duration, drifts: drifts, costs: costs}
}
