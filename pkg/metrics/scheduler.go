package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SchedulerJobMetrics records metadata for the per-tick scheduler jobs.
type SchedulerJobMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	ticks    prometheus.Counter
}

// NewSchedulerJobMetrics registers the scheduler metrics on the provided registerer.
func NewSchedulerJobMetrics(reg prometheus.Registerer) *SchedulerJobMetrics {
	if reg == nil {
		return &SchedulerJobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scheduler_job_duration_seconds",
		Help:    "Duration of scheduler jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_job_success",
		Help: "Successful scheduler job executions.",
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_job_failure",
		Help: "Failed scheduler job executions.",
	}, []string{"job"})
	ticks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_ticks_total",
		Help: "Completed scheduler tick cycles.",
	})
	reg.MustRegister(duration, success, failure, ticks)
	return &SchedulerJobMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		ticks:    ticks,
	}
}

// ObserveDuration records the duration for the named job.
func (c *SchedulerJobMetrics) ObserveDuration(job string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named job.
func (c *SchedulerJobMetrics) IncSuccess(job string) {
	if c == nil || c.success == nil {
		return
	}
	c.success.WithLabelValues(normalizeLabel(job)).Inc()
}

// IncFailure increments the failure counter for the named job.
func (c *SchedulerJobMetrics) IncFailure(job string) {
	if c == nil || c.failure == nil {
		return
	}
	c.failure.WithLabelValues(normalizeLabel(job)).Inc()
}

// IncTick increments the completed-tick counter.
func (c *SchedulerJobMetrics) IncTick() {
	if c == nil || c.ticks == nil {
		return
	}
	c.ticks.Inc()
}

func normalizeLabel(job string) string {
	if job == "" {
		return "unknown"
	}
	return job
}
