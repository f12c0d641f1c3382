// Package metrics adapts momo.Metrics to Prometheus client metrics,
// exposed over /metrics by the admin HTTP API via promhttp.Handler.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/YaniKolev/momo-scheduler/internal/momo"
)

// PrometheusMetrics implements momo.Metrics over a dedicated
// prometheus.Registry, so a host application can mount it alongside
// its own metrics without name collisions.
type PrometheusMetrics struct {
	running          *prometheus.GaugeVec
	unexpectedErrors *prometheus.CounterVec
	leader           *prometheus.GaugeVec
	handlerDuration  *prometheus.HistogramVec
}

// New registers the momo metric set on registry and returns the
// resulting PrometheusMetrics.
func New(registry prometheus.Registerer) *PrometheusMetrics {
	m := &PrometheusMetrics{
		running: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "momo",
			Name:      "running_executions",
			Help:      "Current number of in-flight executions for a job, across all instances.",
		}, []string{"job_name"}),
		unexpectedErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "momo",
			Name:      "unexpected_errors_total",
			Help:      "Count of unexpected errors caught during a job's tick loop.",
		}, []string{"job_name"}),
		leader: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "momo",
			Name:      "schedule_is_leader",
			Help:      "1 if this instance currently holds leadership for scheduleName, else 0.",
		}, []string{"schedule_name"}),
		handlerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "momo",
			Name:      "handler_duration_seconds",
			Help:      "Duration of job handler invocations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"job_name"}),
	}

	registry.MustRegister(m.running, m.unexpectedErrors, m.leader, m.handlerDuration)
	return m
}

func (m *PrometheusMetrics) SetRunning(jobName string, running int) {
	m.running.WithLabelValues(jobName).Set(float64(running))
}

func (m *PrometheusMetrics) IncUnexpectedError(jobName string) {
	m.unexpectedErrors.WithLabelValues(jobName).Inc()
}

func (m *PrometheusMetrics) SetLeader(scheduleName string, isLeader bool) {
	value := 0.0
	if isLeader {
		value = 1.0
	}
	m.leader.WithLabelValues(scheduleName).Set(value)
}

func (m *PrometheusMetrics) ObserveHandlerDuration(jobName string, d time.Duration) {
	m.handlerDuration.WithLabelValues(jobName).Observe(d.Seconds())
}

var _ momo.Metrics = (*PrometheusMetrics)(nil)
