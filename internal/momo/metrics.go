package momo

import "time"

// Metrics is an optional observability hook. momo's core never
// imports a metrics library directly; internal/metrics provides a
// Prometheus-backed implementation wired in by the host application.
type Metrics interface {
	SetRunning(jobName string, running int)
	IncUnexpectedError(jobName string)
	SetLeader(scheduleName string, isLeader bool)
	ObserveHandlerDuration(jobName string, d time.Duration)
}

type noopMetrics struct{}

// NewNoopMetrics returns a Metrics that does nothing.
func NewNoopMetrics() Metrics { return noopMetrics{} }

func (noopMetrics) SetRunning(string, int)                       {}
func (noopMetrics) IncUnexpectedError(string)                    {}
func (noopMetrics) SetLeader(string, bool)                       {}
func (noopMetrics) ObserveHandlerDuration(string, time.Duration) {}
