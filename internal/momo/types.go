// Package momo implements the distributed, persistence-backed job
// scheduler core: schedule coordination (SchedulePing), per-job timers
// (JobScheduler), the execution admission controller (Executor), and
// the job registry input layer (Builder/Build).
package momo

import (
	"context"
	"time"
)

// ScheduleKind discriminates the two schedule variants a job can carry.
// Exactly one of Interval or Cron is populated on a Schedule for a
// given Kind; this is a tagged union, not a subclass hierarchy.
type ScheduleKind string

const (
	ScheduleKindInterval ScheduleKind = "interval"
	ScheduleKindCron     ScheduleKind = "cron"
)

// IntervalSchedule fires on a fixed cadence after an initial delay.
type IntervalSchedule struct {
	// Interval is the human-readable duration string as supplied by
	// the caller (e.g. "1 second", "5 minutes"), preserved verbatim
	// for persistence and re-parsed on each JobScheduler.Start.
	Interval string
	// FirstRunAfter is the delay between Start() and the first tick
	// when no prior execution has been recorded.
	FirstRunAfter time.Duration
}

// CronSchedule fires on cron instants.
type CronSchedule struct {
	CronExpression string
}

// Schedule is the tagged union described in DATA MODEL §3.
type Schedule struct {
	Kind     ScheduleKind
	Interval *IntervalSchedule
	Cron     *CronSchedule
}

// ResultStatus enumerates the outcomes an execution attempt can have.
type ResultStatus string

const (
	StatusFinished          ResultStatus = "finished"
	StatusFailed            ResultStatus = "failed"
	StatusMaxRunningReached ResultStatus = "maxRunningReached"
	StatusNotFound          ResultStatus = "notFound"
	StatusStopped           ResultStatus = "stopped"
)

// LastResult is the persisted outcome of the most recent execution
// attempt. Only finished and failed outcomes are ever persisted here;
// maxRunningReached/notFound/stopped are non-exceptional outcomes
// returned to the caller but never written to executionInfo.
type LastResult struct {
	Status        ResultStatus
	HandlerResult string
	Err           string
}

// ExecutionInfo is the optional execution-history subfield of a job
// definition. Only the Executor writes it; JobRepository.UpdateJob
// must preserve it across schedule/concurrency edits.
type ExecutionInfo struct {
	LastStarted  *time.Time
	LastFinished *time.Time
	LastResult   *LastResult
}

// JobDefinition is the persisted form of a job: everything
// JobRepository stores, keyed by Name.
type JobDefinition struct {
	Name          string
	Schedule      Schedule
	Concurrency   int
	MaxRunning    int
	ExecutionInfo *ExecutionInfo
}

// HandlerFunc is the user job handler invocation contract: it runs to
// completion or returns an error, producing an opaque result string
// the scheduler does not interpret.
type HandlerFunc func(ctx context.Context) (string, error)

// Job pairs a persisted definition with the in-process handler that
// implements it. Handlers are never persisted or reloaded from the
// datastore — only the schedule/concurrency fields are (Non-goal:
// dynamic handler code loading).
type Job struct {
	JobDefinition
	Handler HandlerFunc
}

// JobResult is the discriminated outcome of one execution attempt,
// returned from Executor.Execute and JobScheduler.ExecuteOnce.
type JobResult struct {
	Status        ResultStatus
	HandlerResult string
	Err           string
}

// SchedulerStatus is the runtime-only subfield GetJobDescription
// attaches when a JobScheduler is started.
type SchedulerStatus struct {
	Schedule Schedule
	Running  int
}

// JobDescription is a job's persisted definition plus, only when its
// JobScheduler is started, the live scheduler status.
type JobDescription struct {
	JobDefinition
	SchedulerStatus *SchedulerStatus
}
