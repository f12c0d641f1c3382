package momo

import (
	"context"
	"time"
)

// AddExecutionResult is the outcome of ExecutionsRepository.AddExecution.
type AddExecutionResult struct {
	Added   bool
	Running int
}

// LivenessRow is one instance's liveness record, surfaced by
// ListLiveness for cluster-status reporting.
type LivenessRow struct {
	ScheduleID string
	LastPing   time.Time
	IsActive   bool
}

// ExecutionsRepository is the C1 contract (§6.1): tracks live
// instances and running executions in the shared datastore. All
// mutations are atomic upserts or conditional writes; no in-process
// locking backs this interface.
type ExecutionsRepository interface {
	// AddExecution atomically increments the running count for
	// (scheduleID, jobName) unless maxRunning > 0 and the global count
	// across all schedule IDs is already at or above maxRunning.
	AddExecution(ctx context.Context, scheduleID, jobName string, maxRunning int) (AddExecutionResult, error)
	// RemoveExecution decrements the running count, floored at 0.
	RemoveExecution(ctx context.Context, scheduleID, jobName string) error
	// CountRunningExecutions sums the running count for jobName across
	// all schedule IDs.
	CountRunningExecutions(ctx context.Context, jobName string) (int, error)
	// RemoveJob deletes all running records for (scheduleID, jobName).
	RemoveJob(ctx context.Context, scheduleID, jobName string) error
	// Ping upserts this instance's liveness timestamp: it creates the
	// row on the first call and refreshes last_ping (and
	// scheduleName, in case it changed) on every later one. Every
	// instance pings on its own behalf regardless of leadership; only
	// SetActiveSchedule's write is conditional.
	Ping(ctx context.Context, scheduleID, scheduleName string) error
	// Clean deletes liveness rows and execution rows whose scheduleID
	// has gone stale (no liveness row within 2*pingInterval).
	Clean(ctx context.Context, pingInterval time.Duration) error
	// IsActiveSchedule reports whether no live, non-stale liveness row
	// holding leadership (IsActive) exists for scheduleName other than
	// our own. Non-leader rows of other instances do not count.
	IsActiveSchedule(ctx context.Context, scheduleID, scheduleName string, pingInterval time.Duration) (bool, error)
	// SetActiveSchedule attempts the conditional upsert that claims
	// leadership for scheduleName; it succeeds only if no other
	// non-stale row for that name holds leadership (IsActive), or the
	// active row is ours.
	SetActiveSchedule(ctx context.Context, scheduleID, scheduleName string, pingInterval time.Duration) (bool, error)
	// DeleteOne removes this instance's liveness row.
	DeleteOne(ctx context.Context, scheduleID string) error
	// ListLiveness returns every live, non-stale liveness row for
	// scheduleName, used to report cluster membership.
	ListLiveness(ctx context.Context, scheduleName string, pingInterval time.Duration) ([]LivenessRow, error)
}

// JobFilter narrows JobRepository.Find / Delete.
type JobFilter struct {
	Name string
}

// JobUpdate is a partial edit applied by JobRepository.UpdateJob.
// ExecutionInfo is deliberately absent: updateJob must never touch it.
type JobUpdate struct {
	Schedule    *Schedule
	Concurrency *int
	MaxRunning  *int
}

// JobRepository is the C2 contract (§6.2): stores job definitions and
// last-execution info.
type JobRepository interface {
	FindOne(ctx context.Context, name string) (*JobDefinition, error)
	Find(ctx context.Context, filter JobFilter) ([]JobDefinition, error)
	Save(ctx context.Context, job *JobDefinition) error
	// Define upserts job keyed by Name. If duplicate rows for Name
	// already exist, the row with the most recent
	// ExecutionInfo.LastFinished survives; the rest are deleted, and
	// the new schedule/concurrency fields are merged into the
	// survivor without touching its ExecutionInfo. See §4.6.
	Define(ctx context.Context, job *JobDefinition) error
	// UpdateJob applies a partial edit, preserving ExecutionInfo.
	UpdateJob(ctx context.Context, name string, update JobUpdate) error
	Check(ctx context.Context, name string) (*ExecutionInfo, error)
	List(ctx context.Context) ([]JobDefinition, error)
	Delete(ctx context.Context, filter JobFilter) error

	// RecordStart and RecordFinish are the Executor-only write path
	// for ExecutionInfo (§4.3 steps 2, 4, 5). They exist separately
	// from UpdateJob because UpdateJob's contract is to never touch
	// ExecutionInfo.
	RecordStart(ctx context.Context, name string, startedAt time.Time) error
	RecordFinish(ctx context.Context, name string, finishedAt time.Time, result LastResult) error
}
