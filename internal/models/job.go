// Package models holds the GORM row types backing momo.JobRepository
// and momo.ExecutionsRepository. These are a storage-layer detail the
// core package never imports; internal/repository converts between
// them and momo's domain types.
package models

import "time"

// MomoJob is the persisted form of a momo.JobDefinition, keyed by
// Name. Schedule is stored as a tagged union flattened across
// nullable columns rather than a subclass hierarchy, mirroring
// momo.Schedule.
type MomoJob struct {
	Name         string `gorm:"type:varchar(255);primaryKey"`
	ScheduleKind string `gorm:"type:varchar(20);not null;column:schedule_kind"`

	IntervalExpr    string `gorm:"type:varchar(100);column:interval_expr"`
	FirstRunAfterMs int64  `gorm:"column:first_run_after_ms"`
	CronExpr        string `gorm:"type:varchar(100);column:cron_expr"`

	Concurrency int `gorm:"not null;default:1"`
	MaxRunning  int `gorm:"not null;default:0"`

	LastStarted  *time.Time `gorm:"column:last_started"`
	LastFinished *time.Time `gorm:"column:last_finished"`

	LastResultStatus        string `gorm:"type:varchar(20);column:last_result_status"`
	LastResultHandlerResult string `gorm:"type:text;column:last_result_handler_result"`
	LastResultErr           string `gorm:"type:text;column:last_result_err"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for GORM.
func (MomoJob) TableName() string {
	return "momo_jobs"
}

// MomoExecution tracks the running-execution count for one
// (scheduleID, jobName) pair. Multiple instances of the same job
// family each hold their own row; momo.ExecutionsRepository sums
// across rows to get the cluster-wide running count.
type MomoExecution struct {
	ScheduleID string    `gorm:"type:varchar(64);primaryKey;column:schedule_id"`
	JobName    string    `gorm:"type:varchar(255);primaryKey;column:job_name;index:idx_momo_executions_job_name"`
	Running    int       `gorm:"not null;default:0"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for GORM.
func (MomoExecution) TableName() string {
	return "momo_executions"
}

// MomoScheduleLiveness is one process instance's heartbeat row. Every
// instance sharing a ScheduleName has one, refreshed on every ping;
// IsActive marks the single row among them currently holding
// leadership. The process that successfully flips IsActive on its own
// row, while no other non-stale row for the same ScheduleName already
// has it set, becomes the active leader.
type MomoScheduleLiveness struct {
	ScheduleID   string    `gorm:"type:varchar(64);primaryKey;column:schedule_id"`
	ScheduleName string    `gorm:"type:varchar(255);not null;column:schedule_name;index:idx_momo_liveness_name"`
	LastPing     time.Time `gorm:"not null;column:last_ping"`
	IsActive     bool      `gorm:"not null;default:false;column:is_active"`
}

// TableName returns the table name for GORM.
func (MomoScheduleLiveness) TableName() string {
	return "momo_schedule_liveness"
}
