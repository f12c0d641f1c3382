package momo

import "fmt"

// Error-type tags attached to log entries, per ERROR HANDLING DESIGN §7.
const (
	ErrorTypeNonParsableInterval     = "nonParsableInterval"
	ErrorTypeNonParsableCronSchedule = "nonParsableCronSchedule"
	ErrorTypeScheduleJob             = "scheduleJob"
	ErrorTypeExecuteJob              = "executeJob"
	ErrorTypeInternalError           = "internalError"
)

// ErrNonParsableInterval is raised from JobScheduler.Start when a
// stored interval string fails to parse. This is a precondition
// violation: the value was already validated at define time.
type ErrNonParsableInterval struct {
	Interval string
	Cause    error
}

func (e *ErrNonParsableInterval) Error() string {
	return fmt.Sprintf("nonParsableInterval: %q: %v", e.Interval, e.Cause)
}

func (e *ErrNonParsableInterval) Unwrap() error { return e.Cause }

// ErrNonParsableCronSchedule is raised from JobScheduler.Start when a
// stored cron expression fails to parse.
type ErrNonParsableCronSchedule struct {
	Expression string
	Cause      error
}

func (e *ErrNonParsableCronSchedule) Error() string {
	return fmt.Sprintf("nonParsableCronSchedule: %q: %v", e.Expression, e.Cause)
}

func (e *ErrNonParsableCronSchedule) Unwrap() error { return e.Cause }

// ErrValidation is returned by Builder.Build (C8) when job input fails a
// required check. Validation errors are raised to the caller, never
// swallowed.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("invalid job definition: %s: %s", e.Field, e.Message)
}
