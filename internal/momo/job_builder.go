package momo

import "time"

// Builder constructs a validated Job the way MomoJob does in C8: it
// accumulates input, then Build canonicalizes it into the stored form
// (JobDefinition) paired with the in-process handler.
type Builder struct {
	name        string
	schedule    Schedule
	hasSchedule bool
	concurrency *int
	maxRunning  *int
	handler     HandlerFunc
}

// NewJob starts building a job named name.
func NewJob(name string) *Builder {
	return &Builder{name: name}
}

// WithInterval sets an Interval schedule. interval is a human-readable
// duration string ("1 second", "5 minutes") or a Go duration string
// ("5m"); it is validated (and re-parsed) at Build time and again on
// every JobScheduler.Start.
func (b *Builder) WithInterval(interval string, firstRunAfter time.Duration) *Builder {
	b.hasSchedule = true
	b.schedule = Schedule{
		Kind: ScheduleKindInterval,
		Interval: &IntervalSchedule{
			Interval:      interval,
			FirstRunAfter: firstRunAfter,
		},
	}
	return b
}

// WithCronSchedule sets a Cron schedule.
func (b *Builder) WithCronSchedule(expression string) *Builder {
	b.hasSchedule = true
	b.schedule = Schedule{
		Kind: ScheduleKindCron,
		Cron: &CronSchedule{CronExpression: expression},
	}
	return b
}

// WithConcurrency sets the per-tick fan-out. Omit to default to 1.
func (b *Builder) WithConcurrency(n int) *Builder {
	b.concurrency = &n
	return b
}

// WithMaxRunning sets the global execution cap. Omit to default to 0
// (unlimited).
func (b *Builder) WithMaxRunning(n int) *Builder {
	b.maxRunning = &n
	return b
}

// WithHandler sets the user job handler. Required.
func (b *Builder) WithHandler(handler HandlerFunc) *Builder {
	b.handler = handler
	return b
}

// Build validates the accumulated input per §4.6 and returns a Job
// ready to pass to Scheduler.Define. Validation errors are returned to
// the caller, never logged-and-swallowed.
func (b *Builder) Build(logger Logger) (*Job, error) {
	if logger == nil {
		logger = NewNoopLogger()
	}

	if b.name == "" {
		return nil, &ErrValidation{Field: "name", Message: "required and must be non-empty"}
	}
	if !b.hasSchedule {
		return nil, &ErrValidation{Field: "schedule", Message: "exactly one of interval or cronSchedule must be set"}
	}
	if b.handler == nil {
		return nil, &ErrValidation{Field: "handler", Message: "required"}
	}

	switch b.schedule.Kind {
	case ScheduleKindInterval:
		if _, err := parseHumanDuration(b.schedule.Interval.Interval); err != nil {
			return nil, &ErrValidation{Field: "interval", Message: err.Error()}
		}
	case ScheduleKindCron:
		calc := NewDelayCalculator()
		if _, _, err := calc.DelayFromCron(b.schedule.Cron.CronExpression); err != nil {
			return nil, &ErrValidation{Field: "cronSchedule", Message: err.Error()}
		}
	}

	concurrency := 1
	if b.concurrency != nil {
		concurrency = *b.concurrency
	}
	if concurrency < 1 {
		concurrency = 1
	}

	maxRunning := 0
	if b.maxRunning != nil {
		maxRunning = *b.maxRunning
	}
	if maxRunning < 0 {
		maxRunning = 0
	}

	if maxRunning > 0 && concurrency > maxRunning {
		logger.Debug("define/concurrencyExceedsMaxRunning", Fields{
			"jobName":     b.name,
			"concurrency": concurrency,
			"maxRunning":  maxRunning,
		})
	}

	return &Job{
		JobDefinition: JobDefinition{
			Name:        b.name,
			Schedule:    b.schedule,
			Concurrency: concurrency,
			MaxRunning:  maxRunning,
		},
		Handler: b.handler,
	}, nil
}
