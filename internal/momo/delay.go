package momo

import (
	"time"

	"github.com/robfig/cron/v3"
)

// DelayCalculator computes the next-fire delay from an interval and a
// last-start time, or from a cron expression. It wraps robfig/cron's
// parser, and is the one place in this module that parses cron
// expressions.
type DelayCalculator struct {
	cronParser cron.Parser
}

// NewDelayCalculator builds a calculator using the descriptor-enabled
// six-field cron parser (adds seconds precision, matching
// DATA MODEL's cron schedule variant).
func NewDelayCalculator() *DelayCalculator {
	return &DelayCalculator{
		cronParser: cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

// DelayFromInterval returns the delay until the next interval fire.
// If lastStartedAt is nil, the job has never run and firstRunAfter is
// returned verbatim. Otherwise the next fire is lastStartedAt+interval;
// if that instant has already passed, the delay is 0 (fire immediately).
func (d *DelayCalculator) DelayFromInterval(interval time.Duration, lastStartedAt *time.Time, firstRunAfter time.Duration) time.Duration {
	if lastStartedAt == nil {
		return firstRunAfter
	}
	nextFire := lastStartedAt.Add(interval)
	delay := time.Until(nextFire)
	if delay < 0 {
		return 0
	}
	return delay
}

// DelayFromCron parses expr and returns the delay until its next fire
// relative to now, along with the absolute fire time.
func (d *DelayCalculator) DelayFromCron(expr string) (delay time.Duration, next time.Time, err error) {
	schedule, err := d.cronParser.Parse(expr)
	if err != nil {
		return 0, time.Time{}, &ErrNonParsableCronSchedule{Expression: expr, Cause: err}
	}
	next = schedule.Next(time.Now())
	delay = time.Until(next)
	if delay < 0 {
		delay = 0
	}
	return delay, next, nil
}
