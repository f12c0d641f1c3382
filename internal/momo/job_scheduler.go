package momo

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// JobScheduler owns one job's timer. It reloads the job's persisted
// definition on every tick, consults ExecutionsRepository for the
// global running count, and dispatches that many concurrent Executor
// invocations. This is C6.
type JobScheduler struct {
	scheduleID string
	jobName    string
	handler    HandlerFunc

	jobRepo  JobRepository
	execRepo ExecutionsRepository
	logger   Logger
	metrics  Metrics

	timer *SafeTimer
	delay *DelayCalculator

	mu                   sync.Mutex
	started              bool
	handle               TimerHandle
	executor             *Executor
	currentSchedule      *Schedule
	unexpectedErrorCount atomic.Uint64
}

// NewJobScheduler builds a JobScheduler for jobName, bound to the
// given SchedulePing instance's scheduleID and the in-process handler
// that implements it.
func NewJobScheduler(scheduleID, jobName string, handler HandlerFunc, jobRepo JobRepository, execRepo ExecutionsRepository, logger Logger, metrics Metrics) *JobScheduler {
	if logger == nil {
		logger = NewNoopLogger()
	}
	if metrics == nil {
		metrics = NewNoopMetrics()
	}
	return &JobScheduler{
		scheduleID: scheduleID,
		jobName:    jobName,
		handler:    handler,
		jobRepo:    jobRepo,
		execRepo:   execRepo,
		logger:     logger,
		metrics:    metrics,
		timer:      NewSafeTimer(logger),
		delay:      NewDelayCalculator(),
	}
}

// Start is idempotent: it stops any existing timer first, then loads
// the job by name and installs the timer matching its schedule kind.
func (s *JobScheduler) Start(ctx context.Context) error {
	s.Stop()

	entity, err := s.jobRepo.FindOne(ctx, s.jobName)
	if err != nil {
		return err
	}
	if entity == nil {
		s.logger.Debug("scheduleJob/jobNotFound", Fields{"jobName": s.jobName})
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.executor = NewExecutor(s.scheduleID, s.jobRepo, s.execRepo, s.logger, s.metrics)

	switch entity.Schedule.Kind {
	case ScheduleKindInterval:
		intervalMs, perr := parseHumanDuration(entity.Schedule.Interval.Interval)
		if perr != nil {
			return &ErrNonParsableInterval{Interval: entity.Schedule.Interval.Interval, Cause: perr}
		}
		initialDelay := s.delay.DelayFromInterval(intervalMs, lastStartedAt(entity), entity.Schedule.Interval.FirstRunAfter)
		s.handle = s.timer.ScheduleRepeating(ErrorTypeExecuteJob, func() { s.tick(context.Background()) }, intervalMs, initialDelay)

	case ScheduleKindCron:
		expr := entity.Schedule.Cron.CronExpression
		initialDelay, _, cerr := s.delay.DelayFromCron(expr)
		if cerr != nil {
			return &ErrNonParsableCronSchedule{Expression: expr, Cause: cerr}
		}
		s.scheduleCronOnceLocked(expr, initialDelay)
	}

	s.currentSchedule = &entity.Schedule
	s.started = true
	return nil
}

// scheduleCronOnceLocked installs a one-shot fire for the next cron
// instant; inside the callback it runs a tick and reschedules another
// one-shot. Must be called with s.mu held.
func (s *JobScheduler) scheduleCronOnceLocked(expr string, delay time.Duration) {
	s.handle = s.timer.ScheduleOnce(ErrorTypeExecuteJob, func() {
		s.tick(context.Background())

		nextDelay, _, err := s.delay.DelayFromCron(expr)
		if err != nil {
			s.logger.Error("scheduleJob", ErrorTypeScheduleJob, Fields{"jobName": s.jobName}, err)
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.started {
			s.scheduleCronOnceLocked(expr, nextDelay)
		}
	}, delay)
}

// tick reloads the job, computes numToExecute, and fires that many
// Executor invocations fire-and-forget. Any synchronous failure in
// steps 1-3 is routed through handleUnexpectedError; the timer loop
// itself is never allowed to die.
func (s *JobScheduler) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.handleUnexpectedError(fmt.Errorf("panic: %v", r))
		}
	}()

	entity, err := s.jobRepo.FindOne(ctx, s.jobName)
	if err != nil {
		s.handleUnexpectedError(err)
		return
	}
	if entity == nil {
		s.logger.Debug("executeJob/jobNotFound", Fields{"jobName": s.jobName})
		return
	}

	running, err := s.execRepo.CountRunningExecutions(ctx, s.jobName)
	if err != nil {
		s.handleUnexpectedError(err)
		return
	}

	numToExecute := entity.Concurrency
	if entity.MaxRunning > 0 {
		remaining := entity.MaxRunning - running
		if remaining < 0 {
			remaining = 0
		}
		if remaining < numToExecute {
			numToExecute = remaining
		}
	}

	s.mu.Lock()
	executor := s.executor
	s.mu.Unlock()
	if executor == nil {
		return
	}

	job := &Job{JobDefinition: *entity, Handler: s.handler}
	for i := 0; i < numToExecute; i++ {
		go func() {
			defer func() {
				if r := recover(); r != nil {
					s.handleUnexpectedError(fmt.Errorf("panic: %v", r))
				}
			}()
			executor.Execute(context.Background(), job)
		}()
	}
}

func (s *JobScheduler) handleUnexpectedError(err error) {
	s.unexpectedErrorCount.Add(1)
	s.metrics.IncUnexpectedError(s.jobName)
	s.logger.Error("executeJob", ErrorTypeExecuteJob, Fields{"jobName": s.jobName}, err)
}

// ExecuteOnce runs one attempt synchronously through Executor, outside
// the timer and its concurrency/maxRunning fan-out math (Executor's
// own admission check still applies).
func (s *JobScheduler) ExecuteOnce(ctx context.Context) JobResult {
	entity, err := s.jobRepo.FindOne(ctx, s.jobName)
	if err != nil || entity == nil {
		return JobResult{Status: StatusNotFound}
	}

	s.mu.Lock()
	executor := s.executor
	s.mu.Unlock()
	if executor == nil {
		executor = NewExecutor(s.scheduleID, s.jobRepo, s.execRepo, s.logger, s.metrics)
	}

	job := &Job{JobDefinition: *entity, Handler: s.handler}
	return executor.Execute(ctx, job)
}

// Stop cancels the timer, signals the executor to stop accepting new
// handler invocations, removes this instance's running records for
// the job, and clears the cached schedule. It is idempotent.
func (s *JobScheduler) Stop() {
	s.mu.Lock()
	wasStarted := s.started
	handle := s.handle
	executor := s.executor
	s.handle = nil
	s.executor = nil
	s.currentSchedule = nil
	s.started = false
	s.mu.Unlock()

	if handle != nil {
		handle.Stop()
	}
	if executor != nil {
		executor.Stop()
	}
	if wasStarted {
		if err := s.execRepo.RemoveJob(context.Background(), s.scheduleID, s.jobName); err != nil {
			s.logger.Error("scheduleJob", ErrorTypeScheduleJob, Fields{"jobName": s.jobName}, err)
		}
	}
}

// GetJobDescription returns the persisted description, plus —
// only when started — the live scheduler status.
func (s *JobScheduler) GetJobDescription(ctx context.Context) (*JobDescription, error) {
	entity, err := s.jobRepo.FindOne(ctx, s.jobName)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, nil
	}

	desc := &JobDescription{JobDefinition: *entity}

	s.mu.Lock()
	started := s.started
	schedule := s.currentSchedule
	s.mu.Unlock()

	if started && schedule != nil {
		running, err := s.execRepo.CountRunningExecutions(ctx, s.jobName)
		if err != nil {
			return nil, err
		}
		desc.SchedulerStatus = &SchedulerStatus{Schedule: *schedule, Running: running}
	}

	return desc, nil
}

// GetUnexpectedErrorCount returns the monotonically increasing count
// of errors caught during tick(). It is the observable health signal
// for this scheduler.
func (s *JobScheduler) GetUnexpectedErrorCount() uint64 {
	return s.unexpectedErrorCount.Load()
}

func lastStartedAt(entity *JobDefinition) *time.Time {
	if entity.ExecutionInfo == nil {
		return nil
	}
	return entity.ExecutionInfo.LastStarted
}
