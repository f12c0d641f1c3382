package momo

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// Executor runs one attempt of a job handler, recording start/finish
// results through JobRepository and the admission count through
// ExecutionsRepository. It is the C5 JobExecutor.
type Executor struct {
	scheduleID string
	jobRepo    JobRepository
	execRepo   ExecutionsRepository
	logger     Logger
	metrics    Metrics
	stopped    atomic.Bool
}

// NewExecutor builds an Executor bound to one SchedulePing instance's
// scheduleID, used to attribute running-execution records to it.
func NewExecutor(scheduleID string, jobRepo JobRepository, execRepo ExecutionsRepository, logger Logger, metrics Metrics) *Executor {
	if logger == nil {
		logger = NewNoopLogger()
	}
	if metrics == nil {
		metrics = NewNoopMetrics()
	}
	return &Executor{
		scheduleID: scheduleID,
		jobRepo:    jobRepo,
		execRepo:   execRepo,
		logger:     logger,
		metrics:    metrics,
	}
}

// Stop prevents any future Execute call from invoking the handler.
// In-flight executions are unaffected.
func (e *Executor) Stop() {
	e.stopped.Store(true)
}

// Execute runs a single attempt of job.Handler, honoring the
// admission rules of §4.3.
func (e *Executor) Execute(ctx context.Context, job *Job) JobResult {
	if e.stopped.Load() {
		return JobResult{Status: StatusStopped}
	}

	added, err := e.execRepo.AddExecution(ctx, e.scheduleID, job.Name, job.MaxRunning)
	if err != nil {
		e.logger.Error("executeJob", ErrorTypeExecuteJob, Fields{"jobName": job.Name}, err)
		return JobResult{Status: StatusFailed, Err: err.Error()}
	}
	e.metrics.SetRunning(job.Name, added.Running)

	if !added.Added {
		return JobResult{Status: StatusMaxRunningReached}
	}

	defer func() {
		if err := e.execRepo.RemoveExecution(context.Background(), e.scheduleID, job.Name); err != nil {
			e.logger.Error("executeJob", ErrorTypeExecuteJob, Fields{"jobName": job.Name}, err)
		}
	}()

	startedAt := time.Now()
	if err := e.jobRepo.RecordStart(ctx, job.Name, startedAt); err != nil {
		e.logger.Error("executeJob", ErrorTypeExecuteJob, Fields{"jobName": job.Name}, err)
	}

	handlerResult, handlerErr := e.invoke(ctx, job)

	finishedAt := time.Now()
	e.metrics.ObserveHandlerDuration(job.Name, finishedAt.Sub(startedAt))

	var result JobResult
	var lastResult LastResult
	if handlerErr != nil {
		lastResult = LastResult{Status: StatusFailed, Err: handlerErr.Error()}
		result = JobResult{Status: StatusFailed, Err: handlerErr.Error()}
	} else {
		lastResult = LastResult{Status: StatusFinished, HandlerResult: handlerResult}
		result = JobResult{Status: StatusFinished, HandlerResult: handlerResult}
	}

	if err := e.jobRepo.RecordFinish(ctx, job.Name, finishedAt, lastResult); err != nil {
		e.logger.Error("executeJob", ErrorTypeExecuteJob, Fields{"jobName": job.Name}, err)
	}

	return result
}

// invoke calls the user handler, converting a panic into an error so
// a misbehaving handler can never take down the executor goroutine.
func (e *Executor) invoke(ctx context.Context, job *Job) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return job.Handler(ctx)
}
