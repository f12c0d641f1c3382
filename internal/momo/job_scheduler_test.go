package momo

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defineIntervalJob(t *testing.T, repo *fakeJobRepository, name, interval string, concurrency, maxRunning int) {
	t.Helper()
	require.NoError(t, repo.Define(context.Background(), &JobDefinition{
		Name:        name,
		Schedule:    Schedule{Kind: ScheduleKindInterval, Interval: &IntervalSchedule{Interval: interval, FirstRunAfter: time.Millisecond}},
		Concurrency: concurrency,
		MaxRunning:  maxRunning,
	}))
}

func TestJobSchedulerStartExecutesOnTick(t *testing.T) {
	jobRepo := newFakeJobRepository()
	execRepo := newFakeExecutionsRepository()
	defineIntervalJob(t, jobRepo, "ticker", "5 milliseconds", 1, 0)

	var calls atomic.Int32
	handler := func(ctx context.Context) (string, error) {
		calls.Add(1)
		return "ok", nil
	}

	scheduler := NewJobScheduler("sched-1", "ticker", handler, jobRepo, execRepo, nil, nil)
	require.NoError(t, scheduler.Start(context.Background()))
	defer scheduler.Stop()

	assert.Eventually(t, func() bool { return calls.Load() > 0 }, time.Second, 5*time.Millisecond)
}

func TestJobSchedulerStartMissingJobIsNoop(t *testing.T) {
	jobRepo := newFakeJobRepository()
	execRepo := newFakeExecutionsRepository()

	scheduler := NewJobScheduler("sched-1", "missing", func(ctx context.Context) (string, error) { return "", nil }, jobRepo, execRepo, nil, nil)
	require.NoError(t, scheduler.Start(context.Background()))

	desc, err := scheduler.GetJobDescription(context.Background())
	require.NoError(t, err)
	assert.Nil(t, desc)
}

func TestJobSchedulerStartRejectsUnparsableInterval(t *testing.T) {
	jobRepo := newFakeJobRepository()
	execRepo := newFakeExecutionsRepository()
	require.NoError(t, jobRepo.Define(context.Background(), &JobDefinition{
		Name:     "bad-interval",
		Schedule: Schedule{Kind: ScheduleKindInterval, Interval: &IntervalSchedule{Interval: "banana"}},
	}))

	scheduler := NewJobScheduler("sched-1", "bad-interval", func(ctx context.Context) (string, error) { return "", nil }, jobRepo, execRepo, nil, nil)
	err := scheduler.Start(context.Background())
	require.Error(t, err)
	assert.IsType(t, &ErrNonParsableInterval{}, err)
}

func TestJobSchedulerExecuteOnceBypassesTimer(t *testing.T) {
	jobRepo := newFakeJobRepository()
	execRepo := newFakeExecutionsRepository()
	defineIntervalJob(t, jobRepo, "manual", "1 hour", 1, 0)

	scheduler := NewJobScheduler("sched-1", "manual", func(ctx context.Context) (string, error) { return "triggered", nil }, jobRepo, execRepo, nil, nil)
	result := scheduler.ExecuteOnce(context.Background())
	assert.Equal(t, StatusFinished, result.Status)
	assert.Equal(t, "triggered", result.HandlerResult)
}

func TestJobSchedulerExecuteOnceNotFound(t *testing.T) {
	jobRepo := newFakeJobRepository()
	execRepo := newFakeExecutionsRepository()

	scheduler := NewJobScheduler("sched-1", "missing", func(ctx context.Context) (string, error) { return "", nil }, jobRepo, execRepo, nil, nil)
	result := scheduler.ExecuteOnce(context.Background())
	assert.Equal(t, StatusNotFound, result.Status)
}

func TestJobSchedulerStopIsIdempotentAndRemovesExecutionRecords(t *testing.T) {
	jobRepo := newFakeJobRepository()
	execRepo := newFakeExecutionsRepository()
	defineIntervalJob(t, jobRepo, "stoppable", "5 milliseconds", 1, 0)

	var removeJobCalls atomic.Int32
	execRepo.removeJobFn = func(scheduleID, jobName string) {
		if scheduleID == "sched-1" && jobName == "stoppable" {
			removeJobCalls.Add(1)
		}
	}

	scheduler := NewJobScheduler("sched-1", "stoppable", func(ctx context.Context) (string, error) { return "", nil }, jobRepo, execRepo, nil, nil)
	require.NoError(t, scheduler.Start(context.Background()))

	scheduler.Stop()
	assert.Equal(t, int32(1), removeJobCalls.Load())
	assert.NotPanics(t, func() { scheduler.Stop() })
	assert.Equal(t, int32(1), removeJobCalls.Load())
}

func TestJobSchedulerConcurrencyFanOutBoundedByMaxRunning(t *testing.T) {
	jobRepo := newFakeJobRepository()
	execRepo := newFakeExecutionsRepository()
	defineIntervalJob(t, jobRepo, "bounded", "5 milliseconds", 5, 2)

	release := make(chan struct{})
	var inFlight atomic.Int32
	var maxInFlight atomic.Int32
	handler := func(ctx context.Context) (string, error) {
		n := inFlight.Add(1)
		for {
			prev := maxInFlight.Load()
			if n <= prev || maxInFlight.CompareAndSwap(prev, n) {
				break
			}
		}
		<-release
		inFlight.Add(-1)
		return "", nil
	}

	scheduler := NewJobScheduler("sched-1", "bounded", handler, jobRepo, execRepo, nil, nil)
	require.NoError(t, scheduler.Start(context.Background()))
	defer scheduler.Stop()

	assert.Eventually(t, func() bool { return inFlight.Load() >= 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	close(release)

	assert.LessOrEqual(t, int(maxInFlight.Load()), 2)
}

func TestJobSchedulerGetUnexpectedErrorCount(t *testing.T) {
	jobRepo := newFakeJobRepository()
	execRepo := newFakeExecutionsRepository()

	scheduler := NewJobScheduler("sched-1", "whatever", func(ctx context.Context) (string, error) { return "", nil }, jobRepo, execRepo, nil, nil)
	assert.Equal(t, uint64(0), scheduler.GetUnexpectedErrorCount())
}
