package momo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutorExecuteFinished(t *testing.T) {
	jobRepo := newFakeJobRepository()
	execRepo := newFakeExecutionsRepository()
	require.NoError(t, jobRepo.Define(context.Background(), &JobDefinition{Name: "job-a", MaxRunning: 0}))

	executor := NewExecutor("sched-1", jobRepo, execRepo, nil, nil)
	job := &Job{
		JobDefinition: JobDefinition{Name: "job-a"},
		Handler: func(ctx context.Context) (string, error) {
			return "ok", nil
		},
	}

	result := executor.Execute(context.Background(), job)
	assert.Equal(t, StatusFinished, result.Status)
	assert.Equal(t, "ok", result.HandlerResult)

	running, err := execRepo.CountRunningExecutions(context.Background(), "job-a")
	require.NoError(t, err)
	assert.Equal(t, 0, running)

	stored, err := jobRepo.FindOne(context.Background(), "job-a")
	require.NoError(t, err)
	require.NotNil(t, stored.ExecutionInfo)
	require.NotNil(t, stored.ExecutionInfo.LastResult)
	assert.Equal(t, StatusFinished, stored.ExecutionInfo.LastResult.Status)
}

func TestExecutorExecuteFailed(t *testing.T) {
	jobRepo := newFakeJobRepository()
	execRepo := newFakeExecutionsRepository()
	require.NoError(t, jobRepo.Define(context.Background(), &JobDefinition{Name: "job-b"}))

	executor := NewExecutor("sched-1", jobRepo, execRepo, nil, nil)
	job := &Job{
		JobDefinition: JobDefinition{Name: "job-b"},
		Handler: func(ctx context.Context) (string, error) {
			return "", errors.New("boom")
		},
	}

	result := executor.Execute(context.Background(), job)
	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, "boom", result.Err)
}

func TestExecutorExecuteHandlerPanicBecomesFailure(t *testing.T) {
	jobRepo := newFakeJobRepository()
	execRepo := newFakeExecutionsRepository()
	require.NoError(t, jobRepo.Define(context.Background(), &JobDefinition{Name: "job-c"}))

	executor := NewExecutor("sched-1", jobRepo, execRepo, nil, nil)
	job := &Job{
		JobDefinition: JobDefinition{Name: "job-c"},
		Handler: func(ctx context.Context) (string, error) {
			panic("handler exploded")
		},
	}

	result := executor.Execute(context.Background(), job)
	assert.Equal(t, StatusFailed, result.Status)
	assert.Contains(t, result.Err, "handler exploded")
}

func TestExecutorExecuteRespectsMaxRunning(t *testing.T) {
	jobRepo := newFakeJobRepository()
	execRepo := newFakeExecutionsRepository()
	require.NoError(t, jobRepo.Define(context.Background(), &JobDefinition{Name: "job-d", MaxRunning: 1}))

	release := make(chan struct{})
	started := make(chan struct{})
	executorA := NewExecutor("sched-a", jobRepo, execRepo, nil, nil)
	executorB := NewExecutor("sched-b", jobRepo, execRepo, nil, nil)

	job := Job{
		JobDefinition: JobDefinition{Name: "job-d", MaxRunning: 1},
		Handler: func(ctx context.Context) (string, error) {
			close(started)
			<-release
			return "done", nil
		},
	}

	done := make(chan JobResult, 1)
	go func() {
		done <- executorA.Execute(context.Background(), &job)
	}()

	<-started
	result := executorB.Execute(context.Background(), &job)
	assert.Equal(t, StatusMaxRunningReached, result.Status)

	close(release)
	first := <-done
	assert.Equal(t, StatusFinished, first.Status)
}

func TestExecutorStopPreventsExecution(t *testing.T) {
	jobRepo := newFakeJobRepository()
	execRepo := newFakeExecutionsRepository()

	executor := NewExecutor("sched-1", jobRepo, execRepo, nil, nil)
	executor.Stop()

	called := false
	job := &Job{
		JobDefinition: JobDefinition{Name: "job-e"},
		Handler: func(ctx context.Context) (string, error) {
			called = true
			return "", nil
		},
	}

	result := executor.Execute(context.Background(), job)
	assert.Equal(t, StatusStopped, result.Status)
	assert.False(t, called)
}
