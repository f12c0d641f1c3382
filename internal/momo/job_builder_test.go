package momo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderBuildValidIntervalJob(t *testing.T) {
	job, err := NewJob("my-job").
		WithInterval("1 second", 0).
		WithHandler(func(ctx context.Context) (string, error) { return "", nil }).
		Build(nil)

	require.NoError(t, err)
	assert.Equal(t, "my-job", job.Name)
	assert.Equal(t, ScheduleKindInterval, job.Schedule.Kind)
	assert.Equal(t, 1, job.Concurrency)
	assert.Equal(t, 0, job.MaxRunning)
}

func TestBuilderBuildValidCronJob(t *testing.T) {
	job, err := NewJob("cron-job").
		WithCronSchedule("* * * * * *").
		WithHandler(func(ctx context.Context) (string, error) { return "", nil }).
		Build(nil)

	require.NoError(t, err)
	assert.Equal(t, ScheduleKindCron, job.Schedule.Kind)
}

func TestBuilderBuildRequiresName(t *testing.T) {
	_, err := NewJob("").
		WithInterval("1 second", 0).
		WithHandler(func(ctx context.Context) (string, error) { return "", nil }).
		Build(nil)
	require.Error(t, err)
	assert.IsType(t, &ErrValidation{}, err)
}

func TestBuilderBuildRequiresSchedule(t *testing.T) {
	_, err := NewJob("no-schedule").
		WithHandler(func(ctx context.Context) (string, error) { return "", nil }).
		Build(nil)
	require.Error(t, err)
	validationErr, ok := err.(*ErrValidation)
	require.True(t, ok)
	assert.Equal(t, "schedule", validationErr.Field)
}

func TestBuilderBuildRequiresHandler(t *testing.T) {
	_, err := NewJob("no-handler").
		WithInterval("1 second", 0).
		Build(nil)
	require.Error(t, err)
	validationErr, ok := err.(*ErrValidation)
	require.True(t, ok)
	assert.Equal(t, "handler", validationErr.Field)
}

func TestBuilderBuildRejectsUnparsableInterval(t *testing.T) {
	_, err := NewJob("bad-interval").
		WithInterval("banana", 0).
		WithHandler(func(ctx context.Context) (string, error) { return "", nil }).
		Build(nil)
	require.Error(t, err)
}

func TestBuilderBuildRejectsUnparsableCron(t *testing.T) {
	_, err := NewJob("bad-cron").
		WithCronSchedule("not a cron").
		WithHandler(func(ctx context.Context) (string, error) { return "", nil }).
		Build(nil)
	require.Error(t, err)
}

func TestBuilderBuildDefaultsConcurrencyToOneWhenInvalid(t *testing.T) {
	job, err := NewJob("zero-concurrency").
		WithInterval("1 second", 0).
		WithConcurrency(0).
		WithHandler(func(ctx context.Context) (string, error) { return "", nil }).
		Build(nil)
	require.NoError(t, err)
	assert.Equal(t, 1, job.Concurrency)
}

func TestBuilderBuildClampsNegativeMaxRunningToZero(t *testing.T) {
	job, err := NewJob("negative-max").
		WithInterval("1 second", 0).
		WithMaxRunning(-5).
		WithHandler(func(ctx context.Context) (string, error) { return "", nil }).
		Build(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, job.MaxRunning)
}

func TestBuilderBuildAllowsConcurrencyExceedingMaxRunning(t *testing.T) {
	job, err := NewJob("over-concurrency").
		WithInterval("1 second", 0).
		WithConcurrency(5).
		WithMaxRunning(2).
		WithHandler(func(ctx context.Context) (string, error) { return "", nil }).
		Build(nil)
	require.NoError(t, err)
	assert.Equal(t, 5, job.Concurrency)
	assert.Equal(t, 2, job.MaxRunning)
}

func TestBuilderWithIntervalAcceptsFirstRunAfterDuration(t *testing.T) {
	job, err := NewJob("first-run").
		WithInterval("1 minute", 3*time.Second).
		WithHandler(func(ctx context.Context) (string, error) { return "", nil }).
		Build(nil)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, job.Schedule.Interval.FirstRunAfter)
}
