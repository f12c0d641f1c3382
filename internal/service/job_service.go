package service

import (
	"context"
	"fmt"

	"github.com/YaniKolev/momo-scheduler/internal/momo"
)

// JobService is the admin-API-facing wrapper around momo.Scheduler:
// it exposes job lifecycle operations a host HTTP handler can call
// directly. Errors from momo are returned unchanged; the only check of
// its own is Define's rejection of a job without a handler.
type JobService struct {
	scheduler *momo.Scheduler
}

// NewJobService creates a new job service.
func NewJobService(scheduler *momo.Scheduler) *JobService {
	return &JobService{scheduler: scheduler}
}

// Define registers job, starting it immediately if this instance is
// the active leader.
func (s *JobService) Define(ctx context.Context, job *momo.Job) error {
	if job.Handler == nil {
		return fmt.Errorf("job %q has no handler registered in this process", job.Name)
	}
	return s.scheduler.Define(ctx, job)
}

// Get retrieves one job's description.
func (s *JobService) Get(ctx context.Context, name string) (*momo.JobDescription, error) {
	return s.scheduler.GetJobDescription(ctx, name)
}

// List retrieves every job's description.
func (s *JobService) List(ctx context.Context) ([]momo.JobDescription, error) {
	return s.scheduler.ListJobDescriptions(ctx)
}

// Delete stops and removes name.
func (s *JobService) Delete(ctx context.Context, name string) error {
	return s.scheduler.Remove(ctx, name)
}

// Trigger runs one attempt of name's handler synchronously.
func (s *JobService) Trigger(ctx context.Context, name string) (momo.JobResult, error) {
	return s.scheduler.Trigger(ctx, name)
}

// UnexpectedErrorCount returns name's observed error count.
func (s *JobService) UnexpectedErrorCount(name string) uint64 {
	return s.scheduler.GetUnexpectedErrorCount(name)
}

// IsLeader reports whether this instance currently owns scheduling
// for its cluster.
func (s *JobService) IsLeader() bool {
	return s.scheduler.IsLeader()
}

// ClusterStatus reports leadership and membership for this instance's
// ScheduleName.
func (s *JobService) ClusterStatus(ctx context.Context) (momo.ClusterStatus, error) {
	return s.scheduler.ClusterStatus(ctx)
}
