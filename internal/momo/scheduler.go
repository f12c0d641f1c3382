package momo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Config configures a Scheduler instance.
type Config struct {
	// ScheduleName groups every process that should contend for the
	// same leadership slot. All instances sharing a ScheduleName run
	// the same job set; exactly one becomes active at a time.
	ScheduleName string
	// PingInterval is the liveness cadence; a row older than
	// 2*PingInterval is considered stale by Clean/IsActiveSchedule.
	PingInterval time.Duration
}

// Scheduler is the library's public facade: it owns one SchedulePing
// (C7) for cluster-wide leadership arbitration and one JobScheduler
// (C6) per defined job, starting the job set only once this instance
// becomes the active leader.
type Scheduler struct {
	scheduleID string
	config     Config

	jobRepo  JobRepository
	execRepo ExecutionsRepository
	logger   Logger
	metrics  Metrics

	ping *SchedulePing

	mu          sync.Mutex
	schedulers  map[string]*JobScheduler
	startedOnce bool
}

// New builds a Scheduler. lease may be nil to skip the Redis fast-path
// and rely solely on the authoritative conditional write.
func New(config Config, jobRepo JobRepository, execRepo ExecutionsRepository, lease Lease, logger Logger, metrics Metrics) *Scheduler {
	if logger == nil {
		logger = NewNoopLogger()
	}
	if metrics == nil {
		metrics = NewNoopMetrics()
	}
	s := &Scheduler{
		scheduleID: uuid.NewString(),
		config:     config,
		jobRepo:    jobRepo,
		execRepo:   execRepo,
		logger:     logger,
		metrics:    metrics,
		schedulers: make(map[string]*JobScheduler),
	}
	s.ping = NewSchedulePing(s.scheduleID, config.ScheduleName, config.PingInterval, execRepo, lease, logger, metrics, s.startAllJobs)
	return s
}

// ScheduleID returns the unique identifier this process registered
// itself under; it is the value persisted as scheduleId throughout
// ExecutionsRepository.
func (s *Scheduler) ScheduleID() string {
	return s.scheduleID
}

// Define persists job and, if this instance is already the active
// leader, starts (or restarts) its JobScheduler immediately. If not
// yet leader, the JobScheduler is created but left stopped; it will be
// started by startAllJobs once leadership is acquired.
func (s *Scheduler) Define(ctx context.Context, job *Job) error {
	if err := s.jobRepo.Define(ctx, &job.JobDefinition); err != nil {
		return fmt.Errorf("define job %q: %w", job.Name, err)
	}

	s.mu.Lock()
	js, exists := s.schedulers[job.Name]
	if !exists {
		js = NewJobScheduler(s.scheduleID, job.Name, job.Handler, s.jobRepo, s.execRepo, s.logger, s.metrics)
		s.schedulers[job.Name] = js
	}
	isLeader := s.ping.IsActive()
	s.mu.Unlock()

	if isLeader {
		return js.Start(ctx)
	}
	return nil
}

// Start begins cluster leadership arbitration. Jobs already defined
// are started immediately if this instance wins leadership; otherwise
// startAllJobs fires later, the first time it does.
func (s *Scheduler) Start(ctx context.Context) error {
	return s.ping.Start(ctx)
}

// startAllJobs is SchedulePing's leadership-acquired callback: it
// starts every currently defined JobScheduler. Invoked at most once
// per process lifetime (SchedulePing enforces the one-shot guarantee).
func (s *Scheduler) startAllJobs() {
	s.mu.Lock()
	schedulers := make([]*JobScheduler, 0, len(s.schedulers))
	for _, js := range s.schedulers {
		schedulers = append(schedulers, js)
	}
	s.mu.Unlock()

	for _, js := range schedulers {
		if err := js.Start(context.Background()); err != nil {
			s.logger.Error("scheduler/startAllJobs", ErrorTypeScheduleJob, Fields{}, err)
		}
	}
}

// Stop stops every JobScheduler, then SchedulePing, releasing
// leadership so another instance can claim it.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	schedulers := make([]*JobScheduler, 0, len(s.schedulers))
	for _, js := range s.schedulers {
		schedulers = append(schedulers, js)
	}
	s.mu.Unlock()

	for _, js := range schedulers {
		js.Stop()
	}
	s.ping.Stop(ctx)
}

// Remove stops and forgets a job's in-process scheduler, then deletes
// its persisted definition.
func (s *Scheduler) Remove(ctx context.Context, name string) error {
	s.mu.Lock()
	js, exists := s.schedulers[name]
	delete(s.schedulers, name)
	s.mu.Unlock()

	if exists {
		js.Stop()
	}
	return s.jobRepo.Delete(ctx, JobFilter{Name: name})
}

// Trigger runs one attempt of name's handler synchronously via its
// JobScheduler, subject to the usual admission rules.
func (s *Scheduler) Trigger(ctx context.Context, name string) (JobResult, error) {
	s.mu.Lock()
	js, exists := s.schedulers[name]
	s.mu.Unlock()
	if !exists {
		return JobResult{Status: StatusNotFound}, nil
	}
	return js.ExecuteOnce(ctx), nil
}

// GetJobDescription returns name's persisted definition plus live
// scheduler status, if started.
func (s *Scheduler) GetJobDescription(ctx context.Context, name string) (*JobDescription, error) {
	s.mu.Lock()
	js, exists := s.schedulers[name]
	s.mu.Unlock()
	if !exists {
		entity, err := s.jobRepo.FindOne(ctx, name)
		if err != nil || entity == nil {
			return nil, err
		}
		return &JobDescription{JobDefinition: *entity}, nil
	}
	return js.GetJobDescription(ctx)
}

// ListJobDescriptions returns descriptions for every persisted job.
func (s *Scheduler) ListJobDescriptions(ctx context.Context) ([]JobDescription, error) {
	entities, err := s.jobRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	descriptions := make([]JobDescription, 0, len(entities))
	for _, entity := range entities {
		desc, err := s.GetJobDescription(ctx, entity.Name)
		if err != nil {
			return nil, err
		}
		if desc == nil {
			desc = &JobDescription{JobDefinition: entity}
		}
		descriptions = append(descriptions, *desc)
	}
	return descriptions, nil
}

// GetUnexpectedErrorCount returns name's JobScheduler error count,
// whether or not that scheduler is currently started, or 0 if name has
// no JobScheduler in this process.
func (s *Scheduler) GetUnexpectedErrorCount(name string) uint64 {
	s.mu.Lock()
	js, exists := s.schedulers[name]
	s.mu.Unlock()
	if !exists {
		return 0
	}
	return js.GetUnexpectedErrorCount()
}

// IsLeader reports whether this instance is currently the active
// leader for its ScheduleName.
func (s *Scheduler) IsLeader() bool {
	return s.ping.IsActive()
}

// ClusterStatus is the observable state of leadership and membership
// for a Scheduler's ScheduleName: which instances are currently
// pinging in, and whether this process is the active leader among
// them.
type ClusterStatus struct {
	ScheduleID   string
	ScheduleName string
	IsLeader     bool
	Instances    []LivenessRow
}

// ClusterStatus reports this instance's leadership state alongside
// every other instance currently pinging in under the same
// ScheduleName.
func (s *Scheduler) ClusterStatus(ctx context.Context) (ClusterStatus, error) {
	instances, err := s.execRepo.ListLiveness(ctx, s.config.ScheduleName, s.config.PingInterval)
	if err != nil {
		return ClusterStatus{}, err
	}
	return ClusterStatus{
		ScheduleID:   s.scheduleID,
		ScheduleName: s.config.ScheduleName,
		IsLeader:     s.ping.IsActive(),
		Instances:    instances,
	}, nil
}
