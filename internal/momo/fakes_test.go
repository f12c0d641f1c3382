package momo

import (
	"context"
	"sync"
	"time"
)

// fakeJobRepository is an in-memory momo.JobRepository used across the
// package's unit tests, so timing-sensitive tests never need a real
// datastore.
type fakeJobRepository struct {
	mu   sync.Mutex
	jobs map[string]*JobDefinition
}

func newFakeJobRepository() *fakeJobRepository {
	return &fakeJobRepository{jobs: make(map[string]*JobDefinition)}
}

func (r *fakeJobRepository) FindOne(ctx context.Context, name string) (*JobDefinition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[name]
	if !ok {
		return nil, nil
	}
	clone := *job
	if job.ExecutionInfo != nil {
		info := *job.ExecutionInfo
		clone.ExecutionInfo = &info
	}
	return &clone, nil
}

func (r *fakeJobRepository) Find(ctx context.Context, filter JobFilter) ([]JobDefinition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []JobDefinition
	for _, job := range r.jobs {
		if filter.Name != "" && filter.Name != job.Name {
			continue
		}
		out = append(out, *job)
	}
	return out, nil
}

func (r *fakeJobRepository) Save(ctx context.Context, job *JobDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *job
	r.jobs[job.Name] = &clone
	return nil
}

func (r *fakeJobRepository) Define(ctx context.Context, job *JobDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.jobs[job.Name]
	clone := *job
	if ok {
		clone.ExecutionInfo = existing.ExecutionInfo
	}
	r.jobs[job.Name] = &clone
	return nil
}

func (r *fakeJobRepository) UpdateJob(ctx context.Context, name string, update JobUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[name]
	if !ok {
		return nil
	}
	if update.Schedule != nil {
		job.Schedule = *update.Schedule
	}
	if update.Concurrency != nil {
		job.Concurrency = *update.Concurrency
	}
	if update.MaxRunning != nil {
		job.MaxRunning = *update.MaxRunning
	}
	return nil
}

func (r *fakeJobRepository) Check(ctx context.Context, name string) (*ExecutionInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[name]
	if !ok {
		return nil, nil
	}
	return job.ExecutionInfo, nil
}

func (r *fakeJobRepository) List(ctx context.Context) ([]JobDefinition, error) {
	return r.Find(ctx, JobFilter{})
}

func (r *fakeJobRepository) Delete(ctx context.Context, filter JobFilter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if filter.Name != "" {
		delete(r.jobs, filter.Name)
		return nil
	}
	r.jobs = make(map[string]*JobDefinition)
	return nil
}

func (r *fakeJobRepository) RecordStart(ctx context.Context, name string, startedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[name]
	if !ok {
		return nil
	}
	if job.ExecutionInfo == nil {
		job.ExecutionInfo = &ExecutionInfo{}
	}
	started := startedAt
	job.ExecutionInfo.LastStarted = &started
	return nil
}

func (r *fakeJobRepository) RecordFinish(ctx context.Context, name string, finishedAt time.Time, result LastResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[name]
	if !ok {
		return nil
	}
	if job.ExecutionInfo == nil {
		job.ExecutionInfo = &ExecutionInfo{}
	}
	finished := finishedAt
	job.ExecutionInfo.LastFinished = &finished
	res := result
	job.ExecutionInfo.LastResult = &res
	return nil
}

// fakeExecutionsRepository is an in-memory momo.ExecutionsRepository.
type fakeExecutionsRepository struct {
	mu          sync.Mutex
	running     map[string]map[string]int // jobName -> scheduleID -> count
	liveness    map[string]livenessRow
	removeJobFn func(scheduleID, jobName string)
}

type livenessRow struct {
	scheduleName string
	lastPing     time.Time
	isActive     bool
}

func newFakeExecutionsRepository() *fakeExecutionsRepository {
	return &fakeExecutionsRepository{
		running:  make(map[string]map[string]int),
		liveness: make(map[string]livenessRow),
	}
}

func (r *fakeExecutionsRepository) AddExecution(ctx context.Context, scheduleID, jobName string, maxRunning int) (AddExecutionResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byJob := r.running[jobName]
	if byJob == nil {
		byJob = make(map[string]int)
		r.running[jobName] = byJob
	}

	total := 0
	for _, n := range byJob {
		total += n
	}

	if maxRunning > 0 && total >= maxRunning {
		return AddExecutionResult{Added: false, Running: total}, nil
	}

	byJob[scheduleID]++
	return AddExecutionResult{Added: true, Running: total + 1}, nil
}

func (r *fakeExecutionsRepository) RemoveExecution(ctx context.Context, scheduleID, jobName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	byJob := r.running[jobName]
	if byJob == nil {
		return nil
	}
	if byJob[scheduleID] > 0 {
		byJob[scheduleID]--
	}
	return nil
}

func (r *fakeExecutionsRepository) CountRunningExecutions(ctx context.Context, jobName string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, n := range r.running[jobName] {
		total += n
	}
	return total, nil
}

func (r *fakeExecutionsRepository) RemoveJob(ctx context.Context, scheduleID, jobName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if byJob := r.running[jobName]; byJob != nil {
		delete(byJob, scheduleID)
	}
	if r.removeJobFn != nil {
		r.removeJobFn(scheduleID, jobName)
	}
	return nil
}

func (r *fakeExecutionsRepository) Ping(ctx context.Context, scheduleID, scheduleName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row := r.liveness[scheduleID]
	row.scheduleName = scheduleName
	row.lastPing = time.Now()
	r.liveness[scheduleID] = row
	return nil
}

func (r *fakeExecutionsRepository) Clean(ctx context.Context, pingInterval time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := time.Now().Add(-2 * pingInterval)
	for id, row := range r.liveness {
		if row.lastPing.Before(cutoff) {
			delete(r.liveness, id)
			for _, byJob := range r.running {
				delete(byJob, id)
			}
		}
	}
	return nil
}

func (r *fakeExecutionsRepository) IsActiveSchedule(ctx context.Context, scheduleID, scheduleName string, pingInterval time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := time.Now().Add(-2 * pingInterval)
	for id, row := range r.liveness {
		if id == scheduleID || row.scheduleName != scheduleName || !row.isActive {
			continue
		}
		if row.lastPing.After(cutoff) {
			return false, nil
		}
	}
	return true, nil
}

func (r *fakeExecutionsRepository) SetActiveSchedule(ctx context.Context, scheduleID, scheduleName string, pingInterval time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := time.Now().Add(-2 * pingInterval)
	for id, row := range r.liveness {
		if id == scheduleID || row.scheduleName != scheduleName || !row.isActive {
			continue
		}
		if row.lastPing.After(cutoff) {
			return false, nil
		}
	}
	r.liveness[scheduleID] = livenessRow{scheduleName: scheduleName, lastPing: time.Now(), isActive: true}
	return true, nil
}

func (r *fakeExecutionsRepository) DeleteOne(ctx context.Context, scheduleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.liveness, scheduleID)
	return nil
}

func (r *fakeExecutionsRepository) ListLiveness(ctx context.Context, scheduleName string, pingInterval time.Duration) ([]LivenessRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := time.Now().Add(-2 * pingInterval)
	var out []LivenessRow
	for id, row := range r.liveness {
		if row.scheduleName == scheduleName && row.lastPing.After(cutoff) {
			out = append(out, LivenessRow{ScheduleID: id, LastPing: row.lastPing, IsActive: row.isActive})
		}
	}
	return out, nil
}

var (
	_ JobRepository        = (*fakeJobRepository)(nil)
	_ ExecutionsRepository = (*fakeExecutionsRepository)(nil)
)
