package momo

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Lease is a fast-path advisory claim consulted before the
// authoritative conditional write in ExecutionsRepository.
// SchedulePing uses it to narrow the arbitration race window; it is
// optional, and a nil Lease simply skips straight to the Postgres
// conditional upsert.
type Lease interface {
	// TryAcquire claims key for owner for ttl. It returns true if the
	// lease is held by owner afterward, whether freshly acquired or
	// already owned.
	TryAcquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	// Release gives up key if owner currently holds it.
	Release(ctx context.Context, key, owner string) error
}

// SchedulePing is C7: it arbitrates which instance of a shared
// scheduleName is the active leader for this process group, pings its
// own liveness on a fixed interval, and cleans stale rows left by
// instances that died without a clean Stop. Exactly one instance ever
// transitions to active per scheduleName at a time (§4.5).
type SchedulePing struct {
	scheduleID   string
	scheduleName string
	pingInterval time.Duration

	execRepo ExecutionsRepository
	lease    Lease
	logger   Logger
	metrics  Metrics

	startAllJobs func()

	timer     *SafeTimer
	mu        sync.Mutex
	handle    TimerHandle
	active    bool
	activated atomic.Bool
}

// NewSchedulePing builds a SchedulePing for scheduleName, identified
// by the unique scheduleID of this process. startAllJobs is invoked
// exactly once, the first time this instance becomes the active
// leader. lease may be nil.
func NewSchedulePing(scheduleID, scheduleName string, pingInterval time.Duration, execRepo ExecutionsRepository, lease Lease, logger Logger, metrics Metrics, startAllJobs func()) *SchedulePing {
	if logger == nil {
		logger = NewNoopLogger()
	}
	if metrics == nil {
		metrics = NewNoopMetrics()
	}
	return &SchedulePing{
		scheduleID:   scheduleID,
		scheduleName: scheduleName,
		pingInterval: pingInterval,
		execRepo:     execRepo,
		lease:        lease,
		logger:       logger,
		metrics:      metrics,
		startAllJobs: startAllJobs,
		timer:        NewSafeTimer(logger),
	}
}

// Start performs the initial leadership arbitration and installs the
// repeating ping/clean/re-arbitrate timer. It is idempotent.
func (p *SchedulePing) Start(ctx context.Context) error {
	p.Stop(ctx)

	if err := p.arbitrate(ctx); err != nil {
		return err
	}

	p.mu.Lock()
	p.handle = p.timer.ScheduleRepeating(ErrorTypeInternalError, func() {
		p.tick(context.Background())
	}, p.pingInterval, p.pingInterval)
	p.mu.Unlock()

	return nil
}

// arbitrate consults the fast-path Redis lease (if configured), then
// the authoritative Postgres state, claiming leadership for
// scheduleName only when both agree no other instance already holds
// it. isActiveSchedule is a read-only check consulted before ever
// attempting the conditional write: an instance that sees another
// live, non-stale active row for scheduleName stays passive and never calls
// setActiveSchedule at all (§4.5). On the first successful claim,
// startAllJobs is invoked exactly once.
func (p *SchedulePing) arbitrate(ctx context.Context) error {
	if p.lease != nil {
		ok, err := p.lease.TryAcquire(ctx, p.scheduleName, p.scheduleID, 2*p.pingInterval)
		if err != nil {
			p.logger.Error("schedulePing/lease", ErrorTypeInternalError, Fields{"scheduleName": p.scheduleName}, err)
		} else if !ok {
			p.setActive(false)
			return nil
		}
	}

	active, err := p.execRepo.IsActiveSchedule(ctx, p.scheduleID, p.scheduleName, p.pingInterval)
	if err != nil {
		return err
	}
	if !active {
		p.setActive(false)
		p.metrics.SetLeader(p.scheduleName, false)
		return nil
	}

	claimed, err := p.execRepo.SetActiveSchedule(ctx, p.scheduleID, p.scheduleName, p.pingInterval)
	if err != nil {
		return err
	}

	p.setActive(claimed)
	if claimed && p.activated.CompareAndSwap(false, true) {
		p.metrics.SetLeader(p.scheduleName, true)
		if p.startAllJobs != nil {
			p.startAllJobs()
		}
	}
	if !claimed {
		p.metrics.SetLeader(p.scheduleName, false)
	}
	return nil
}

func (p *SchedulePing) tick(ctx context.Context) {
	if err := p.execRepo.Ping(ctx, p.scheduleID, p.scheduleName); err != nil {
		p.logger.Error("schedulePing/ping", ErrorTypeInternalError, Fields{"scheduleId": p.scheduleID}, err)
	}
	if err := p.execRepo.Clean(ctx, p.pingInterval); err != nil {
		p.logger.Error("schedulePing/clean", ErrorTypeInternalError, Fields{"scheduleId": p.scheduleID}, err)
	}

	if !p.IsActive() {
		if err := p.arbitrate(ctx); err != nil {
			p.logger.Error("schedulePing/arbitrate", ErrorTypeInternalError, Fields{"scheduleName": p.scheduleName}, err)
		}
	}
}

func (p *SchedulePing) setActive(active bool) {
	p.mu.Lock()
	p.active = active
	p.mu.Unlock()
}

// IsActive reports whether this instance currently believes itself to
// be the active leader for scheduleName.
func (p *SchedulePing) IsActive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Stop cancels the ping timer, releases the lease (if any), and
// removes this instance's liveness row. It is idempotent.
func (p *SchedulePing) Stop(ctx context.Context) {
	p.mu.Lock()
	handle := p.handle
	p.handle = nil
	wasActive := p.active
	p.active = false
	p.mu.Unlock()

	if handle != nil {
		handle.Stop()
	}

	if p.lease != nil && wasActive {
		if err := p.lease.Release(ctx, p.scheduleName, p.scheduleID); err != nil {
			p.logger.Error("schedulePing/lease", ErrorTypeInternalError, Fields{"scheduleName": p.scheduleName}, err)
		}
	}

	if err := p.execRepo.DeleteOne(ctx, p.scheduleID); err != nil {
		p.logger.Error("schedulePing/stop", ErrorTypeInternalError, Fields{"scheduleId": p.scheduleID}, err)
	}
}
