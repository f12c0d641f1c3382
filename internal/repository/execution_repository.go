package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/YaniKolev/momo-scheduler/internal/models"
	"github.com/YaniKolev/momo-scheduler/internal/momo"
)

// ExecutionRepository is the GORM-backed implementation of
// momo.ExecutionsRepository: running-execution admission control plus
// the liveness/leadership bookkeeping SchedulePing relies on.
type ExecutionRepository struct {
	db *gorm.DB
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(db *gorm.DB) *ExecutionRepository {
	return &ExecutionRepository{db: db}
}

// AddExecution atomically increments the running count for
// (scheduleID, jobName) unless maxRunning > 0 and the global count
// across all schedule IDs is already at or above maxRunning. The
// check-then-write runs inside one serializable-enough transaction:
// row locks on every existing (*, jobName) row prevent a concurrent
// AddExecution from observing a stale sum.
func (r *ExecutionRepository) AddExecution(ctx context.Context, scheduleID, jobName string, maxRunning int) (momo.AddExecutionResult, error) {
	var result momo.AddExecutionResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []models.MomoExecution
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("job_name = ?", jobName).Find(&rows).Error; err != nil {
			return err
		}

		total := 0
		ownRunning := 0
		for _, row := range rows {
			total += row.Running
			if row.ScheduleID == scheduleID {
				ownRunning = row.Running
			}
		}

		if maxRunning > 0 && total >= maxRunning {
			result = momo.AddExecutionResult{Added: false, Running: total}
			return nil
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "schedule_id"}, {Name: "job_name"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"running": gorm.Expr("momo_executions.running + 1")}),
		}).Create(&models.MomoExecution{ScheduleID: scheduleID, JobName: jobName, Running: ownRunning + 1}).Error; err != nil {
			return err
		}

		result = momo.AddExecutionResult{Added: true, Running: total + 1}
		return nil
	})

	return result, err
}

// RemoveExecution decrements the running count, floored at 0.
func (r *ExecutionRepository) RemoveExecution(ctx context.Context, scheduleID, jobName string) error {
	return r.db.WithContext(ctx).Model(&models.MomoExecution{}).
		Where("schedule_id = ? AND job_name = ?", scheduleID, jobName).
		Update("running", gorm.Expr("GREATEST(running - 1, 0)")).Error
}

// CountRunningExecutions sums the running count for jobName across
// all schedule IDs.
func (r *ExecutionRepository) CountRunningExecutions(ctx context.Context, jobName string) (int, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.MomoExecution{}).
		Where("job_name = ?", jobName).
		Select("COALESCE(SUM(running), 0)").
		Scan(&total).Error
	return int(total), err
}

// RemoveJob deletes all running records for (scheduleID, jobName).
func (r *ExecutionRepository) RemoveJob(ctx context.Context, scheduleID, jobName string) error {
	return r.db.WithContext(ctx).
		Where("schedule_id = ? AND job_name = ?", scheduleID, jobName).
		Delete(&models.MomoExecution{}).Error
}

// Ping upserts this instance's liveness timestamp: the row is
// created on the first call for scheduleID and its last_ping (and
// scheduleName) refreshed on every later one, whether or not this
// instance currently holds leadership. IsActive is deliberately left
// out of the conflict clause's updates, so pinging never clobbers a
// leadership claim made by SetActiveSchedule.
func (r *ExecutionRepository) Ping(ctx context.Context, scheduleID, scheduleName string) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "schedule_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"schedule_name", "last_ping"}),
	}).Create(&models.MomoScheduleLiveness{
		ScheduleID:   scheduleID,
		ScheduleName: scheduleName,
		LastPing:     time.Now(),
		IsActive:     false,
	}).Error
}

// Clean deletes liveness rows and execution rows whose scheduleID has
// gone stale (no liveness row within 2*pingInterval).
func (r *ExecutionRepository) Clean(ctx context.Context, pingInterval time.Duration) error {
	cutoff := time.Now().Add(-2 * pingInterval)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var staleIDs []string
		if err := tx.Model(&models.MomoScheduleLiveness{}).
			Where("last_ping < ?", cutoff).
			Pluck("schedule_id", &staleIDs).Error; err != nil {
			return err
		}
		if len(staleIDs) == 0 {
			return nil
		}

		if err := tx.Where("schedule_id IN ?", staleIDs).Delete(&models.MomoScheduleLiveness{}).Error; err != nil {
			return err
		}
		return tx.Where("schedule_id IN ?", staleIDs).Delete(&models.MomoExecution{}).Error
	})
}

// IsActiveSchedule reports whether no live, non-stale row with
// IsActive set exists for scheduleName other than our own. Every
// instance has its own liveness row once it has pinged at least once,
// so the check only ever looks at the IsActive flag, not mere row
// presence.
func (r *ExecutionRepository) IsActiveSchedule(ctx context.Context, scheduleID, scheduleName string, pingInterval time.Duration) (bool, error) {
	cutoff := time.Now().Add(-2 * pingInterval)

	var count int64
	err := r.db.WithContext(ctx).Model(&models.MomoScheduleLiveness{}).
		Where("schedule_name = ? AND schedule_id <> ? AND is_active = ? AND last_ping >= ?", scheduleName, scheduleID, true, cutoff).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

// SetActiveSchedule attempts the conditional upsert that claims
// leadership for scheduleName; it succeeds only if no other
// non-stale row for that name already has IsActive set. The check and
// the upsert happen inside one transaction with a locking read,
// closing the race two instances would otherwise have between
// IsActiveSchedule's read and their own write.
func (r *ExecutionRepository) SetActiveSchedule(ctx context.Context, scheduleID, scheduleName string, pingInterval time.Duration) (bool, error) {
	claimed := false
	cutoff := time.Now().Add(-2 * pingInterval)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []models.MomoScheduleLiveness
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("schedule_name = ?", scheduleName).Find(&rows).Error; err != nil {
			return err
		}

		for _, row := range rows {
			if row.ScheduleID != scheduleID && row.IsActive && row.LastPing.After(cutoff) {
				return nil
			}
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "schedule_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"schedule_name", "last_ping", "is_active"}),
		}).Create(&models.MomoScheduleLiveness{
			ScheduleID:   scheduleID,
			ScheduleName: scheduleName,
			LastPing:     time.Now(),
			IsActive:     true,
		}).Error; err != nil {
			return err
		}

		claimed = true
		return nil
	})

	return claimed, err
}

// DeleteOne removes this instance's liveness row.
func (r *ExecutionRepository) DeleteOne(ctx context.Context, scheduleID string) error {
	return r.db.WithContext(ctx).Where("schedule_id = ?", scheduleID).Delete(&models.MomoScheduleLiveness{}).Error
}

// ListLiveness returns every live, non-stale liveness row for
// scheduleName, ordered by scheduleID for a stable admin API response.
func (r *ExecutionRepository) ListLiveness(ctx context.Context, scheduleName string, pingInterval time.Duration) ([]momo.LivenessRow, error) {
	cutoff := time.Now().Add(-2 * pingInterval)

	var rows []models.MomoScheduleLiveness
	if err := r.db.WithContext(ctx).
		Where("schedule_name = ? AND last_ping >= ?", scheduleName, cutoff).
		Order("schedule_id").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]momo.LivenessRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, momo.LivenessRow{ScheduleID: row.ScheduleID, LastPing: row.LastPing, IsActive: row.IsActive})
	}
	return out, nil
}

var _ momo.ExecutionsRepository = (*ExecutionRepository)(nil)
