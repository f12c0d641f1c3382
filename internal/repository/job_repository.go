package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/YaniKolev/momo-scheduler/internal/models"
	"github.com/YaniKolev/momo-scheduler/internal/momo"
)

// JobRepository is the GORM-backed implementation of momo.JobRepository,
// generalized from the teacher's webhook-job repository to momo's
// schedule/concurrency/execution-info document.
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new job repository.
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

func toRow(job *momo.JobDefinition) *models.MomoJob {
	row := &models.MomoJob{
		Name:        job.Name,
		Concurrency: job.Concurrency,
		MaxRunning:  job.MaxRunning,
	}

	switch job.Schedule.Kind {
	case momo.ScheduleKindInterval:
		row.ScheduleKind = string(momo.ScheduleKindInterval)
		row.IntervalExpr = job.Schedule.Interval.Interval
		row.FirstRunAfterMs = job.Schedule.Interval.FirstRunAfter.Milliseconds()
	case momo.ScheduleKindCron:
		row.ScheduleKind = string(momo.ScheduleKindCron)
		row.CronExpr = job.Schedule.Cron.CronExpression
	}

	if job.ExecutionInfo != nil {
		row.LastStarted = job.ExecutionInfo.LastStarted
		row.LastFinished = job.ExecutionInfo.LastFinished
		if job.ExecutionInfo.LastResult != nil {
			row.LastResultStatus = string(job.ExecutionInfo.LastResult.Status)
			row.LastResultHandlerResult = job.ExecutionInfo.LastResult.HandlerResult
			row.LastResultErr = job.ExecutionInfo.LastResult.Err
		}
	}

	return row
}

func toDefinition(row *models.MomoJob) *momo.JobDefinition {
	def := &momo.JobDefinition{
		Name:        row.Name,
		Concurrency: row.Concurrency,
		MaxRunning:  row.MaxRunning,
	}

	switch momo.ScheduleKind(row.ScheduleKind) {
	case momo.ScheduleKindInterval:
		def.Schedule = momo.Schedule{
			Kind: momo.ScheduleKindInterval,
			Interval: &momo.IntervalSchedule{
				Interval:      row.IntervalExpr,
				FirstRunAfter: time.Duration(row.FirstRunAfterMs) * time.Millisecond,
			},
		}
	case momo.ScheduleKindCron:
		def.Schedule = momo.Schedule{
			Kind: momo.ScheduleKindCron,
			Cron: &momo.CronSchedule{CronExpression: row.CronExpr},
		}
	}

	if row.LastStarted != nil || row.LastFinished != nil || row.LastResultStatus != "" {
		info := &momo.ExecutionInfo{
			LastStarted:  row.LastStarted,
			LastFinished: row.LastFinished,
		}
		if row.LastResultStatus != "" {
			info.LastResult = &momo.LastResult{
				Status:        momo.ResultStatus(row.LastResultStatus),
				HandlerResult: row.LastResultHandlerResult,
				Err:           row.LastResultErr,
			}
		}
		def.ExecutionInfo = info
	}

	return def
}

// FindOne retrieves a job by name, returning (nil, nil) if absent.
func (r *JobRepository) FindOne(ctx context.Context, name string) (*momo.JobDefinition, error) {
	var row models.MomoJob
	err := r.db.WithContext(ctx).First(&row, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toDefinition(&row), nil
}

// Find retrieves jobs matching filter.
func (r *JobRepository) Find(ctx context.Context, filter momo.JobFilter) ([]momo.JobDefinition, error) {
	query := r.db.WithContext(ctx).Model(&models.MomoJob{})
	if filter.Name != "" {
		query = query.Where("name = ?", filter.Name)
	}

	var rows []models.MomoJob
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	defs := make([]momo.JobDefinition, 0, len(rows))
	for i := range rows {
		defs = append(defs, *toDefinition(&rows[i]))
	}
	return defs, nil
}

// Save upserts job verbatim, including ExecutionInfo. Used for
// whole-record writes outside the Define merge path.
func (r *JobRepository) Save(ctx context.Context, job *momo.JobDefinition) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		UpdateAll: true,
	}).Create(toRow(job)).Error
}

// Define upserts job keyed by Name, merging schedule/concurrency
// fields without touching the survivor's ExecutionInfo (§4.6): the
// conflict clause updates only the columns Define is allowed to
// change, leaving last_started/last_finished/last_result_* alone.
func (r *JobRepository) Define(ctx context.Context, job *momo.JobDefinition) error {
	row := toRow(job)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"schedule_kind", "interval_expr", "first_run_after_ms", "cron_expr",
			"concurrency", "max_running", "updated_at",
		}),
	}).Create(row).Error
}

// UpdateJob applies a partial edit, preserving ExecutionInfo.
func (r *JobRepository) UpdateJob(ctx context.Context, name string, update momo.JobUpdate) error {
	updates := map[string]interface{}{}

	if update.Schedule != nil {
		updates["schedule_kind"] = string(update.Schedule.Kind)
		switch update.Schedule.Kind {
		case momo.ScheduleKindInterval:
			updates["interval_expr"] = update.Schedule.Interval.Interval
			updates["first_run_after_ms"] = update.Schedule.Interval.FirstRunAfter.Milliseconds()
			updates["cron_expr"] = ""
		case momo.ScheduleKindCron:
			updates["cron_expr"] = update.Schedule.Cron.CronExpression
			updates["interval_expr"] = ""
			updates["first_run_after_ms"] = 0
		}
	}
	if update.Concurrency != nil {
		updates["concurrency"] = *update.Concurrency
	}
	if update.MaxRunning != nil {
		updates["max_running"] = *update.MaxRunning
	}
	if len(updates) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Model(&models.MomoJob{}).
		Where("name = ?", name).
		Updates(updates).Error
}

// Check returns just the ExecutionInfo for name, or nil if the job or
// its execution info is absent.
func (r *JobRepository) Check(ctx context.Context, name string) (*momo.ExecutionInfo, error) {
	def, err := r.FindOne(ctx, name)
	if err != nil || def == nil {
		return nil, err
	}
	return def.ExecutionInfo, nil
}

// List returns every persisted job.
func (r *JobRepository) List(ctx context.Context) ([]momo.JobDefinition, error) {
	return r.Find(ctx, momo.JobFilter{})
}

// Delete removes jobs matching filter.
func (r *JobRepository) Delete(ctx context.Context, filter momo.JobFilter) error {
	query := r.db.WithContext(ctx)
	if filter.Name != "" {
		query = query.Where("name = ?", filter.Name)
	}
	return query.Delete(&models.MomoJob{}).Error
}

// RecordStart stamps last_started for name, independent of UpdateJob.
func (r *JobRepository) RecordStart(ctx context.Context, name string, startedAt time.Time) error {
	return r.db.WithContext(ctx).Model(&models.MomoJob{}).
		Where("name = ?", name).
		Update("last_started", startedAt).Error
}

// RecordFinish stamps last_finished and the last result for name,
// independent of UpdateJob.
func (r *JobRepository) RecordFinish(ctx context.Context, name string, finishedAt time.Time, result momo.LastResult) error {
	return r.db.WithContext(ctx).Model(&models.MomoJob{}).
		Where("name = ?", name).
		Updates(map[string]interface{}{
			"last_finished":              finishedAt,
			"last_result_status":         string(result.Status),
			"last_result_handler_result": result.HandlerResult,
			"last_result_err":            result.Err,
		}).Error
}

var _ momo.JobRepository = (*JobRepository)(nil)
