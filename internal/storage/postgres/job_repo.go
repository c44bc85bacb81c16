package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joshu-sajeev/jobstore/common"
	"github.com/joshu-sajeev/jobstore/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	sweepBatchSize = 1000

	// maxParameterNameLen matches the width of the job_parameters.name column.
	maxParameterNameLen = 40
)

type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts job together with its arguments and parameters. Argument
// positions follow slice order. When initial is non-nil it is appended as
// the job's first state, and one waiting entry is added for every queue.
// All rows are written in a single transaction.
func (r *JobRepository) Create(ctx context.Context, job *models.Job, initial *models.State, queues []string) error {
	if job == nil {
		return fmt.Errorf("create job: %w", common.InvalidArgf("job is nil"))
	}
	if strings.TrimSpace(job.InvocationType) == "" || strings.TrimSpace(job.Method) == "" {
		return fmt.Errorf("create job: %w", common.InvalidArgf("invocation type and method are required"))
	}
	for _, q := range queues {
		if err := checkQueueName(q); err != nil {
			return fmt.Errorf("create job: %w", err)
		}
	}
	for _, p := range job.Parameters {
		if err := checkParameterName(p.Name); err != nil {
			return fmt.Errorf("create job: %w", err)
		}
	}
	if initial != nil && strings.TrimSpace(initial.Name) == "" {
		return fmt.Errorf("create job: %w", common.InvalidArgf("state name is empty"))
	}

	for i := range job.Arguments {
		job.Arguments[i].Position = i
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(job).Error; err != nil {
			return err
		}

		if initial != nil {
			initial.JobID = job.ID
			if initial.CreatedAt.IsZero() {
				initial.CreatedAt = job.CreatedAt
			}
			if err := insertState(tx, initial); err != nil {
				return err
			}
			job.StateID = &initial.ID
			job.StateName = initial.Name
			job.States = append(job.States, *initial)
		}

		for _, q := range queues {
			entry := models.QueuedJob{JobID: job.ID, Queue: q, CreatedAt: job.CreatedAt}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
			job.QueuedJobs = append(job.QueuedJobs, entry)
		}
		return nil
	})
	if err != nil {
		return wrapDBError("create job", err)
	}
	return nil
}

// Get loads a job with everything it owns: arguments by position, parameters
// by name, states oldest first and its current queue entries.
func (r *JobRepository) Get(ctx context.Context, id uint) (*models.Job, error) {
	var job models.Job
	err := r.db.WithContext(ctx).
		Preload("Arguments", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Parameters", func(db *gorm.DB) *gorm.DB { return db.Order("name") }).
		Preload("States", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("QueuedJobs", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("id = ?", id).
		Limit(1).
		Find(&job).Error
	if err != nil {
		return nil, wrapDBError("get job", err)
	}
	if job.ID == 0 {
		return nil, notFound("get job", "job %d", id)
	}
	return &job, nil
}

// SetParameter creates or overwrites the named parameter of a job.
func (r *JobRepository) SetParameter(ctx context.Context, id uint, name, value string) error {
	if err := checkParameterName(name); err != nil {
		return fmt.Errorf("set parameter: %w", err)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireJob(tx, id); err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "job_id"}, {Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).Create(&models.JobParameter{JobID: id, Name: name, Value: value}).Error
	})
	if err != nil {
		return wrapDBError("set parameter", err)
	}
	return nil
}

// GetParameter returns the parameter value and whether it exists. A missing
// job reads the same as a missing parameter.
func (r *JobRepository) GetParameter(ctx context.Context, id uint, name string) (string, bool, error) {
	if err := checkParameterName(name); err != nil {
		return "", false, fmt.Errorf("get parameter: %w", err)
	}

	var params []models.JobParameter
	if err := r.db.WithContext(ctx).
		Where("job_id = ? AND name = ?", id, name).
		Limit(1).
		Find(&params).Error; err != nil {
		return "", false, wrapDBError("get parameter", err)
	}
	if len(params) == 0 {
		return "", false, nil
	}
	return params[0].Value, true, nil
}

// Expire marks the job as eligible for removal by SweepExpired once at has
// passed.
func (r *JobRepository) Expire(ctx context.Context, id uint, at time.Time) error {
	at = at.UTC()
	return r.setExpiredAt(ctx, "expire job", id, &at)
}

// Unexpire clears a previously set expiration.
func (r *JobRepository) Unexpire(ctx context.Context, id uint) error {
	return r.setExpiredAt(ctx, "unexpire job", id, nil)
}

func (r *JobRepository) setExpiredAt(ctx context.Context, op string, id uint, at *time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ?", id).
		Update("expired_at", at)
	if res.Error != nil {
		return wrapDBError(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound(op, "job %d", id)
	}
	return nil
}

// SweepExpired deletes every job whose expiration is at or before now,
// together with its arguments, parameters, states and queue entries. Jobs
// are removed in batches; each batch is one transaction, so no entry is
// ever left pointing at a deleted job.
func (r *JobRepository) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	var total int64
	now = now.UTC()

	for {
		if err := ctx.Err(); err != nil {
			return total, fmt.Errorf("sweep expired jobs: %w", err)
		}

		var deleted int64
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var ids []uint
			if err := lockForUpdate(tx.Model(&models.Job{})).
				Where("expired_at IS NOT NULL AND expired_at <= ?", now).
				Order("id").
				Limit(sweepBatchSize).
				Pluck("id", &ids).Error; err != nil {
				return err
			}
			if len(ids) == 0 {
				return nil
			}

			for _, owned := range []any{
				&models.QueuedJob{},
				&models.JobArgument{},
				&models.JobParameter{},
				&models.State{},
			} {
				if err := tx.Where("job_id IN ?", ids).Delete(owned).Error; err != nil {
					return err
				}
			}

			res := tx.Where("id IN ?", ids).Delete(&models.Job{})
			if res.Error != nil {
				return res.Error
			}
			deleted = res.RowsAffected
			return nil
		})
		if err != nil {
			return total, wrapDBError("sweep expired jobs", err)
		}

		total += deleted
		if deleted < sweepBatchSize {
			return total, nil
		}
	}
}

// requireJob fails with ErrNotFound when the job does not exist. On
// postgres the job row stays locked until tx ends.
func requireJob(tx *gorm.DB, id uint) error {
	var ids []uint
	if err := lockForUpdate(tx.Model(&models.Job{})).
		Where("id = ?", id).
		Limit(1).
		Pluck("id", &ids).Error; err != nil {
		return err
	}
	if len(ids) == 0 {
		return fmt.Errorf("%w: job %d", common.ErrNotFound, id)
	}
	return nil
}

func isPostgres(db *gorm.DB) bool {
	return db.Dialector.Name() == DriverPostgres
}

// lockForUpdate adds FOR UPDATE on dialects that support row locks.
func lockForUpdate(db *gorm.DB) *gorm.DB {
	if isPostgres(db) {
		return db.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
	}
	return db
}

func checkParameterName(name string) error {
	if strings.TrimSpace(name) == "" {
		return common.InvalidArgf("parameter name is empty")
	}
	if utf8.RuneCountInString(name) > maxParameterNameLen {
		return common.InvalidArgf("parameter name exceeds %d characters", maxParameterNameLen)
	}
	return nil
}
