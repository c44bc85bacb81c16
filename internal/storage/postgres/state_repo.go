package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/joshu-sajeev/jobstore/common"
	"github.com/joshu-sajeev/jobstore/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type StateRepository struct {
	db *gorm.DB
}

func NewStateRepository(db *gorm.DB) *StateRepository {
	return &StateRepository{db: db}
}

// Append records a state transition and makes it the job's active state.
// Both writes commit together. Queue membership is left untouched.
func (r *StateRepository) Append(
	ctx context.Context,
	jobID uint,
	name, reason string,
	data map[string]string,
	now time.Time,
) (uint, error) {
	if strings.TrimSpace(name) == "" {
		return 0, fmt.Errorf("append state: %w", common.InvalidArgf("state name is empty"))
	}

	state := models.State{
		JobID:     jobID,
		Name:      name,
		Reason:    reason,
		CreatedAt: now.UTC(),
		Data:      datatypes.NewJSONType(data),
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireJob(tx, jobID); err != nil {
			return err
		}
		return insertState(tx, &state)
	})
	if err != nil {
		return 0, wrapDBError("append state", err)
	}
	return state.ID, nil
}

// GetActive returns the job's current state, or nil when no transition has
// been recorded yet.
func (r *StateRepository) GetActive(ctx context.Context, jobID uint) (*models.State, error) {
	var jobs []models.Job
	if err := r.db.WithContext(ctx).
		Select("id", "state_id").
		Where("id = ?", jobID).
		Limit(1).
		Find(&jobs).Error; err != nil {
		return nil, wrapDBError("get active state", err)
	}
	if len(jobs) == 0 {
		return nil, notFound("get active state", "job %d", jobID)
	}
	if jobs[0].StateID == nil {
		return nil, nil
	}

	var state models.State
	if err := r.db.WithContext(ctx).
		Where("id = ? AND job_id = ?", *jobs[0].StateID, jobID).
		Take(&state).Error; err != nil {
		return nil, wrapDBError("get active state", err)
	}
	return &state, nil
}

// History returns all states of a job, oldest first.
func (r *StateRepository) History(ctx context.Context, jobID uint) ([]models.State, error) {
	var states []models.State
	if err := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("id").
		Find(&states).Error; err != nil {
		return nil, wrapDBError("state history", err)
	}
	return states, nil
}

// insertState writes state and repoints its job at it. The caller owns tx.
func insertState(tx *gorm.DB, state *models.State) error {
	if err := tx.Create(state).Error; err != nil {
		return err
	}

	res := tx.Model(&models.Job{}).
		Where("id = ?", state.JobID).
		Updates(map[string]any{
			"state_id":   state.ID,
			"state_name": state.Name,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: job %d", common.ErrNotFound, state.JobID)
	}
	return nil
}
