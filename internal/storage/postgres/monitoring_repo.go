package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/joshu-sajeev/jobstore/common"
	"github.com/joshu-sajeev/jobstore/internal/models"
	"gorm.io/gorm"
)

// QueueStats holds entry counts of one queue.
type QueueStats struct {
	Enqueued int64
	Fetched  int64
}

// MonitoringRepository answers dashboard queries. It only reads and takes no
// locks, so results may trail concurrent writers slightly.
type MonitoringRepository struct {
	db *gorm.DB
}

func NewMonitoringRepository(db *gorm.DB) *MonitoringRepository {
	return &MonitoringRepository{db: db}
}

// ListEnqueuedIDs returns job ids of the waiting entries of queue in arrival
// order, skipping offset entries and returning at most count ids.
func (r *MonitoringRepository) ListEnqueuedIDs(ctx context.Context, queue string, offset, count int) ([]string, error) {
	return r.listJobIDs(ctx, "list enqueued ids", queue, "fetched_at IS NULL", offset, count)
}

// ListFetchedIDs is ListEnqueuedIDs over leased entries.
func (r *MonitoringRepository) ListFetchedIDs(ctx context.Context, queue string, offset, count int) ([]string, error) {
	return r.listJobIDs(ctx, "list fetched ids", queue, "fetched_at IS NOT NULL", offset, count)
}

func (r *MonitoringRepository) listJobIDs(
	ctx context.Context,
	op, queue, cond string,
	offset, count int,
) ([]string, error) {
	if strings.TrimSpace(queue) == "" {
		return nil, fmt.Errorf("%s: %w", op, common.InvalidArgf("queue name is empty"))
	}

	offset = max(offset, 0)
	if count <= 0 {
		return []string{}, nil
	}

	var jobIDs []uint
	if err := r.db.WithContext(ctx).Model(&models.QueuedJob{}).
		Where("queue = ?", queue).
		Where(cond).
		Order("id").
		Offset(offset).
		Limit(count).
		Pluck("job_id", &jobIDs).Error; err != nil {
		return nil, wrapDBError(op, err)
	}

	ids := make([]string, len(jobIDs))
	for i, id := range jobIDs {
		ids[i] = strconv.FormatUint(uint64(id), 10)
	}
	return ids, nil
}

// ListQueues returns the distinct names of queues holding entries, sorted.
func (r *MonitoringRepository) ListQueues(ctx context.Context) ([]string, error) {
	var queues []string
	if err := r.db.WithContext(ctx).Model(&models.QueuedJob{}).
		Distinct("queue").
		Order("queue").
		Pluck("queue", &queues).Error; err != nil {
		return nil, wrapDBError("list queues", err)
	}
	if queues == nil {
		queues = []string{}
	}
	return queues, nil
}

// QueueStatistics counts waiting and leased entries of queue in one pass.
// An unknown queue yields zero counts.
func (r *MonitoringRepository) QueueStatistics(ctx context.Context, queue string) (QueueStats, error) {
	if strings.TrimSpace(queue) == "" {
		return QueueStats{}, fmt.Errorf("queue statistics: %w", common.InvalidArgf("queue name is empty"))
	}

	var stats QueueStats
	if err := r.db.WithContext(ctx).Model(&models.QueuedJob{}).
		Select(
			"COUNT(CASE WHEN fetched_at IS NULL THEN 1 END) AS enqueued, " +
				"COUNT(fetched_at) AS fetched",
		).
		Where("queue = ?", queue).
		Scan(&stats).Error; err != nil {
		return QueueStats{}, wrapDBError("queue statistics", err)
	}
	return stats, nil
}

// JobCountsByState groups jobs by the name of their active state. Jobs that
// never had a state are left out.
func (r *MonitoringRepository) JobCountsByState(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		StateName string
		Count     int64
	}
	if err := r.db.WithContext(ctx).Model(&models.Job{}).
		Select("state_name, COUNT(*) AS count").
		Where("state_name <> ''").
		Group("state_name").
		Scan(&rows).Error; err != nil {
		return nil, wrapDBError("job counts by state", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.StateName] = row.Count
	}
	return counts, nil
}
