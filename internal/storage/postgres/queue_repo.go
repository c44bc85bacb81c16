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
	// claimAttempts bounds how often Fetch retries one queue after losing
	// the claim to another worker before moving on.
	claimAttempts = 5

	eligibleEntry = "(fetched_at IS NULL OR fetched_at <= ?)"

	// maxQueueNameLen matches the width of the queued_jobs.queue column.
	maxQueueNameLen = 50
)

type QueueRepository struct {
	db *gorm.DB
}

func NewQueueRepository(db *gorm.DB) *QueueRepository {
	return &QueueRepository{db: db}
}

// Enqueue adds a waiting entry for the job on queue. Several entries for the
// same job and queue are allowed.
func (r *QueueRepository) Enqueue(ctx context.Context, jobID uint, queue string, now time.Time) (uint, error) {
	if err := checkQueueName(queue); err != nil {
		return 0, fmt.Errorf("enqueue: %w", err)
	}

	entry := models.QueuedJob{JobID: jobID, Queue: queue, CreatedAt: now.UTC()}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireJob(tx, jobID); err != nil {
			return err
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		return 0, wrapDBError("enqueue", err)
	}
	return entry.ID, nil
}

// Fetch claims the oldest eligible entry across queues, earlier queues
// first. An entry is eligible while it is waiting or once its lease is older
// than leaseTimeout. The claim is a conditional update on the entry row, so
// of several workers racing for one entry exactly one wins. Fetch returns
// nil, nil when nothing could be claimed; it never blocks waiting for work.
func (r *QueueRepository) Fetch(
	ctx context.Context,
	queues []string,
	leaseTimeout time.Duration,
	now time.Time,
) (*models.QueuedJob, error) {
	if len(queues) == 0 {
		return nil, fmt.Errorf("fetch: %w", common.InvalidArgf("no queues given"))
	}
	for _, q := range queues {
		if err := checkQueueName(q); err != nil {
			return nil, fmt.Errorf("fetch: %w", err)
		}
	}
	if leaseTimeout < 0 {
		return nil, fmt.Errorf("fetch: %w", common.InvalidArgf("lease timeout is negative"))
	}

	now = now.UTC()
	cutoff := now.Add(-leaseTimeout)

	for _, queue := range queues {
		for range claimAttempts {
			entry, claimed, err := r.tryClaim(ctx, queue, cutoff, now)
			if err != nil {
				return nil, wrapDBError("fetch", err)
			}
			if entry == nil {
				break
			}
			if claimed {
				return entry, nil
			}
		}
	}
	return nil, nil
}

// tryClaim picks the head candidate of queue and attempts to lease it. It
// returns a nil entry when the queue has no candidate and claimed=false when
// another worker took the candidate first.
func (r *QueueRepository) tryClaim(
	ctx context.Context,
	queue string,
	cutoff, now time.Time,
) (*models.QueuedJob, bool, error) {
	var (
		candidate *models.QueuedJob
		claimed   bool
	)

	claim := func(tx *gorm.DB) error {
		query := tx.Where("queue = ?", queue).
			Where(eligibleEntry, cutoff).
			Order("id").
			Limit(1)
		if isPostgres(tx) {
			query = query.Clauses(clause.Locking{
				Strength: clause.LockingStrengthUpdate,
				Options:  clause.LockingOptionsSkipLocked,
			})
		}

		var entries []models.QueuedJob
		if err := query.Find(&entries).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		candidate = &entries[0]

		res := tx.Model(&models.QueuedJob{}).
			Where("id = ?", candidate.ID).
			Where(eligibleEntry, cutoff).
			Update("fetched_at", now)
		if res.Error != nil {
			return res.Error
		}
		claimed = res.RowsAffected == 1
		return nil
	}

	var err error
	if isPostgres(r.db) {
		// SKIP LOCKED only holds inside a transaction
		err = r.db.WithContext(ctx).Transaction(claim)
	} else {
		err = claim(r.db.WithContext(ctx))
	}
	if err != nil {
		return nil, false, err
	}

	if claimed {
		candidate.FetchedAt = &now
	}
	return candidate, claimed, nil
}

// Requeue releases a claimed entry back to waiting. Its position in the
// queue is unchanged.
func (r *QueueRepository) Requeue(ctx context.Context, entryID uint) error {
	res := r.db.WithContext(ctx).Model(&models.QueuedJob{}).
		Where("id = ?", entryID).
		Update("fetched_at", nil)
	if res.Error != nil {
		return wrapDBError("requeue", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("requeue", "queue entry %d", entryID)
	}
	return nil
}

// Complete removes the entry. Completing an entry that is already gone is
// not an error.
func (r *QueueRepository) Complete(ctx context.Context, entryID uint) error {
	if err := r.db.WithContext(ctx).
		Where("id = ?", entryID).
		Delete(&models.QueuedJob{}).Error; err != nil {
		return wrapDBError("complete", err)
	}
	return nil
}

// CountWaiting counts entries of queue that are not leased.
func (r *QueueRepository) CountWaiting(ctx context.Context, queue string) (int64, error) {
	return r.count(ctx, "count waiting", queue, "fetched_at IS NULL")
}

// CountFetched counts leased entries of queue, including ones whose lease
// has lapsed but that no Fetch has reclaimed yet.
func (r *QueueRepository) CountFetched(ctx context.Context, queue string) (int64, error) {
	return r.count(ctx, "count fetched", queue, "fetched_at IS NOT NULL")
}

func (r *QueueRepository) count(ctx context.Context, op, queue, cond string) (int64, error) {
	if strings.TrimSpace(queue) == "" {
		return 0, fmt.Errorf("%s: %w", op, common.InvalidArgf("queue name is empty"))
	}

	var n int64
	if err := r.db.WithContext(ctx).Model(&models.QueuedJob{}).
		Where("queue = ?", queue).
		Where(cond).
		Count(&n).Error; err != nil {
		return 0, wrapDBError(op, err)
	}
	return n, nil
}

// ListExpiredLeases reports up to limit entries whose lease is older than
// leaseTimeout. It is diagnostic only: the entries stay leased until a Fetch
// reclaims them.
func (r *QueueRepository) ListExpiredLeases(
	ctx context.Context,
	leaseTimeout time.Duration,
	now time.Time,
	limit int,
) ([]models.QueuedJob, error) {
	if limit <= 0 {
		return []models.QueuedJob{}, nil
	}

	var entries []models.QueuedJob
	if err := r.db.WithContext(ctx).
		Where("fetched_at IS NOT NULL AND fetched_at <= ?", now.UTC().Add(-leaseTimeout)).
		Order("id").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, wrapDBError("list expired leases", err)
	}
	return entries, nil
}

func checkQueueName(queue string) error {
	if strings.TrimSpace(queue) == "" {
		return common.InvalidArgf("queue name is empty")
	}
	if utf8.RuneCountInString(queue) > maxQueueNameLen {
		return common.InvalidArgf("queue name exceeds %d characters", maxQueueNameLen)
	}
	return nil
}
