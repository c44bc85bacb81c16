package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joshu-sajeev/jobstore/common"
	"github.com/joshu-sajeev/jobstore/internal/config"
	"github.com/joshu-sajeev/jobstore/internal/models"
	"github.com/joshu-sajeev/jobstore/internal/storage/postgres"
)

// maxReasonLen matches the width of the states.reason column.
const maxReasonLen = 100

// HandlerFunc performs one job. A returned error fails the attempt.
type HandlerFunc func(ctx context.Context, job *models.Job) error

// Handlers maps a job's invocation type to the function that performs it.
type Handlers map[string]HandlerFunc

type Worker struct {
	ID       int
	serverID string
	store    *postgres.Store
	handlers Handlers
	cfg      config.WorkerConfig
	now      func() time.Time

	quit     chan struct{}
	stopOnce sync.Once
	started  atomic.Bool
	done     chan struct{}
}

func NewWorker(id int, serverID string, store *postgres.Store, handlers Handlers, cfg config.WorkerConfig) *Worker {
	return &Worker{
		ID:       id,
		serverID: serverID,
		store:    store,
		handlers: handlers,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start polls the configured queues until ctx is done or Stop is called.
// Idle polls back off exponentially from PollInterval up to MaxPollInterval.
// Calling Start more than once has no effect.
func (w *Worker) Start(ctx context.Context) {
	if !w.started.CompareAndSwap(false, true) {
		return
	}

	go func() {
		defer close(w.done)

		select {
		case <-w.quit:
			return
		default:
		}

		currentDelay := w.cfg.PollInterval

		for {
			processed, err := w.RunOnce(ctx)
			if err != nil && ctx.Err() == nil {
				log.Printf("[worker %d][ERROR] %v", w.ID, err)
			}

			if processed {
				currentDelay = w.cfg.PollInterval
				select {
				case <-w.quit:
					return
				case <-ctx.Done():
					return
				default:
					continue
				}
			}

			select {
			case <-time.After(currentDelay):
			case <-w.quit:
				return
			case <-ctx.Done():
				return
			}
			currentDelay = min(currentDelay*2, w.cfg.MaxPollInterval)
		}
	}()
}

// Stop asks the loop to exit and waits for the job in flight to finish.
// A worker that was never started returns immediately and will not run.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.quit) })
	if !w.started.Load() {
		return
	}
	<-w.done
}

// RunOnce claims at most one queue entry and processes it. It reports
// whether an entry was claimed.
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	entry, err := w.store.Queues.Fetch(ctx, w.cfg.Queues, w.cfg.LeaseTimeout, w.now())
	if err != nil {
		return false, fmt.Errorf("fetch: %w", err)
	}
	if entry == nil {
		return false, nil
	}

	return true, w.process(ctx, entry)
}

func (w *Worker) process(ctx context.Context, entry *models.QueuedJob) error {
	job, err := w.store.Jobs.Get(ctx, entry.JobID)
	if errors.Is(err, common.ErrNotFound) {
		log.Printf("[worker %d][WARN] job %d vanished, dropping entry %d", w.ID, entry.JobID, entry.ID)
		return w.store.Queues.Complete(ctx, entry.ID)
	}
	if err != nil {
		return err
	}

	startedAt := w.now()
	if _, err := w.store.States.Append(ctx, job.ID, config.StateProcessing, "", map[string]string{
		"WorkerId":  strconv.Itoa(w.ID),
		"ServerId":  w.serverID,
		"StartedAt": startedAt.Format(time.RFC3339Nano),
	}, startedAt); err != nil {
		return err
	}

	log.Printf("[worker %d] processing job %d (%s.%s) from %q", w.ID, job.ID, job.InvocationType, job.Method, entry.Queue)

	handler, ok := w.handlers[job.InvocationType]
	if !ok {
		return w.fail(ctx, job, entry, fmt.Errorf("no handler registered for %q", job.InvocationType))
	}

	if runErr := handler(ctx, job); runErr != nil {
		if ctx.Err() != nil {
			// shutting down: leave the lease to expire so another worker
			// picks the job up again
			return ctx.Err()
		}
		return w.retryOrFail(ctx, job, entry, runErr)
	}

	return w.succeed(ctx, job, entry, startedAt)
}

func (w *Worker) succeed(ctx context.Context, job *models.Job, entry *models.QueuedJob, startedAt time.Time) error {
	now := w.now()

	err := w.store.Transaction(ctx, func(tx *postgres.Store) error {
		if _, err := tx.States.Append(ctx, job.ID, config.StateSucceeded, "", map[string]string{
			"SucceededAt":         now.Format(time.RFC3339Nano),
			"PerformanceDuration": strconv.FormatInt(now.Sub(startedAt).Milliseconds(), 10),
		}, now); err != nil {
			return err
		}
		if err := tx.Queues.Complete(ctx, entry.ID); err != nil {
			return err
		}
		return tx.Jobs.Expire(ctx, job.ID, now.Add(w.cfg.JobExpiration))
	})
	if err != nil {
		return fmt.Errorf("complete job %d: %w", job.ID, err)
	}

	log.Printf("[worker %d] job %d succeeded", w.ID, job.ID)
	return nil
}

// retryOrFail puts the entry back in line while retries remain, bumping the
// RetryCount parameter. Otherwise the job fails for good.
func (w *Worker) retryOrFail(ctx context.Context, job *models.Job, entry *models.QueuedJob, runErr error) error {
	retries := 0
	if v, ok, err := w.store.Jobs.GetParameter(ctx, job.ID, config.ParamRetryCount); err != nil {
		return err
	} else if ok {
		retries, _ = strconv.Atoi(v)
	}

	if retries >= w.cfg.MaxRetries {
		return w.fail(ctx, job, entry, runErr)
	}

	attempt := retries + 1
	now := w.now()

	err := w.store.Transaction(ctx, func(tx *postgres.Store) error {
		if err := tx.Jobs.SetParameter(ctx, job.ID, config.ParamRetryCount, strconv.Itoa(attempt)); err != nil {
			return err
		}
		reason := truncate(fmt.Sprintf("Retry attempt %d of %d: %v", attempt, w.cfg.MaxRetries, runErr))
		if _, err := tx.States.Append(ctx, job.ID, config.StateEnqueued, reason, map[string]string{
			"Queue":      entry.Queue,
			"EnqueuedAt": now.Format(time.RFC3339Nano),
		}, now); err != nil {
			return err
		}
		return tx.Queues.Requeue(ctx, entry.ID)
	})
	if err != nil {
		return fmt.Errorf("requeue job %d: %w", job.ID, err)
	}

	log.Printf("[worker %d][WARN] job %d failed, retry %d/%d: %v", w.ID, job.ID, attempt, w.cfg.MaxRetries, runErr)
	return nil
}

func (w *Worker) fail(ctx context.Context, job *models.Job, entry *models.QueuedJob, runErr error) error {
	now := w.now()

	err := w.store.Transaction(ctx, func(tx *postgres.Store) error {
		if _, err := tx.States.Append(ctx, job.ID, config.StateFailed, truncate(runErr.Error()), map[string]string{
			"FailedAt":         now.Format(time.RFC3339Nano),
			"ExceptionMessage": runErr.Error(),
		}, now); err != nil {
			return err
		}
		return tx.Queues.Complete(ctx, entry.ID)
	})
	if err != nil {
		return fmt.Errorf("fail job %d: %w", job.ID, err)
	}

	log.Printf("[worker %d][ERROR] job %d failed: %v", w.ID, job.ID, runErr)
	return nil
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxReasonLen {
		return s
	}
	return string(r[:maxReasonLen-3]) + "..."
}
