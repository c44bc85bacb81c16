package worker

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/joshu-sajeev/jobstore/internal/config"
	"github.com/joshu-sajeev/jobstore/internal/models"
	"github.com/joshu-sajeev/jobstore/internal/storage/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func setupStore(t *testing.T) *postgres.Store {
	t.Helper()

	ctx := context.Background()
	db, err := postgres.ConnectDB(ctx, &postgres.Config{
		Driver:     postgres.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "worker.db"),
		MaxRetries: 1,
		RetryDelay: time.Millisecond,
		LogLevel:   logger.Silent,
	})
	require.NoError(t, err)
	require.NoError(t, postgres.Migrate(ctx, db))

	store := postgres.NewStore(db)
	t.Cleanup(func() { store.Close() })
	return store
}

func testConfig() config.WorkerConfig {
	return config.WorkerConfig{
		Count:           1,
		Queues:          []string{"critical", "default"},
		LeaseTimeout:    time.Minute,
		PollInterval:    10 * time.Millisecond,
		MaxPollInterval: 50 * time.Millisecond,
		SweepInterval:   time.Second,
		JobExpiration:   24 * time.Hour,
		MaxRetries:      1,
	}
}

func createJob(t *testing.T, store *postgres.Store, invocationType, queue string) uint {
	t.Helper()

	job := &models.Job{InvocationType: invocationType, Method: "Run"}
	initial := &models.State{Name: config.StateEnqueued, CreatedAt: t0}
	require.NoError(t, store.Jobs.Create(context.Background(), job, initial, []string{queue}))
	return job.ID
}

func stateNames(t *testing.T, store *postgres.Store, jobID uint) []string {
	t.Helper()

	history, err := store.States.History(context.Background(), jobID)
	require.NoError(t, err)

	names := make([]string, 0, len(history))
	for _, st := range history {
		names = append(names, st.Name)
	}
	return names
}

func newTestWorker(store *postgres.Store, handlers Handlers) *Worker {
	w := NewWorker(1, "server-1", store, handlers, testConfig())
	w.now = func() time.Time { return t0 }
	return w
}

func TestWorker_RunOnce_Success(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	jobID := createJob(t, store, "Mailer", "default")

	var seen uint
	w := newTestWorker(store, Handlers{
		"Mailer": func(ctx context.Context, job *models.Job) error {
			seen = job.ID
			return nil
		},
	})

	processed, err := w.RunOnce(ctx)
	require.NoError(t, err)
	assert.True(t, processed)
	assert.Equal(t, jobID, seen)

	assert.Equal(t, []string{config.StateEnqueued, config.StateProcessing, config.StateSucceeded}, stateNames(t, store, jobID))

	history, err := store.States.History(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, "1", history[1].Data.Data()["WorkerId"])
	assert.Equal(t, "server-1", history[1].Data.Data()["ServerId"])

	job, err := store.Jobs.Get(ctx, jobID)
	require.NoError(t, err)
	assert.Empty(t, job.QueuedJobs, "completed entry is removed")
	require.NotNil(t, job.ExpiredAt)
	assert.True(t, job.ExpiredAt.Equal(t0.Add(24*time.Hour)))

	processed, err = w.RunOnce(ctx)
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestWorker_RunOnce_RetryThenFail(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	jobID := createJob(t, store, "Flaky", "default")

	var calls int
	w := newTestWorker(store, Handlers{
		"Flaky": func(ctx context.Context, job *models.Job) error {
			calls++
			return errors.New("boom")
		},
	})

	processed, err := w.RunOnce(ctx)
	require.NoError(t, err)
	require.True(t, processed)

	active, err := store.States.GetActive(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, config.StateEnqueued, active.Name)
	assert.Equal(t, "Retry attempt 1 of 1: boom", active.Reason)

	retries, ok, err := store.Jobs.GetParameter(ctx, jobID, config.ParamRetryCount)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", retries)

	waiting, err := store.Queues.CountWaiting(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, int64(1), waiting, "entry goes back to waiting")

	processed, err = w.RunOnce(ctx)
	require.NoError(t, err)
	require.True(t, processed)
	assert.Equal(t, 2, calls)

	assert.Equal(t, []string{
		config.StateEnqueued,
		config.StateProcessing,
		config.StateEnqueued,
		config.StateProcessing,
		config.StateFailed,
	}, stateNames(t, store, jobID))

	job, err := store.Jobs.Get(ctx, jobID)
	require.NoError(t, err)
	assert.Empty(t, job.QueuedJobs)
	assert.Nil(t, job.ExpiredAt, "failed jobs are kept")
}

func TestWorker_RunOnce_NoHandler(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	jobID := createJob(t, store, "Unknown", "critical")

	w := newTestWorker(store, Handlers{})

	processed, err := w.RunOnce(ctx)
	require.NoError(t, err)
	require.True(t, processed)

	active, err := store.States.GetActive(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, config.StateFailed, active.Name)
	assert.Contains(t, active.Reason, `no handler registered for "Unknown"`)

	_, ok, err := store.Jobs.GetParameter(ctx, jobID, config.ParamRetryCount)
	require.NoError(t, err)
	assert.False(t, ok, "missing handlers are not retried")
}

func TestWorker_RunOnce_QueueOrder(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	low := createJob(t, store, "Job", "default")
	high := createJob(t, store, "Job", "critical")

	var order []uint
	w := newTestWorker(store, Handlers{
		"Job": func(ctx context.Context, job *models.Job) error {
			order = append(order, job.ID)
			return nil
		},
	})

	for range 2 {
		_, err := w.RunOnce(ctx)
		require.NoError(t, err)
	}

	assert.Equal(t, []uint{high, low}, order)
}

func TestWorker_StartStop(t *testing.T) {
	store := setupStore(t)
	for range 3 {
		createJob(t, store, "Counter", "default")
	}

	var count atomic.Int32
	done := make(chan struct{})

	w := NewWorker(1, "server-1", store, Handlers{
		"Counter": func(ctx context.Context, job *models.Job) error {
			if count.Add(1) == 3 {
				close(done)
			}
			return nil
		},
	}, testConfig())

	w.Start(context.Background())

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not drain the queue")
	}

	w.Stop()
	w.Stop()

	assert.Equal(t, int32(3), count.Load())
}

func TestWorker_StopWithoutStart(t *testing.T) {
	store := setupStore(t)
	createJob(t, store, "Counter", "default")

	var count atomic.Int32
	w := NewWorker(1, "server-1", store, Handlers{
		"Counter": func(ctx context.Context, job *models.Job) error {
			count.Add(1)
			return nil
		},
	}, testConfig())

	stopped := make(chan struct{})
	go func() {
		w.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked on a worker that was never started")
	}

	// A stopped worker exits its loop before claiming anything.
	w.Start(context.Background())
	w.Stop()
	assert.Equal(t, int32(0), count.Load())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short"))

	long := strings.Repeat("x", 150)
	got := truncate(long)
	assert.Len(t, got, maxReasonLen)
	assert.True(t, strings.HasSuffix(got, "..."))
}
