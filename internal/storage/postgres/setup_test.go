package postgres

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/joshu-sajeev/jobstore/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var t0 = time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)

func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "jobstore.db") + "?_foreign_keys=on&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent), // Disable logs during tests
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, MigrateModels(db, models.All()...))

	return db
}

// newJob inserts a bare job and returns its id.
func newJob(t *testing.T, db *gorm.DB, args ...string) uint {
	t.Helper()

	job := &models.Job{InvocationType: "Mailer, App", Method: "Send"}
	for _, a := range args {
		job.Arguments = append(job.Arguments, models.JobArgument{Value: a})
	}
	require.NoError(t, NewJobRepository(db).Create(context.Background(), job, nil, nil))
	return job.ID
}

// enqueueN inserts n jobs, each with one waiting entry on queue, and
// returns the entry ids in insertion order.
func enqueueN(t *testing.T, db *gorm.DB, queue string, n int) []uint {
	t.Helper()

	repo := NewQueueRepository(db)
	ids := make([]uint, 0, n)
	for range n {
		id, err := repo.Enqueue(context.Background(), newJob(t, db), queue, t0)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}
