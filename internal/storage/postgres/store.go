package postgres

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories that share one database handle.
type Store struct {
	db *gorm.DB

	Jobs       *JobRepository
	States     *StateRepository
	Queues     *QueueRepository
	Monitoring *MonitoringRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:         db,
		Jobs:       NewJobRepository(db),
		States:     NewStateRepository(db),
		Queues:     NewQueueRepository(db),
		Monitoring: NewMonitoringRepository(db),
	}
}

// Transaction runs fn against a Store bound to one transaction. Repository
// calls inside fn that open their own transaction nest as savepoints, and
// everything commits or rolls back with fn's result.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
