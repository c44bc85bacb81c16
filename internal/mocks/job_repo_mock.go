package mocks

import (
	"context"
	"time"

	"github.com/joshu-sajeev/jobstore/internal/models"
	"github.com/joshu-sajeev/jobstore/internal/storage/postgres"
	"github.com/stretchr/testify/mock"
)

type JobRepoMock struct {
	mock.Mock
}

func (m *JobRepoMock) Create(ctx context.Context, job *models.Job, initial *models.State, queues []string) error {
	args := m.Called(ctx, job, initial, queues)
	return args.Error(0)
}

func (m *JobRepoMock) Get(ctx context.Context, id uint) (*models.Job, error) {
	args := m.Called(ctx, id)

	job, _ := args.Get(0).(*models.Job)
	return job, args.Error(1)
}

func (m *JobRepoMock) SetParameter(ctx context.Context, id uint, name, value string) error {
	args := m.Called(ctx, id, name, value)
	return args.Error(0)
}

func (m *JobRepoMock) GetParameter(ctx context.Context, id uint, name string) (string, bool, error) {
	args := m.Called(ctx, id, name)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *JobRepoMock) Expire(ctx context.Context, id uint, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *JobRepoMock) Unexpire(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type StateRepoMock struct {
	mock.Mock
}

func (m *StateRepoMock) Append(
	ctx context.Context,
	jobID uint,
	name, reason string,
	data map[string]string,
	now time.Time,
) (uint, error) {
	args := m.Called(ctx, jobID, name, reason, data, now)
	return args.Get(0).(uint), args.Error(1)
}

func (m *StateRepoMock) GetActive(ctx context.Context, jobID uint) (*models.State, error) {
	args := m.Called(ctx, jobID)

	state, _ := args.Get(0).(*models.State)
	return state, args.Error(1)
}

func (m *StateRepoMock) History(ctx context.Context, jobID uint) ([]models.State, error) {
	args := m.Called(ctx, jobID)

	states, _ := args.Get(0).([]models.State)
	return states, args.Error(1)
}

type MonitoringRepoMock struct {
	mock.Mock
}

func (m *MonitoringRepoMock) ListEnqueuedIDs(ctx context.Context, queue string, offset, count int) ([]string, error) {
	args := m.Called(ctx, queue, offset, count)

	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *MonitoringRepoMock) ListFetchedIDs(ctx context.Context, queue string, offset, count int) ([]string, error) {
	args := m.Called(ctx, queue, offset, count)

	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *MonitoringRepoMock) ListQueues(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)

	queues, _ := args.Get(0).([]string)
	return queues, args.Error(1)
}

func (m *MonitoringRepoMock) QueueStatistics(ctx context.Context, queue string) (postgres.QueueStats, error) {
	args := m.Called(ctx, queue)
	return args.Get(0).(postgres.QueueStats), args.Error(1)
}

func (m *MonitoringRepoMock) JobCountsByState(ctx context.Context) (map[string]int64, error) {
	args := m.Called(ctx)

	counts, _ := args.Get(0).(map[string]int64)
	return counts, args.Error(1)
}
