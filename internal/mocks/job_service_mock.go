package mocks

import (
	"context"

	"github.com/joshu-sajeev/jobstore/internal/dto"
	"github.com/stretchr/testify/mock"
)

type JobServiceMock struct {
	mock.Mock
}

func (m *JobServiceMock) CreateJob(ctx context.Context, req *dto.JobCreateDTO) (*dto.JobCreatedDTO, error) {
	args := m.Called(ctx, req)

	resp, _ := args.Get(0).(*dto.JobCreatedDTO)
	return resp, args.Error(1)
}

func (m *JobServiceMock) GetJob(ctx context.Context, id uint) (*dto.JobResponseDTO, error) {
	args := m.Called(ctx, id)

	resp, _ := args.Get(0).(*dto.JobResponseDTO)
	return resp, args.Error(1)
}

func (m *JobServiceMock) SetParameter(ctx context.Context, id uint, name, value string) error {
	args := m.Called(ctx, id, name, value)
	return args.Error(0)
}

func (m *JobServiceMock) GetParameter(ctx context.Context, id uint, name string) (*dto.ParameterDTO, error) {
	args := m.Called(ctx, id, name)

	resp, _ := args.Get(0).(*dto.ParameterDTO)
	return resp, args.Error(1)
}

func (m *JobServiceMock) AppendState(ctx context.Context, id uint, req *dto.StateAppendDTO) (*dto.StateCreatedDTO, error) {
	args := m.Called(ctx, id, req)

	resp, _ := args.Get(0).(*dto.StateCreatedDTO)
	return resp, args.Error(1)
}

func (m *JobServiceMock) History(ctx context.Context, id uint) ([]dto.StateDTO, error) {
	args := m.Called(ctx, id)

	states, _ := args.Get(0).([]dto.StateDTO)
	return states, args.Error(1)
}

func (m *JobServiceMock) ExpireJob(ctx context.Context, id uint, req *dto.ExpireDTO) error {
	args := m.Called(ctx, id, req)
	return args.Error(0)
}

func (m *JobServiceMock) PersistJob(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type QueueServiceMock struct {
	mock.Mock
}

func (m *QueueServiceMock) ListQueues(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)

	queues, _ := args.Get(0).([]string)
	return queues, args.Error(1)
}

func (m *QueueServiceMock) QueueStatistics(ctx context.Context, queue string) (*dto.QueueStatsDTO, error) {
	args := m.Called(ctx, queue)

	resp, _ := args.Get(0).(*dto.QueueStatsDTO)
	return resp, args.Error(1)
}

func (m *QueueServiceMock) ListEnqueuedIDs(ctx context.Context, queue string, page dto.PageQueryDTO) (*dto.JobIDPageDTO, error) {
	args := m.Called(ctx, queue, page)

	resp, _ := args.Get(0).(*dto.JobIDPageDTO)
	return resp, args.Error(1)
}

func (m *QueueServiceMock) ListFetchedIDs(ctx context.Context, queue string, page dto.PageQueryDTO) (*dto.JobIDPageDTO, error) {
	args := m.Called(ctx, queue, page)

	resp, _ := args.Get(0).(*dto.JobIDPageDTO)
	return resp, args.Error(1)
}

func (m *QueueServiceMock) StateCounts(ctx context.Context) (*dto.StateCountsDTO, error) {
	args := m.Called(ctx)

	resp, _ := args.Get(0).(*dto.StateCountsDTO)
	return resp, args.Error(1)
}
