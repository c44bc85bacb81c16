package job

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/joshu-sajeev/jobstore/common"
	"github.com/joshu-sajeev/jobstore/internal/config"
	"github.com/joshu-sajeev/jobstore/internal/dto"
	"github.com/joshu-sajeev/jobstore/internal/mocks"
	"github.com/joshu-sajeev/jobstore/internal/storage/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestQueueService_ListIDs_Paging(t *testing.T) {
	tests := []struct {
		name       string
		page       dto.PageQueryDTO
		wantOffset int
		wantCount  int
	}{
		{name: "defaults", page: dto.PageQueryDTO{}, wantOffset: 0, wantCount: config.DefaultPageSize},
		{name: "explicit", page: dto.PageQueryDTO{Offset: 10, Count: 5}, wantOffset: 10, wantCount: 5},
		{name: "negative offset", page: dto.PageQueryDTO{Offset: -3, Count: 5}, wantOffset: 0, wantCount: 5},
		{name: "clamped count", page: dto.PageQueryDTO{Count: 5000}, wantOffset: 0, wantCount: config.MaxPageSize},
		{name: "negative count", page: dto.PageQueryDTO{Count: -1}, wantOffset: 0, wantCount: config.DefaultPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mocks.MonitoringRepoMock)
			repo.On("ListEnqueuedIDs", mock.Anything, "default", tt.wantOffset, tt.wantCount).
				Return([]string{"1"}, nil)

			resp, err := NewQueueService(repo).ListEnqueuedIDs(context.Background(), "default", tt.page)

			require.NoError(t, err)
			assert.Equal(t, tt.wantOffset, resp.Offset)
			assert.Equal(t, tt.wantCount, resp.Count)
			assert.Equal(t, []string{"1"}, resp.JobIDs)
			repo.AssertExpectations(t)
		})
	}
}

func TestQueueService_ListFetchedIDs(t *testing.T) {
	repo := new(mocks.MonitoringRepoMock)
	repo.On("ListFetchedIDs", mock.Anything, "critical", 0, 2).Return([]string{"4", "9"}, nil)
	svc := NewQueueService(repo)

	resp, err := svc.ListFetchedIDs(context.Background(), "critical", dto.PageQueryDTO{Count: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"4", "9"}, resp.JobIDs)

	_, err = svc.ListFetchedIDs(context.Background(), " ", dto.PageQueryDTO{})
	assertAPIStatus(t, err, http.StatusBadRequest)
}

func TestQueueService_QueueStatistics(t *testing.T) {
	repo := new(mocks.MonitoringRepoMock)
	repo.On("QueueStatistics", mock.Anything, "default").
		Return(postgres.QueueStats{Enqueued: 3, Fetched: 1}, nil)
	repo.On("QueueStatistics", mock.Anything, "broken").
		Return(postgres.QueueStats{}, fmt.Errorf("queue statistics: %w", common.ErrStorageUnavailable))
	svc := NewQueueService(repo)

	stats, err := svc.QueueStatistics(context.Background(), "default")
	require.NoError(t, err)
	assert.Equal(t, &dto.QueueStatsDTO{Queue: "default", Enqueued: 3, Fetched: 1}, stats)

	_, err = svc.QueueStatistics(context.Background(), "broken")
	assertAPIStatus(t, err, http.StatusServiceUnavailable)

	_, err = svc.QueueStatistics(context.Background(), "")
	assertAPIStatus(t, err, http.StatusBadRequest)
}

func TestQueueService_ListQueuesAndStateCounts(t *testing.T) {
	repo := new(mocks.MonitoringRepoMock)
	repo.On("ListQueues", mock.Anything).Return([]string{"a", "b"}, nil)
	repo.On("JobCountsByState", mock.Anything).Return(map[string]int64{"Succeeded": 2}, nil)
	svc := NewQueueService(repo)

	queues, err := svc.ListQueues(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, queues)

	counts, err := svc.StateCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts.Counts["Succeeded"])

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.ListQueues(ctx)
	assertAPIStatus(t, err, http.StatusRequestTimeout)
}
