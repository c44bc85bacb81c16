package job

import (
	"context"
	"net/http"
	"strings"

	"github.com/joshu-sajeev/jobstore/common"
	"github.com/joshu-sajeev/jobstore/internal/config"
	"github.com/joshu-sajeev/jobstore/internal/dto"
)

// QueueService serves the read-only monitoring views over queues and states.
type QueueService struct {
	repo MonitoringRepoInterface
}

func NewQueueService(repo MonitoringRepoInterface) *QueueService {
	return &QueueService{repo: repo}
}

var _ QueueServiceInterface = (*QueueService)(nil)

func (s *QueueService) ListQueues(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request timed out")
	}

	queues, err := s.repo.ListQueues(ctx)
	if err != nil {
		return nil, toAPIError(err, "failed to list queues")
	}
	return queues, nil
}

func (s *QueueService) QueueStatistics(ctx context.Context, queue string) (*dto.QueueStatsDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request timed out")
	}
	if strings.TrimSpace(queue) == "" {
		return nil, common.Errf(http.StatusBadRequest, "queue name must not be empty")
	}

	stats, err := s.repo.QueueStatistics(ctx, queue)
	if err != nil {
		return nil, toAPIError(err, "failed to load queue statistics")
	}

	return &dto.QueueStatsDTO{
		Queue:    queue,
		Enqueued: stats.Enqueued,
		Fetched:  stats.Fetched,
	}, nil
}

// ListEnqueuedIDs pages through the job ids waiting on queue.
func (s *QueueService) ListEnqueuedIDs(ctx context.Context, queue string, page dto.PageQueryDTO) (*dto.JobIDPageDTO, error) {
	return s.listIDs(ctx, queue, page, s.repo.ListEnqueuedIDs, "failed to list enqueued jobs")
}

// ListFetchedIDs pages through the job ids currently leased from queue.
func (s *QueueService) ListFetchedIDs(ctx context.Context, queue string, page dto.PageQueryDTO) (*dto.JobIDPageDTO, error) {
	return s.listIDs(ctx, queue, page, s.repo.ListFetchedIDs, "failed to list fetched jobs")
}

func (s *QueueService) listIDs(
	ctx context.Context,
	queue string,
	page dto.PageQueryDTO,
	list func(ctx context.Context, queue string, offset, count int) ([]string, error),
	fallback string,
) (*dto.JobIDPageDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request timed out")
	}
	if strings.TrimSpace(queue) == "" {
		return nil, common.Errf(http.StatusBadRequest, "queue name must not be empty")
	}

	offset := max(page.Offset, 0)
	count := page.Count
	if count <= 0 {
		count = config.DefaultPageSize
	}
	count = min(count, config.MaxPageSize)

	ids, err := list(ctx, queue, offset, count)
	if err != nil {
		return nil, toAPIError(err, fallback)
	}

	return &dto.JobIDPageDTO{
		Queue:  queue,
		Offset: offset,
		Count:  count,
		JobIDs: ids,
	}, nil
}

func (s *QueueService) StateCounts(ctx context.Context) (*dto.StateCountsDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request timed out")
	}

	counts, err := s.repo.JobCountsByState(ctx)
	if err != nil {
		return nil, toAPIError(err, "failed to count jobs by state")
	}
	return &dto.StateCountsDTO{Counts: counts}, nil
}
