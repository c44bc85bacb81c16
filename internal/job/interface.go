package job

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joshu-sajeev/jobstore/internal/dto"
	"github.com/joshu-sajeev/jobstore/internal/models"
	"github.com/joshu-sajeev/jobstore/internal/storage/postgres"
)

// JobRepoInterface defines the contract for job record operations.
type JobRepoInterface interface {
	Create(ctx context.Context, job *models.Job, initial *models.State, queues []string) error
	Get(ctx context.Context, id uint) (*models.Job, error)
	SetParameter(ctx context.Context, id uint, name, value string) error
	GetParameter(ctx context.Context, id uint, name string) (string, bool, error)
	Expire(ctx context.Context, id uint, at time.Time) error
	Unexpire(ctx context.Context, id uint) error
}

// StateRepoInterface defines the contract for the state history log.
type StateRepoInterface interface {
	Append(ctx context.Context, jobID uint, name, reason string, data map[string]string, now time.Time) (uint, error)
	GetActive(ctx context.Context, jobID uint) (*models.State, error)
	History(ctx context.Context, jobID uint) ([]models.State, error)
}

// MonitoringRepoInterface defines the read-only dashboard queries.
type MonitoringRepoInterface interface {
	ListEnqueuedIDs(ctx context.Context, queue string, offset, count int) ([]string, error)
	ListFetchedIDs(ctx context.Context, queue string, offset, count int) ([]string, error)
	ListQueues(ctx context.Context) ([]string, error)
	QueueStatistics(ctx context.Context, queue string) (postgres.QueueStats, error)
	JobCountsByState(ctx context.Context) (map[string]int64, error)
}

// JobServiceInterface defines the contract for job business logic operations.
type JobServiceInterface interface {
	CreateJob(ctx context.Context, dto *dto.JobCreateDTO) (*dto.JobCreatedDTO, error)
	GetJob(ctx context.Context, id uint) (*dto.JobResponseDTO, error)
	SetParameter(ctx context.Context, id uint, name, value string) error
	GetParameter(ctx context.Context, id uint, name string) (*dto.ParameterDTO, error)
	AppendState(ctx context.Context, id uint, dto *dto.StateAppendDTO) (*dto.StateCreatedDTO, error)
	History(ctx context.Context, id uint) ([]dto.StateDTO, error)
	ExpireJob(ctx context.Context, id uint, dto *dto.ExpireDTO) error
	PersistJob(ctx context.Context, id uint) error
}

// QueueServiceInterface defines the contract for queue monitoring.
type QueueServiceInterface interface {
	ListQueues(ctx context.Context) ([]string, error)
	QueueStatistics(ctx context.Context, queue string) (*dto.QueueStatsDTO, error)
	ListEnqueuedIDs(ctx context.Context, queue string, page dto.PageQueryDTO) (*dto.JobIDPageDTO, error)
	ListFetchedIDs(ctx context.Context, queue string, page dto.PageQueryDTO) (*dto.JobIDPageDTO, error)
	StateCounts(ctx context.Context) (*dto.StateCountsDTO, error)
}

// JobHandlerInterface defines the contract for job HTTP handlers.
type JobHandlerInterface interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	SetParameter(c *gin.Context)
	GetParameter(c *gin.Context)
	AppendState(c *gin.Context)
	History(c *gin.Context)
	Expire(c *gin.Context)
	Persist(c *gin.Context)
}

// QueueHandlerInterface defines the contract for monitoring HTTP handlers.
type QueueHandlerInterface interface {
	List(c *gin.Context)
	Stats(c *gin.Context)
	Enqueued(c *gin.Context)
	Fetched(c *gin.Context)
	StateCounts(c *gin.Context)
}
