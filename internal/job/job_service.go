package job

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joshu-sajeev/jobstore/common"
	"github.com/joshu-sajeev/jobstore/internal/config"
	"github.com/joshu-sajeev/jobstore/internal/dto"
	"github.com/joshu-sajeev/jobstore/internal/models"
	"github.com/joshu-sajeev/jobstore/middleware"
	"gorm.io/datatypes"
)

var validate = validator.New()

type JobService struct {
	jobs   JobRepoInterface
	states StateRepoInterface
	now    func() time.Time
}

func NewJobService(jobs JobRepoInterface, states StateRepoInterface) *JobService {
	return &JobService{
		jobs:   jobs,
		states: states,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

var _ JobServiceInterface = (*JobService)(nil)

// CreateJob stores a new job together with its arguments, parameters and an
// Enqueued state, and places it on every requested queue. Jobs created
// without queues go to the default queue.
func (s *JobService) CreateJob(ctx context.Context, req *dto.JobCreateDTO) (*dto.JobCreatedDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request canceled or timed out")
	}
	if err := validateDTO(req); err != nil {
		return nil, err
	}

	queues := make([]string, 0, len(req.Queues))
	for _, q := range req.Queues {
		q = strings.TrimSpace(q)
		if q == "" {
			return nil, common.Errf(http.StatusBadRequest, "queue name must not be empty")
		}
		queues = append(queues, q)
	}
	if len(queues) == 0 {
		queues = []string{config.DefaultQueue}
	}

	now := s.now()

	job := models.Job{
		InvocationType: req.InvocationType,
		Method:         req.Method,
	}
	for _, arg := range req.Arguments {
		job.Arguments = append(job.Arguments, models.JobArgument{Value: arg})
	}

	names := make([]string, 0, len(req.Parameters))
	for name := range req.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		job.Parameters = append(job.Parameters, models.JobParameter{
			Name:  name,
			Value: req.Parameters[name],
		})
	}

	initial := &models.State{
		Name:      config.StateEnqueued,
		Reason:    req.Reason,
		CreatedAt: now,
	}
	initial.Data = datatypes.NewJSONType(map[string]string{
		"Queue":      strings.Join(queues, ","),
		"EnqueuedAt": now.Format(time.RFC3339Nano),
	})

	if err := s.jobs.Create(ctx, &job, initial, queues); err != nil {
		return nil, toAPIError(err, "failed to create job")
	}

	return &dto.JobCreatedDTO{
		ID:     job.ID,
		State:  config.StateEnqueued,
		Queues: queues,
	}, nil
}

// GetJob returns the full job record: invocation data, parameters, the
// active state, state history and current queue entries.
func (s *JobService) GetJob(ctx context.Context, id uint) (*dto.JobResponseDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request timed out")
	}

	job, err := s.jobs.Get(ctx, id)
	if err != nil {
		return nil, toAPIError(err, "failed to get job")
	}

	return toJobResponse(job), nil
}

func (s *JobService) SetParameter(ctx context.Context, id uint, name, value string) error {
	if err := ctx.Err(); err != nil {
		return common.Errf(http.StatusRequestTimeout, "request timed out")
	}
	if strings.TrimSpace(name) == "" {
		return common.Errf(http.StatusBadRequest, "parameter name must not be empty")
	}

	if err := s.jobs.SetParameter(ctx, id, name, value); err != nil {
		return toAPIError(err, "failed to set parameter")
	}
	return nil
}

func (s *JobService) GetParameter(ctx context.Context, id uint, name string) (*dto.ParameterDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request timed out")
	}
	if strings.TrimSpace(name) == "" {
		return nil, common.Errf(http.StatusBadRequest, "parameter name must not be empty")
	}

	value, ok, err := s.jobs.GetParameter(ctx, id, name)
	if err != nil {
		return nil, toAPIError(err, "failed to get parameter")
	}
	if !ok {
		return nil, common.Errf(http.StatusNotFound, "parameter %q not found", name)
	}

	return &dto.ParameterDTO{Name: name, Value: value}, nil
}

// AppendState records a state transition and makes it the job's active
// state. Queue entries are not touched.
func (s *JobService) AppendState(ctx context.Context, id uint, req *dto.StateAppendDTO) (*dto.StateCreatedDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request timed out")
	}

	if err := validateDTO(req); err != nil {
		return nil, err
	}

	stateID, err := s.states.Append(ctx, id, req.Name, req.Reason, req.Data, s.now())
	if err != nil {
		return nil, toAPIError(err, "failed to append state")
	}

	return &dto.StateCreatedDTO{ID: stateID}, nil
}

func (s *JobService) History(ctx context.Context, id uint) ([]dto.StateDTO, error) {
	if err := ctx.Err(); err != nil {
		return nil, common.Errf(http.StatusRequestTimeout, "request timed out")
	}

	states, err := s.states.History(ctx, id)
	if err != nil {
		return nil, toAPIError(err, "failed to load state history")
	}

	return toStateDTOs(states), nil
}

// ExpireJob marks a job for removal at req.At, after req.In, or right away
// when neither is given.
func (s *JobService) ExpireJob(ctx context.Context, id uint, req *dto.ExpireDTO) error {
	if err := ctx.Err(); err != nil {
		return common.Errf(http.StatusRequestTimeout, "request timed out")
	}

	at := s.now()
	switch {
	case req == nil:
	case req.At != nil:
		at = req.At.UTC()
	case req.In != "":
		d, err := time.ParseDuration(req.In)
		if err != nil {
			return common.Errf(http.StatusBadRequest, "invalid duration %q", req.In)
		}
		at = at.Add(d)
	}

	if err := s.jobs.Expire(ctx, id, at); err != nil {
		return toAPIError(err, "failed to expire job")
	}
	return nil
}

// PersistJob clears a job's expiration so the sweeper never removes it.
func (s *JobService) PersistJob(ctx context.Context, id uint) error {
	if err := ctx.Err(); err != nil {
		return common.Errf(http.StatusRequestTimeout, "request timed out")
	}

	if err := s.jobs.Unexpire(ctx, id); err != nil {
		return toAPIError(err, "failed to persist job")
	}
	return nil
}

func validateDTO(v any) error {
	if err := validate.Struct(v); err != nil {
		return common.NewAPIError(
			http.StatusBadRequest,
			"validation failed",
			middleware.FormatValidationErrors(err),
		)
	}
	return nil
}

// toAPIError maps storage errors onto HTTP statuses. Anything unrecognised
// becomes a 500 carrying fallback as its message.
func toAPIError(err error, fallback string) error {
	var apiErr common.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return common.Errf(http.StatusRequestTimeout, "request timed out")
	case errors.Is(err, common.ErrInvalidArgument):
		return common.Errf(http.StatusBadRequest, "%s", err.Error())
	case errors.Is(err, common.ErrNotFound):
		return common.Errf(http.StatusNotFound, "job not found")
	case errors.Is(err, common.ErrStorageUnavailable):
		return common.Errf(http.StatusServiceUnavailable, "storage unavailable")
	default:
		return common.Errf(http.StatusInternalServerError, "%s", fallback)
	}
}

func toJobResponse(job *models.Job) *dto.JobResponseDTO {
	resp := &dto.JobResponseDTO{
		ID:             job.ID,
		InvocationType: job.InvocationType,
		Method:         job.Method,
		Arguments:      make([]string, 0, len(job.Arguments)),
		Parameters:     make(map[string]string, len(job.Parameters)),
		History:        toStateDTOs(job.States),
		Queues:         make([]dto.QueueEntryDTO, 0, len(job.QueuedJobs)),
		CreatedAt:      job.CreatedAt,
		ExpiredAt:      job.ExpiredAt,
	}

	for _, arg := range job.Arguments {
		resp.Arguments = append(resp.Arguments, arg.Value)
	}
	for _, p := range job.Parameters {
		resp.Parameters[p.Name] = p.Value
	}
	for _, q := range job.QueuedJobs {
		resp.Queues = append(resp.Queues, dto.QueueEntryDTO{
			ID:        q.ID,
			Queue:     q.Queue,
			FetchedAt: q.FetchedAt,
			CreatedAt: q.CreatedAt,
		})
	}

	if job.StateID != nil {
		for i := range resp.History {
			if resp.History[i].ID == *job.StateID {
				active := resp.History[i]
				resp.State = &active
				break
			}
		}
	}

	return resp
}

func toStateDTOs(states []models.State) []dto.StateDTO {
	out := make([]dto.StateDTO, 0, len(states))
	for _, st := range states {
		out = append(out, dto.StateDTO{
			ID:        st.ID,
			Name:      st.Name,
			Reason:    st.Reason,
			CreatedAt: st.CreatedAt,
			Data:      st.Data.Data(),
		})
	}
	return out
}
