package job

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joshu-sajeev/jobstore/common"
	"github.com/joshu-sajeev/jobstore/internal/dto"
	"github.com/joshu-sajeev/jobstore/internal/mocks"
	"github.com/joshu-sajeev/jobstore/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newQueueRouter(svc QueueServiceInterface) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(middleware.TimeoutMiddleware(5*time.Second), middleware.ErrorHandler())
	RegisterRoutes(r, NewJobHandler(new(mocks.JobServiceMock)), NewQueueHandler(svc))
	return r
}

func TestQueueHandler(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		setupMock      func(*mocks.QueueServiceMock)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "list queues",
			path: "/queues",
			setupMock: func(m *mocks.QueueServiceMock) {
				m.On("ListQueues", mock.Anything).Return([]string{"critical", "default"}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"queues":["critical","default"]}`,
		},
		{
			name: "queue statistics",
			path: "/queues/default",
			setupMock: func(m *mocks.QueueServiceMock) {
				m.On("QueueStatistics", mock.Anything, "default").
					Return(&dto.QueueStatsDTO{Queue: "default", Enqueued: 3, Fetched: 2}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"queue":"default","enqueued":3,"fetched":2}`,
		},
		{
			name: "enqueued ids with paging",
			path: "/queues/default/enqueued?offset=5&count=2",
			setupMock: func(m *mocks.QueueServiceMock) {
				m.On("ListEnqueuedIDs", mock.Anything, "default", dto.PageQueryDTO{Offset: 5, Count: 2}).
					Return(&dto.JobIDPageDTO{Queue: "default", Offset: 5, Count: 2, JobIDs: []string{"6", "7"}}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"queue":"default","offset":5,"count":2,"job_ids":["6","7"]}`,
		},
		{
			name: "fetched ids with default paging",
			path: "/queues/default/fetched",
			setupMock: func(m *mocks.QueueServiceMock) {
				m.On("ListFetchedIDs", mock.Anything, "default", dto.PageQueryDTO{}).
					Return(&dto.JobIDPageDTO{Queue: "default", Count: 20, JobIDs: []string{}}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"queue":"default","offset":0,"count":20,"job_ids":[]}`,
		},
		{
			name: "page size above limit is passed on for clamping",
			path: "/queues/default/enqueued?count=5000",
			setupMock: func(m *mocks.QueueServiceMock) {
				m.On("ListEnqueuedIDs", mock.Anything, "default", dto.PageQueryDTO{Count: 5000}).
					Return(&dto.JobIDPageDTO{Queue: "default", Count: 1000, JobIDs: []string{}}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"queue":"default","offset":0,"count":1000,"job_ids":[]}`,
		},
		{
			name: "negative page size is passed on for clamping",
			path: "/queues/default/fetched?count=-1&offset=-4",
			setupMock: func(m *mocks.QueueServiceMock) {
				m.On("ListFetchedIDs", mock.Anything, "default", dto.PageQueryDTO{Offset: -4, Count: -1}).
					Return(&dto.JobIDPageDTO{Queue: "default", Count: 20, JobIDs: []string{}}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"queue":"default","offset":0,"count":20,"job_ids":[]}`,
		},
		{
			name:           "non numeric offset",
			path:           "/queues/default/enqueued?offset=abc",
			setupMock:      func(m *mocks.QueueServiceMock) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "state counts",
			path: "/stats/states",
			setupMock: func(m *mocks.QueueServiceMock) {
				m.On("StateCounts", mock.Anything).
					Return(&dto.StateCountsDTO{Counts: map[string]int64{"Enqueued": 4}}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"counts":{"Enqueued":4}}`,
		},
		{
			name: "storage failure",
			path: "/queues",
			setupMock: func(m *mocks.QueueServiceMock) {
				m.On("ListQueues", mock.Anything).
					Return(nil, common.Errf(http.StatusServiceUnavailable, "storage unavailable"))
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   `{"error":"storage unavailable"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(mocks.QueueServiceMock)
			tt.setupMock(mockService)

			w := serve(newQueueRouter(mockService), http.MethodGet, tt.path, "")

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, w.Body.String())
			}
			mockService.AssertExpectations(t)
		})
	}
}
