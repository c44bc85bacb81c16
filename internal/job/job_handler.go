package job

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/joshu-sajeev/jobstore/common"
	"github.com/joshu-sajeev/jobstore/internal/dto"
	"github.com/joshu-sajeev/jobstore/middleware"
)

type JobHandler struct {
	service JobServiceInterface
}

func NewJobHandler(s JobServiceInterface) *JobHandler {
	return &JobHandler{service: s}
}

var _ JobHandlerInterface = (*JobHandler)(nil)

// Create handles HTTP requests for creating a new job.
// It validates and binds the request body, delegates business logic
// to the JobService, and returns HTTP 201 on successful creation.
func (h *JobHandler) Create(c *gin.Context) {
	var req dto.JobCreateDTO

	if !middleware.Bind(c, &req) {
		c.Abort()
		return
	}

	resp, err := h.service.CreateJob(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Get handles HTTP requests to fetch a job by its ID.
func (h *JobHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	resp, err := h.service.GetJob(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SetParameter handles PUT /jobs/:id/parameters/:name and returns 204.
func (h *JobHandler) SetParameter(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var body dto.ParameterSetDTO
	if !middleware.Bind(c, &body) {
		return
	}

	if err := h.service.SetParameter(c.Request.Context(), id, c.Param("name"), body.Value); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *JobHandler) GetParameter(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	resp, err := h.service.GetParameter(c.Request.Context(), id, c.Param("name"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// AppendState handles POST /jobs/:id/states. The new state becomes the
// job's active state.
func (h *JobHandler) AppendState(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req dto.StateAppendDTO
	if !middleware.Bind(c, &req) {
		return
	}

	resp, err := h.service.AppendState(c.Request.Context(), id, &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *JobHandler) History(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	states, err := h.service.History(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, states)
}

// Expire handles POST /jobs/:id/expire. An empty body expires the job
// immediately.
func (h *JobHandler) Expire(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req dto.ExpireDTO
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.Error(common.Errf(http.StatusBadRequest, "invalid json: %v", err.Error()))
			return
		}
	}

	if err := h.service.ExpireJob(c.Request.Context(), id, &req); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *JobHandler) Persist(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.PersistJob(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil || id < 1 {
		c.Error(common.Errf(http.StatusBadRequest, "invalid ID"))
		return 0, false
	}
	return uint(id), true
}
