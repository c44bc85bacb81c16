package job

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshu-sajeev/jobstore/internal/dto"
	"github.com/joshu-sajeev/jobstore/middleware"
)

type QueueHandler struct {
	service QueueServiceInterface
}

func NewQueueHandler(s QueueServiceInterface) *QueueHandler {
	return &QueueHandler{service: s}
}

var _ QueueHandlerInterface = (*QueueHandler)(nil)

func (h *QueueHandler) List(c *gin.Context) {
	queues, err := h.service.ListQueues(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"queues": queues})
}

func (h *QueueHandler) Stats(c *gin.Context) {
	stats, err := h.service.QueueStatistics(c.Request.Context(), c.Param("queue"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// Enqueued lists waiting job ids, paged by ?offset=&count=.
func (h *QueueHandler) Enqueued(c *gin.Context) {
	var page dto.PageQueryDTO
	if !middleware.BindQuery(c, &page) {
		return
	}

	resp, err := h.service.ListEnqueuedIDs(c.Request.Context(), c.Param("queue"), page)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Fetched lists leased job ids, paged by ?offset=&count=.
func (h *QueueHandler) Fetched(c *gin.Context) {
	var page dto.PageQueryDTO
	if !middleware.BindQuery(c, &page) {
		return
	}

	resp, err := h.service.ListFetchedIDs(c.Request.Context(), c.Param("queue"), page)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *QueueHandler) StateCounts(c *gin.Context) {
	resp, err := h.service.StateCounts(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
