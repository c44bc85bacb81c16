package job

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the job and monitoring endpoints on r.
func RegisterRoutes(r gin.IRouter, jobs JobHandlerInterface, queues QueueHandlerInterface) {
	j := r.Group("/jobs")
	{
		j.POST("", jobs.Create)
		j.GET("/:id", jobs.Get)
		j.PUT("/:id/parameters/:name", jobs.SetParameter)
		j.GET("/:id/parameters/:name", jobs.GetParameter)
		j.POST("/:id/states", jobs.AppendState)
		j.GET("/:id/states", jobs.History)
		j.POST("/:id/expire", jobs.Expire)
		j.POST("/:id/persist", jobs.Persist)
	}

	q := r.Group("/queues")
	{
		q.GET("", queues.List)
		q.GET("/:queue", queues.Stats)
		q.GET("/:queue/enqueued", queues.Enqueued)
		q.GET("/:queue/fetched", queues.Fetched)
	}

	r.GET("/stats/states", queues.StateCounts)
}
