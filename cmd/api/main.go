package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joshu-sajeev/jobstore/internal/config"
	"github.com/joshu-sajeev/jobstore/internal/job"
	"github.com/joshu-sajeev/jobstore/internal/storage/postgres"
	"github.com/joshu-sajeev/jobstore/middleware"
)

func main() {
	log.Println("Starting API...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	apiCfg, err := config.LoadAPIConfig(ctx)
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	db, err := postgres.ConnectDB(ctx, nil)
	if err != nil {
		log.Fatal("Connection failed:", err)
	}

	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatal("Migration failed:", err)
	}

	store := postgres.NewStore(db)
	defer store.Close()

	jobService := job.NewJobService(store.Jobs, store.States)
	queueService := job.NewQueueService(store.Monitoring)

	r := gin.New()
	r.Use(
		gin.Logger(),
		gin.Recovery(),
		middleware.TimeoutMiddleware(apiCfg.RequestTimeout),
		middleware.ErrorHandler(),
	)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	job.RegisterRoutes(r, job.NewJobHandler(jobService), job.NewQueueHandler(queueService))

	srv := &http.Server{
		Addr:    apiCfg.Addr,
		Handler: r,
	}

	go func() {
		log.Printf("Listening on %s", apiCfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed:", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
	log.Println("Shutdown complete.")
}
