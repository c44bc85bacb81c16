package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joshu-sajeev/jobstore/internal/config"
	"github.com/joshu-sajeev/jobstore/internal/models"
	"github.com/joshu-sajeev/jobstore/internal/pool"
	"github.com/joshu-sajeev/jobstore/internal/storage/postgres"
	"github.com/joshu-sajeev/jobstore/internal/worker"
)

func main() {
	log.Println("Starting Worker...")

	ctx := context.Background()
	cfg, err := config.LoadWorkerConfig(ctx)
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

	log.Println("SUCCESS! Database connected")

	store := postgres.NewStore(db)
	defer store.Close()

	workerPool := pool.NewWorkerPool(store, handlers(), *cfg)

	workerPool.Start()
	log.Println("Worker pool active. Press Ctrl+C to stop.")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	workerPool.Stop()
	log.Println("Shutdown complete.")
}

// handlers lists the invocation types this process can run.
func handlers() worker.Handlers {
	return worker.Handlers{
		"Console": func(ctx context.Context, job *models.Job) error {
			args := make([]string, 0, len(job.Arguments))
			for _, a := range job.Arguments {
				args = append(args, a.Value)
			}
			log.Printf("[console] job %d %s(%s)", job.ID, job.Method, strings.Join(args, ", "))
			return nil
		},
	}
}
