package pool

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joshu-sajeev/jobstore/internal/config"
	"github.com/joshu-sajeev/jobstore/internal/storage/postgres"
	"github.com/joshu-sajeev/jobstore/internal/worker"
)

// expiredLeaseReportLimit caps how many stale leases one janitor pass logs.
const expiredLeaseReportLimit = 100

type WorkerPool struct {
	ServerID string

	workers []*worker.Worker
	store   *postgres.Store
	cfg     config.WorkerConfig
	now     func() time.Time
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewWorkerPool(store *postgres.Store, handlers worker.Handlers, cfg config.WorkerConfig) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())
	p := &WorkerPool{
		ServerID: uuid.NewString(),
		store:    store,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
		ctx:      ctx,
		cancel:   cancel,
	}

	for i := 1; i <= cfg.Count; i++ {
		p.workers = append(p.workers, worker.NewWorker(i, p.ServerID, store, handlers, cfg))
	}
	return p
}

func (p *WorkerPool) Start() {
	log.Printf("[pool] server %s starting %d workers on %v", p.ServerID, len(p.workers), p.cfg.Queues)

	for _, w := range p.workers {
		w.Start(p.ctx)
	}

	p.wg.Add(1)
	go p.janitor()
}

// janitor periodically deletes expired jobs and reports leases that have
// outlived LeaseTimeout. Stale leases are reclaimed by the next Fetch, so
// they are only logged here.
func (p *WorkerPool) janitor() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.sweep(p.ctx)
		case <-p.ctx.Done():
			return
		}
	}
}

func (p *WorkerPool) sweep(ctx context.Context) {
	now := p.now()

	n, err := p.store.Jobs.SweepExpired(ctx, now)
	if err != nil && ctx.Err() == nil {
		log.Printf("[janitor][ERROR] sweep expired jobs: %v", err)
	}
	if n > 0 {
		log.Printf("[janitor] removed %d expired jobs", n)
	}

	stale, err := p.store.Queues.ListExpiredLeases(ctx, p.cfg.LeaseTimeout, now, expiredLeaseReportLimit)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("[janitor][ERROR] list expired leases: %v", err)
		}
		return
	}
	for _, e := range stale {
		log.Printf("[janitor][WARN] lease on entry %d (job %d, queue %q) expired, awaiting reclaim", e.ID, e.JobID, e.Queue)
	}
}

func (p *WorkerPool) Stop() {
	p.cancel()
	for _, w := range p.workers {
		w.Stop()
	}
	p.wg.Wait()
	log.Printf("[pool] server %s stopped", p.ServerID)
}
