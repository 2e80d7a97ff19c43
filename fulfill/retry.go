package fulfill

import (
	"context"
	"log"
	"sync"
	"time"

	"lastmile/store"
)

const retryDrainLimit = 50

// RetryWorker drains due retry jobs on a fixed interval. Jobs are rows,
// so retries scheduled before a crash run after restart. A job is marked
// complete before the attempt runs: a crash mid-attempt loses the job,
// and the stale-order reconciler re-schedules it from history.
type RetryWorker struct {
	db       *store.DB
	proc     *Processor
	interval time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
}

func NewRetryWorker(db *store.DB, proc *Processor, interval time.Duration) *RetryWorker {
	if interval <= 0 {
		interval = time.Second
	}
	return &RetryWorker{
		db:       db,
		proc:     proc,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

func (w *RetryWorker) Start() {
	go w.run()
}

func (w *RetryWorker) Stop() {
	w.stopOnce.Do(func() { close(w.stopChan) })
}

func (w *RetryWorker) run() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			w.Drain()
		}
	}
}

// Drain claims and runs every due job, oldest first.
func (w *RetryWorker) Drain() {
	jobs, err := w.db.DueRetryJobs(time.Now(), retryDrainLimit)
	if err != nil {
		log.Printf("retry: list due jobs: %v", err)
		return
	}
	for _, job := range jobs {
		if err := w.db.CompleteRetryJob(job.ID); err != nil {
			log.Printf("retry: claim job %d: %v", job.ID, err)
			continue
		}
		if err := w.proc.ProcessAttempt(context.Background(), job.OrderID, job.Attempt); err != nil {
			log.Printf("retry: order %d attempt %d: %v", job.OrderID, job.Attempt, err)
		}
	}
}
