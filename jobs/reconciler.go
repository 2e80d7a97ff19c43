package jobs

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"lastmile/config"
	"lastmile/store"
)

// Reconciler sweeps for orders stuck in `processing` with no live retry
// job. That state means an in-flight attempt died with the process; the
// sweep recovers the attempt count from status history and either
// schedules the next attempt or fails the order.
type Reconciler struct {
	db          *store.DB
	cron        *cron.Cron
	staleAfter  time.Duration
	schedule    string
	maxAttempts int
}

func NewReconciler(db *store.DB, cfg config.JobsConfig, maxAttempts int) *Reconciler {
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 10 * time.Minute
	}
	if cfg.SweepSchedule == "" {
		cfg.SweepSchedule = "@every 1m"
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &Reconciler{
		db:          db,
		cron:        cron.New(),
		staleAfter:  cfg.StaleAfter,
		schedule:    cfg.SweepSchedule,
		maxAttempts: maxAttempts,
	}
}

func (r *Reconciler) Start() error {
	if _, err := r.cron.AddFunc(r.schedule, r.Sweep); err != nil {
		return fmt.Errorf("reconciler schedule %q: %w", r.schedule, err)
	}
	r.cron.Start()
	log.Printf("jobs: reconciler sweeping %s, stale after %s", r.schedule, r.staleAfter)
	return nil
}

func (r *Reconciler) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}

// Sweep re-queues or fails every stale processing order.
func (r *Reconciler) Sweep() {
	cutoff := time.Now().Add(-r.staleAfter)
	orders, err := r.db.ListStaleProcessing(cutoff)
	if err != nil {
		log.Printf("jobs: list stale orders: %v", err)
		return
	}
	for _, order := range orders {
		if err := r.reconcile(order); err != nil {
			log.Printf("jobs: reconcile order %d: %v", order.ID, err)
		}
	}
}

func (r *Reconciler) reconcile(order *store.Order) error {
	pending, err := r.db.HasPendingRetry(order.ID)
	if err != nil {
		return err
	}
	if pending {
		// A live retry job owns this order; the drain loop will get it.
		return nil
	}

	attempts, err := r.db.CountTransitions(order.ID, store.StatusProcessing)
	if err != nil {
		return err
	}
	if attempts >= r.maxAttempts {
		_, _, err := r.db.UpdateStatus(order.ID, store.StatusFailed,
			fmt.Sprintf("abandoned after %d attempts", attempts), "reconciler", store.ActorSystem)
		if err != nil {
			return err
		}
		log.Printf("jobs: order %d failed by reconciler after %d attempts", order.ID, attempts)
		return nil
	}

	if err := r.db.EnqueueRetry(order.ID, attempts+1, time.Now()); err != nil {
		return err
	}
	log.Printf("jobs: order %d re-queued as attempt %d", order.ID, attempts+1)
	return nil
}
