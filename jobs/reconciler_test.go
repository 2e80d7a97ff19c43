package jobs

import (
	"path/filepath"
	"testing"
	"time"

	"lastmile/config"
	"lastmile/store"
)

func testDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(&config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")},
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// staleOrder creates an order stuck in processing for an hour, with
// `attempts` processing rows already in its history.
func staleOrder(t *testing.T, db *store.DB, attempts int) *store.Order {
	t.Helper()
	o := &store.Order{
		ClientID:        "client-1",
		RecipientName:   "Ada Recipient",
		PickupAddress:   "1 Depot Way",
		DeliveryAddress: "9 Home St",
	}
	if err := db.CreateOrder(o); err != nil {
		t.Fatalf("create order: %v", err)
	}
	for i := 0; i < attempts; i++ {
		if _, _, err := db.UpdateStatus(o.ID, store.StatusProcessing, "attempt", "fulfillment", store.ActorSystem); err != nil {
			t.Fatalf("update status: %v", err)
		}
	}
	if _, err := db.Exec(`UPDATE orders SET updated_at=datetime('now','-1 hour','localtime') WHERE id=?`, o.ID); err != nil {
		t.Fatalf("age order: %v", err)
	}
	return o
}

func testReconciler(db *store.DB) *Reconciler {
	return NewReconciler(db, config.JobsConfig{StaleAfter: 10 * time.Minute, SweepSchedule: "@every 1m"}, 3)
}

func TestSweepRequeuesStaleOrder(t *testing.T) {
	db := testDB(t)
	o := staleOrder(t, db, 1)

	testReconciler(db).Sweep()

	jobs, err := db.DueRetryJobs(time.Now(), 10)
	if err != nil {
		t.Fatalf("due jobs: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("len(jobs) = %d, want 1", len(jobs))
	}
	if jobs[0].OrderID != o.ID || jobs[0].Attempt != 2 {
		t.Errorf("job = %+v, want order %d attempt 2", jobs[0], o.ID)
	}
	got, _ := db.GetOrder(o.ID)
	if got.Status != store.StatusProcessing {
		t.Errorf("status = %q, sweep should not transition a re-queued order", got.Status)
	}
}

func TestSweepSkipsOrderWithPendingRetry(t *testing.T) {
	db := testDB(t)
	o := staleOrder(t, db, 1)
	if err := db.EnqueueRetry(o.ID, 2, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	testReconciler(db).Sweep()

	jobs, err := db.DueRetryJobs(time.Now().Add(2*time.Hour), 10)
	if err != nil {
		t.Fatalf("due jobs: %v", err)
	}
	if len(jobs) != 1 {
		t.Errorf("len(jobs) = %d, want the original job only", len(jobs))
	}
}

func TestSweepFailsOrderAtAttemptCap(t *testing.T) {
	db := testDB(t)
	o := staleOrder(t, db, 3)

	testReconciler(db).Sweep()

	got, _ := db.GetOrder(o.ID)
	if got.Status != store.StatusFailed {
		t.Errorf("status = %q, want %q", got.Status, store.StatusFailed)
	}
	pending, _ := db.HasPendingRetry(o.ID)
	if pending {
		t.Error("retry enqueued for an exhausted order")
	}
	history, _ := db.ListTransitions(o.ID)
	last := history[len(history)-1]
	if last.ActorID != "reconciler" || last.ActorKind != store.ActorSystem {
		t.Errorf("failing transition actor = %s/%s", last.ActorID, last.ActorKind)
	}
}

func TestSweepIgnoresFreshProcessing(t *testing.T) {
	db := testDB(t)
	o := &store.Order{
		ClientID:        "client-1",
		RecipientName:   "Ada Recipient",
		PickupAddress:   "1 Depot Way",
		DeliveryAddress: "9 Home St",
	}
	if err := db.CreateOrder(o); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := db.UpdateStatus(o.ID, store.StatusProcessing, "attempt", "fulfillment", store.ActorSystem); err != nil {
		t.Fatalf("update: %v", err)
	}

	testReconciler(db).Sweep()

	pending, _ := db.HasPendingRetry(o.ID)
	if pending {
		t.Error("fresh processing order re-queued")
	}
}
