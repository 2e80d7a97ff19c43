package store

import (
	"testing"
	"time"
)

func TestEnqueueAndDrainRetry(t *testing.T) {
	db := testDB(t)
	o := testOrder(t, db)

	past := time.Now().Add(-time.Minute)
	if err := db.EnqueueRetry(o.ID, 2, past); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	jobs, err := db.DueRetryJobs(time.Now(), 10)
	if err != nil {
		t.Fatalf("due jobs: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("len(jobs) = %d, want 1", len(jobs))
	}
	if jobs[0].OrderID != o.ID || jobs[0].Attempt != 2 {
		t.Errorf("job = %+v", jobs[0])
	}

	if err := db.CompleteRetryJob(jobs[0].ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	jobs, err = db.DueRetryJobs(time.Now(), 10)
	if err != nil {
		t.Fatalf("due jobs: %v", err)
	}
	if len(jobs) != 0 {
		t.Errorf("completed job still due: %+v", jobs)
	}
}

func TestFutureRetryNotDue(t *testing.T) {
	db := testDB(t)
	o := testOrder(t, db)

	runAt := time.Now().Add(time.Hour)
	if err := db.EnqueueRetry(o.ID, 2, runAt); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	jobs, err := db.DueRetryJobs(time.Now(), 10)
	if err != nil {
		t.Fatalf("due jobs: %v", err)
	}
	if len(jobs) != 0 {
		t.Errorf("future job listed as due: %+v", jobs)
	}

	pending, err := db.HasPendingRetry(o.ID)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if !pending {
		t.Error("HasPendingRetry = false for a live job")
	}
}

// Re-enqueueing supersedes the previous pending job, so an order never
// has two live retries racing each other.
func TestEnqueueSupersedesPending(t *testing.T) {
	db := testDB(t)
	o := testOrder(t, db)

	past := time.Now().Add(-time.Minute)
	if err := db.EnqueueRetry(o.ID, 2, past); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := db.EnqueueRetry(o.ID, 3, past); err != nil {
		t.Fatalf("re-enqueue: %v", err)
	}

	jobs, err := db.DueRetryJobs(time.Now(), 10)
	if err != nil {
		t.Fatalf("due jobs: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("len(jobs) = %d, want 1", len(jobs))
	}
	if jobs[0].Attempt != 3 {
		t.Errorf("attempt = %d, want 3", jobs[0].Attempt)
	}
}
