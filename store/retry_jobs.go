package store

import (
	"time"
)

// RetryJob is one pending re-invocation of order processing. Rows are
// durable, so retries scheduled before a crash are picked up again after
// restart instead of being lost with an in-process timer.
type RetryJob struct {
	ID        int64
	OrderID   int64
	Attempt   int
	RunAt     time.Time
	CreatedAt time.Time
}

// EnqueueRetry schedules attempt number `attempt` for the order at runAt.
// Any pending job for the same order is superseded, keeping at most one
// live retry per order.
func (db *DB) EnqueueRetry(orderID int64, attempt int, runAt time.Time) error {
	if _, err := db.Exec(db.Q(`UPDATE retry_jobs SET completed_at=datetime('now','localtime') WHERE order_id=? AND completed_at IS NULL`), orderID); err != nil {
		return err
	}
	_, err := db.Exec(db.Q(`INSERT INTO retry_jobs (order_id, attempt, run_at) VALUES (?, ?, ?)`),
		orderID, attempt, runAt.Format("2006-01-02 15:04:05"))
	return err
}

// DueRetryJobs returns pending jobs whose run_at has passed, oldest first.
func (db *DB) DueRetryJobs(now time.Time, limit int) ([]*RetryJob, error) {
	rows, err := db.Query(db.Q(`SELECT id, order_id, attempt, run_at, created_at FROM retry_jobs WHERE completed_at IS NULL AND run_at <= ? ORDER BY id LIMIT ?`),
		now.Format("2006-01-02 15:04:05"), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var jobs []*RetryJob
	for rows.Next() {
		var j RetryJob
		var runAt, createdAt any
		if err := rows.Scan(&j.ID, &j.OrderID, &j.Attempt, &runAt, &createdAt); err != nil {
			return nil, err
		}
		j.RunAt = parseTime(runAt)
		j.CreatedAt = parseTime(createdAt)
		jobs = append(jobs, &j)
	}
	return jobs, rows.Err()
}

func (db *DB) CompleteRetryJob(id int64) error {
	_, err := db.Exec(db.Q(`UPDATE retry_jobs SET completed_at=datetime('now','localtime') WHERE id=?`), id)
	return err
}

// HasPendingRetry reports whether a live retry job exists for the order.
func (db *DB) HasPendingRetry(orderID int64) (bool, error) {
	var n int
	err := db.QueryRow(db.Q(`SELECT COUNT(*) FROM retry_jobs WHERE order_id=? AND completed_at IS NULL`), orderID).Scan(&n)
	return n > 0, err
}
