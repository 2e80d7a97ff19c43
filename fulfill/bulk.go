package fulfill

import (
	"context"
	"log"
	"sync"
	"time"
)

// BulkResult partitions a bulk run's order ids by outcome. An order whose
// first attempt ended in a scheduled retry counts as successful here; the
// retry pipeline owns it from that point.
type BulkResult struct {
	Successful []int64 `json:"successful"`
	Failed     []int64 `json:"failed"`
}

// ProcessBulk runs the pipeline for many orders in fixed-size concurrent
// batches, pausing between batches so the partner systems see a bounded
// request rate. One order's failure never aborts the rest.
func (p *Processor) ProcessBulk(ctx context.Context, orderIDs []int64) *BulkResult {
	result := &BulkResult{}
	var mu sync.Mutex

	log.Printf("fulfill: bulk run of %d orders, batches of %d", len(orderIDs), p.batchSize)
	for start := 0; start < len(orderIDs); start += p.batchSize {
		end := start + p.batchSize
		if end > len(orderIDs) {
			end = len(orderIDs)
		}

		var wg sync.WaitGroup
		for _, id := range orderIDs[start:end] {
			wg.Add(1)
			go func(orderID int64) {
				defer wg.Done()
				err := p.ProcessAttempt(ctx, orderID, 1)
				mu.Lock()
				if err != nil {
					result.Failed = append(result.Failed, orderID)
				} else {
					result.Successful = append(result.Successful, orderID)
				}
				mu.Unlock()
			}(id)
		}
		wg.Wait()

		if end < len(orderIDs) {
			select {
			case <-ctx.Done():
				log.Printf("fulfill: bulk run cancelled after %d orders", end)
				return result
			case <-time.After(p.batchPause):
			}
		}
	}
	log.Printf("fulfill: bulk run done, %d succeeded, %d failed", len(result.Successful), len(result.Failed))
	return result
}
