package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/moviezone/linkgate/internal/repository"
)

// ViewSyncScheduler periodically folds the pending Redis view counters
// into the Postgres link tables. Each fold is one atomic UPDATE per
// record, so concurrent resolves never clobber the totals.
type ViewSyncScheduler struct {
	postgresRepo *repository.PostgresRepository
	redisRepo    *repository.RedisRepository
	interval     time.Duration
	stopCh       chan struct{}
	wg           sync.WaitGroup
}

func NewViewSyncScheduler(
	postgresRepo *repository.PostgresRepository,
	redisRepo *repository.RedisRepository,
	interval time.Duration,
) *ViewSyncScheduler {
	return &ViewSyncScheduler{
		postgresRepo: postgresRepo,
		redisRepo:    redisRepo,
		interval:     interval,
		stopCh:       make(chan struct{}),
	}
}

// Start begins the periodic sync process
func (s *ViewSyncScheduler) Start() {
	s.wg.Add(1)
	go s.run()
	log.Printf("View sync scheduler started (interval: %v)", s.interval)
}

// Stop gracefully stops the scheduler
func (s *ViewSyncScheduler) Stop() {
	close(s.stopCh)
	s.wg.Wait()
	log.Println("View sync scheduler stopped")
}

func (s *ViewSyncScheduler) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.syncViewCounts()
		case <-s.stopCh:
			// Perform final sync before stopping
			log.Println("Performing final view count sync before shutdown...")
			s.syncViewCounts()
			return
		}
	}
}

func (s *ViewSyncScheduler) syncViewCounts() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	keys, err := s.redisRepo.GetAllViewCountKeys(ctx)
	if err != nil {
		log.Printf("Failed to get view count keys: %v", err)
		return
	}

	if len(keys) == 0 {
		return
	}

	log.Printf("Syncing view counts for %d records...", len(keys))

	var successCount, failCount int

	for _, key := range keys {
		kind, code, ok := repository.ParseViewCountKey(key)
		if !ok {
			log.Printf("Skipping malformed view count key: %s", key)
			continue
		}

		// Atomically take the pending count
		count, err := s.redisRepo.GetAndResetViewCount(ctx, kind, code)
		if err != nil {
			log.Printf("Failed to get view count for %s/%s: %v", kind, code, err)
			failCount++
			continue
		}

		if count == 0 {
			continue
		}

		if err := s.postgresRepo.IncrementViewsBy(ctx, kind, code, count); err != nil {
			// Restore the count so the next sync retries it; a deleted
			// record keeps its leftover counter until Redis drops it.
			log.Printf("Failed to sync view count for %s/%s: %v", kind, code, err)
			if restoreErr := s.redisRepo.IncrementViewBy(ctx, kind, code, count); restoreErr != nil {
				log.Printf("Failed to restore view count for %s/%s: %v (data loss: %d views)", kind, code, restoreErr, count)
			}
			failCount++
			continue
		}

		successCount++
	}

	if successCount > 0 || failCount > 0 {
		log.Printf("View count sync completed: %d success, %d failed", successCount, failCount)
	}
}

// SyncNow triggers an immediate sync (useful for graceful shutdown)
func (s *ViewSyncScheduler) SyncNow() {
	s.syncViewCounts()
}
