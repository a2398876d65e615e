package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/moviezone/linkgate/internal/repository"
)

// SessionPurgeScheduler sweeps expired ad-view sessions out of Postgres.
// Expiry checks compare against expires_at directly, so the sweep is
// purely housekeeping and its cadence does not affect correctness.
type SessionPurgeScheduler struct {
	postgresRepo *repository.PostgresRepository
	interval     time.Duration
	stopCh       chan struct{}
	wg           sync.WaitGroup
}

func NewSessionPurgeScheduler(postgresRepo *repository.PostgresRepository, interval time.Duration) *SessionPurgeScheduler {
	return &SessionPurgeScheduler{
		postgresRepo: postgresRepo,
		interval:     interval,
		stopCh:       make(chan struct{}),
	}
}

// Start begins the periodic purge process
func (s *SessionPurgeScheduler) Start() {
	s.wg.Add(1)
	go s.run()
	log.Printf("Session purge scheduler started (interval: %v)", s.interval)
}

// Stop gracefully stops the scheduler
func (s *SessionPurgeScheduler) Stop() {
	close(s.stopCh)
	s.wg.Wait()
	log.Println("Session purge scheduler stopped")
}

func (s *SessionPurgeScheduler) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.purge()
		case <-s.stopCh:
			return
		}
	}
}

func (s *SessionPurgeScheduler) purge() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	purged, err := s.postgresRepo.PurgeExpiredSessions(ctx)
	if err != nil {
		log.Printf("Failed to purge expired ad sessions: %v", err)
		return
	}

	if purged > 0 {
		log.Printf("Purged %d expired ad sessions", purged)
	}
}
