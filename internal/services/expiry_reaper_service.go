package services

import (
	"context"
	"log"
	"time"

	"paybridge/internal/metrics"
	"paybridge/internal/repository"
)

// ExpiryReaperService periodically sweeps stale pending intents to
// expired. The sweep is the authoritative batch cleanup; GetIntent's
// inline check is only a fast path, and both writers converge on the
// same terminal state.
type ExpiryReaperService struct {
	intents       repository.PaymentIntentRepository
	checkInterval time.Duration
	stopCh        chan struct{}
	now           func() time.Time
}

// NewExpiryReaperService creates the reaper.
func NewExpiryReaperService(intents repository.PaymentIntentRepository, checkInterval time.Duration) *ExpiryReaperService {
	return &ExpiryReaperService{
		intents:       intents,
		checkInterval: checkInterval,
		stopCh:        make(chan struct{}),
		now:           time.Now,
	}
}

// Start launches the periodic sweep loop.
func (s *ExpiryReaperService) Start() {
	log.Printf("🚀 Starting expiry reaper (interval: %v)", s.checkInterval)

	go func() {
		ticker := time.NewTicker(s.checkInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := s.Sweep(context.Background()); err != nil {
					log.Printf("❌ Expiry sweep failed: %v", err)
				}
			case <-s.stopCh:
				log.Printf("🛑 Expiry reaper stopped")
				return
			}
		}
	}()
}

// Stop terminates the sweep loop.
func (s *ExpiryReaperService) Stop() {
	close(s.stopCh)
}

// Sweep expires every pending intent past its deadline in one set-based
// update and returns the number of rows transitioned. Intents in any
// other status are untouched, so a completion that committed first is
// never reverted.
func (s *ExpiryReaperService) Sweep(ctx context.Context) (int64, error) {
	count, err := s.intents.SweepExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if count > 0 {
		metrics.IntentsExpired.Add(float64(count))
		log.Printf("⏰ Expired %d stale payment intents", count)
	}
	return count, nil
}
