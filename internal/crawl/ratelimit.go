package crawl

import (
	"context"
	"sync"
	"time"
)

// DomainLimiter enforces the politeness delay between consecutive requests
// to the same domain. The mutex keeps the guarantee intact if the crawl
// loop is ever sharded across workers.
type DomainLimiter struct {
	mu   sync.Mutex
	last map[string]time.Time
}

func NewDomainLimiter() *DomainLimiter {
	return &DomainLimiter{last: make(map[string]time.Time)}
}

// Wait blocks until at least delay has passed since the previous request
// to domain, honoring context cancellation. The first request to a domain
// proceeds immediately.
func (l *DomainLimiter) Wait(ctx context.Context, domain string, delay time.Duration) error {
	l.mu.Lock()
	last, seen := l.last[domain]
	l.mu.Unlock()

	if seen && delay > 0 {
		if remaining := delay - time.Since(last); remaining > 0 {
			timer := time.NewTimer(remaining)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	l.mu.Lock()
	l.last[domain] = time.Now()
	l.mu.Unlock()
	return nil
}
