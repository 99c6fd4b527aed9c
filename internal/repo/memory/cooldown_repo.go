package memory

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// CooldownRepo is the in-process cooldown store. Entries are only dropped by Prune.
type CooldownRepo struct {
	mu   sync.Mutex
	last map[string]time.Time
}

func NewCooldownRepo() *CooldownRepo {
	return &CooldownRepo{last: make(map[string]time.Time)}
}

func (r *CooldownRepo) Acquire(_ context.Context, key string, now time.Time, cooldown time.Duration) (time.Duration, bool, error) {
	if key == "" || cooldown <= 0 {
		return 0, false, fmt.Errorf("invalid cooldown payload")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if last, ok := r.last[key]; ok {
		elapsed := now.Sub(last)
		if elapsed < 0 {
			return cooldown, false, nil
		}
		if elapsed < cooldown {
			return cooldown - elapsed, false, nil
		}
	}
	r.last[key] = now
	return 0, true, nil
}

func (r *CooldownRepo) Release(_ context.Context, key string, acquiredAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if last, ok := r.last[key]; ok && last.Equal(acquiredAt) {
		delete(r.last, key)
	}
	return nil
}

// Prune forgets keys last acquired before cutoff.
func (r *CooldownRepo) Prune(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for key, last := range r.last {
		if last.Before(cutoff) {
			delete(r.last, key)
			removed++
		}
	}
	return removed
}
