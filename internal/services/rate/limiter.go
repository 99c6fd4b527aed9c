package rate

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

const DefaultSubmissionCooldown = 600 * time.Second

// CooldownStore records the last accepted action per key. Acquire must check and
// record atomically: it returns the remaining wait when the key is still cooling down.
type CooldownStore interface {
	Acquire(ctx context.Context, key string, now time.Time, cooldown time.Duration) (time.Duration, bool, error)
	// Release drops the cooldown on key only if it is still the one acquired at acquiredAt.
	Release(ctx context.Context, key string, acquiredAt time.Time) error
}

type Limiter struct {
	store    CooldownStore
	cooldown time.Duration
}

func NewLimiter(store CooldownStore, cooldown time.Duration) *Limiter {
	if cooldown < 0 {
		cooldown = 0
	}

	return &Limiter{
		store:    store,
		cooldown: cooldown,
	}
}

func (l *Limiter) Cooldown() time.Duration {
	return l.cooldown
}

// AllowSubmission reports whether userID may submit at now. A successful call starts a new cooldown.
func (l *Limiter) AllowSubmission(ctx context.Context, userID int64, now time.Time) (int64, bool, error) {
	if userID <= 0 {
		return 0, false, fmt.Errorf("invalid user id")
	}
	if l.store == nil {
		return 0, false, fmt.Errorf("rate limiter store is nil")
	}
	if l.cooldown == 0 {
		return 0, true, nil
	}

	wait, allowed, err := l.store.Acquire(ctx, submissionKey(userID), now, l.cooldown)
	if err != nil {
		return 0, false, err
	}
	if !allowed {
		return ceilSeconds(wait), false, nil
	}

	return 0, true, nil
}

// ReleaseSubmission hands back a cooldown started at acquiredAt, for submissions that never reached the author.
func (l *Limiter) ReleaseSubmission(ctx context.Context, userID int64, acquiredAt time.Time) error {
	if l.store == nil || l.cooldown == 0 || userID <= 0 {
		return nil
	}
	return l.store.Release(ctx, submissionKey(userID), acquiredAt)
}

func submissionKey(userID int64) string {
	return "rate:submission:" + strconv.FormatInt(userID, 10)
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	sec := int64(d / time.Second)
	if d%time.Second != 0 {
		sec++
	}
	if sec <= 0 {
		sec = 1
	}
	return sec
}
