package rate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	memrepo "github.com/ivankudzin/tgrelay/internal/repo/memory"
	redrepo "github.com/ivankudzin/tgrelay/internal/repo/redis"
)

func TestLimiterBlocksWithinCooldownInMemory(t *testing.T) {
	limiter := NewLimiter(memrepo.NewCooldownRepo(), DefaultSubmissionCooldown)
	assertCooldownWindow(t, limiter)
}

func TestLimiterBlocksWithinCooldownInRedis(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	limiter := NewLimiter(redrepo.NewCooldownRepo(client), DefaultSubmissionCooldown)
	assertCooldownWindow(t, limiter)
}

func TestLimiterRedisKeyExpiresWithCooldown(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	limiter := NewLimiter(redrepo.NewCooldownRepo(client), time.Minute)
	ctx := context.Background()
	now := time.Now()

	if _, allowed, err := limiter.AllowSubmission(ctx, 7, now); err != nil || !allowed {
		t.Fatalf("first submission: allowed=%v err=%v", allowed, err)
	}
	if !mr.Exists(submissionKey(7)) {
		t.Fatalf("expected cooldown key to exist")
	}

	mr.FastForward(61 * time.Second)
	if mr.Exists(submissionKey(7)) {
		t.Fatalf("expected cooldown key to expire")
	}
}

func TestLimiterRejectsInvalidUser(t *testing.T) {
	limiter := NewLimiter(memrepo.NewCooldownRepo(), time.Minute)
	if _, _, err := limiter.AllowSubmission(context.Background(), 0, time.Now()); err == nil {
		t.Fatal("expected error for invalid user id")
	}
}

func TestLimiterNilStoreAndZeroCooldown(t *testing.T) {
	limiter := NewLimiter(nil, 0)
	for i := 0; i < 3; i++ {
		_, allowed, err := limiter.AllowSubmission(context.Background(), 5, time.Now())
		if err == nil {
			t.Fatalf("expected nil store error")
		}
		if allowed {
			t.Fatalf("nil store must not allow")
		}
	}

	limiter = NewLimiter(memrepo.NewCooldownRepo(), 0)
	for i := 0; i < 3; i++ {
		_, allowed, err := limiter.AllowSubmission(context.Background(), 5, time.Now())
		if err != nil || !allowed {
			t.Fatalf("attempt %d: allowed=%v err=%v", i+1, allowed, err)
		}
	}
}

func assertCooldownWindow(t *testing.T, limiter *Limiter) {
	t.Helper()

	ctx := context.Background()
	userID := int64(42)
	start := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

	retryAfter, allowed, err := limiter.AllowSubmission(ctx, userID, start)
	if err != nil {
		t.Fatalf("first submission: %v", err)
	}
	if !allowed || retryAfter != 0 {
		t.Fatalf("unexpected first result: allowed=%v retry_after=%d", allowed, retryAfter)
	}

	retryAfter, allowed, err = limiter.AllowSubmission(ctx, userID, start.Add(599*time.Second))
	if err != nil {
		t.Fatalf("second submission: %v", err)
	}
	if allowed {
		t.Fatalf("expected second submission within cooldown to be blocked")
	}
	if retryAfter != 1 {
		t.Fatalf("expected retry_after=1, got %d", retryAfter)
	}

	retryAfter, allowed, err = limiter.AllowSubmission(ctx, int64(43), start.Add(time.Second))
	if err != nil || !allowed || retryAfter != 0 {
		t.Fatalf("other user must not be limited: allowed=%v retry_after=%d err=%v", allowed, retryAfter, err)
	}

	retryAfter, allowed, err = limiter.AllowSubmission(ctx, userID, start.Add(600*time.Second))
	if err != nil {
		t.Fatalf("submission after cooldown: %v", err)
	}
	if !allowed || retryAfter != 0 {
		t.Fatalf("unexpected result after cooldown: allowed=%v retry_after=%d", allowed, retryAfter)
	}

	_, allowed, err = limiter.AllowSubmission(ctx, userID, start.Add(601*time.Second))
	if err != nil {
		t.Fatalf("submission right after renewed cooldown: %v", err)
	}
	if allowed {
		t.Fatalf("accepted submission must restart the cooldown")
	}
}

func newMiniRedisClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}

	client := goredis.NewClient(&goredis.Options{
		Addr: mr.Addr(),
	})

	return mr, client
}

func TestLimiterReleaseSubmissionInRedis(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	limiter := NewLimiter(redrepo.NewCooldownRepo(client), DefaultSubmissionCooldown)
	ctx := context.Background()
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

	if _, allowed, err := limiter.AllowSubmission(ctx, 7, now); err != nil || !allowed {
		t.Fatalf("first submission: allowed=%v err=%v", allowed, err)
	}
	if err := limiter.ReleaseSubmission(ctx, 7, now); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, allowed, err := limiter.AllowSubmission(ctx, 7, now.Add(time.Second)); err != nil || !allowed {
		t.Fatalf("submission after release: allowed=%v err=%v", allowed, err)
	}
}
