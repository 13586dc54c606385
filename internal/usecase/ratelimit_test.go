package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

type stubCounter struct {
	counts map[string]int64
	err    error
	keys   []string
}

func (s *stubCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	s.keys = append(s.keys, key)
	if s.err != nil {
		return 0, s.err
	}
	if s.counts == nil {
		s.counts = map[string]int64{}
	}
	s.counts[key]++
	return s.counts[key], nil
}

func TestRateLimiterBlocksAfterLimit(t *testing.T) {
	counter := &stubCounter{}
	limiter := NewRateLimiter(counter, 2, time.Minute, zap.NewNop())
	limiter.now = func() time.Time { return time.Unix(600, 0) }

	ctx := context.Background()
	if !limiter.Allow(ctx, "10.0.0.1") || !limiter.Allow(ctx, "10.0.0.1") {
		t.Fatal("first two requests should pass")
	}
	if limiter.Allow(ctx, "10.0.0.1") {
		t.Fatal("third request should be limited")
	}
	if !limiter.Allow(ctx, "10.0.0.2") {
		t.Fatal("another client should have its own budget")
	}
}

func TestRateLimiterResetsInNextWindow(t *testing.T) {
	counter := &stubCounter{}
	limiter := NewRateLimiter(counter, 1, time.Minute, zap.NewNop())

	current := time.Unix(600, 0)
	limiter.now = func() time.Time { return current }

	ctx := context.Background()
	if !limiter.Allow(ctx, "client") {
		t.Fatal("first request should pass")
	}
	if limiter.Allow(ctx, "client") {
		t.Fatal("second request in the same window should be limited")
	}

	current = current.Add(time.Minute)
	if !limiter.Allow(ctx, "client") {
		t.Fatal("request in the next window should pass")
	}
	if counter.keys[0] == counter.keys[2] {
		t.Fatalf("expected a new window key, got %s twice", counter.keys[0])
	}
}

func TestRateLimiterFailsOpen(t *testing.T) {
	limiter := NewRateLimiter(&stubCounter{err: errors.New("redis down")}, 1, time.Minute, zap.NewNop())

	for i := 0; i < 3; i++ {
		if !limiter.Allow(context.Background(), "client") {
			t.Fatal("requests should pass when the counter is unavailable")
		}
	}
}
