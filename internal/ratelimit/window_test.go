package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestWindowLimiterEnforcesLimit(t *testing.T) {
	t.Parallel()

	l := NewWindowLimiter(3, time.Minute)
	defer l.Stop()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l.nowFn = func() time.Time { return now }

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		allowed, err := l.Allow(ctx, "ip:1")
		if err != nil || !allowed {
			t.Fatalf("request %d rejected: allowed=%v err=%v", i, allowed, err)
		}
	}
	if allowed, _ := l.Allow(ctx, "ip:1"); allowed {
		t.Fatalf("request over limit allowed")
	}
}

func TestWindowLimiterKeysAreIndependent(t *testing.T) {
	t.Parallel()

	l := NewWindowLimiter(1, time.Minute)
	defer l.Stop()
	ctx := context.Background()

	if allowed, _ := l.Allow(ctx, "ip:1"); !allowed {
		t.Fatalf("first request for ip:1 rejected")
	}
	if allowed, _ := l.Allow(ctx, "ip:2"); !allowed {
		t.Fatalf("other key blocked by ip:1's window")
	}
}

func TestWindowLimiterResetsAfterWindow(t *testing.T) {
	t.Parallel()

	l := NewWindowLimiter(1, time.Minute)
	defer l.Stop()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l.nowFn = func() time.Time { return now }
	ctx := context.Background()

	if allowed, _ := l.Allow(ctx, "ip:1"); !allowed {
		t.Fatalf("first request rejected")
	}
	if allowed, _ := l.Allow(ctx, "ip:1"); allowed {
		t.Fatalf("second request in window allowed")
	}

	now = now.Add(61 * time.Second)
	if allowed, _ := l.Allow(ctx, "ip:1"); !allowed {
		t.Fatalf("request after window reset rejected")
	}
}
