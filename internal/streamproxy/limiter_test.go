package streamproxy

import (
	"context"
	"testing"
	"time"
)

func TestConcurrencyLimiterBoundsSlots(t *testing.T) {
	l := newConcurrencyLimiter(2)
	ctx := context.Background()

	if err := l.acquire(ctx); err != nil {
		t.Fatalf("acquire() error = %v", err)
	}
	if err := l.acquire(ctx); err != nil {
		t.Fatalf("acquire() error = %v", err)
	}

	blockedCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := l.acquire(blockedCtx); err == nil {
		t.Error("expected third acquire to block until timeout and return an error")
	}

	l.release()
	if err := l.acquire(ctx); err != nil {
		t.Fatalf("acquire() after release error = %v", err)
	}
}
