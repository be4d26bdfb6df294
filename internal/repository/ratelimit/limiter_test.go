package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiterFixedWindow(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 10, 0, time.UTC)
	l := NewMemoryLimiter(2, time.Minute)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i, want := range []bool{true, true, false} {
		d, err := l.Allow(ctx, "u1")
		if err != nil {
			t.Fatal(err)
		}
		if d.Allowed != want {
			t.Errorf("request %d allowed=%v, want %v", i, d.Allowed, want)
		}
	}
	if d, _ := l.Allow(ctx, "u2"); !d.Allowed || d.Remaining != 1 {
		t.Errorf("other key: %+v", d)
	}

	d, _ := l.Allow(ctx, "u1")
	if d.Remaining != 0 || d.Reset != 50*time.Second {
		t.Errorf("unexpected decision %+v", d)
	}

	now = now.Add(time.Minute)
	if d, _ := l.Allow(ctx, "u1"); !d.Allowed || d.Remaining != 1 {
		t.Errorf("new window: %+v", d)
	}
}
