package cyclequota

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCachedCounter_MemoizesWithinTTL(t *testing.T) {
	var calls int32
	inner := UsageCounterFunc(func(ctx context.Context, tenantID string, start, end time.Time) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 7, nil
	})
	c := NewCachedCounter(inner, time.Minute, nil)

	start, end := date(2025, 1, 15), date(2025, 4, 14)
	for i := 0; i < 5; i++ {
		count, err := c.Count(context.Background(), "ws-1", start, end)
		if err != nil {
			t.Fatalf("Count: %v", err)
		}
		if count != 7 {
			t.Errorf("count: got %d", count)
		}
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("inner calls: got %d, want 1", got)
	}
}

func TestCachedCounter_DistinctKeysPerTenantAndRange(t *testing.T) {
	var calls int32
	inner := UsageCounterFunc(func(ctx context.Context, tenantID string, start, end time.Time) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 1, nil
	})
	c := NewCachedCounter(inner, time.Minute, nil)
	ctx := context.Background()

	c.Count(ctx, "ws-1", date(2025, 1, 15), date(2025, 4, 14))
	c.Count(ctx, "ws-2", date(2025, 1, 15), date(2025, 4, 14))
	c.Count(ctx, "ws-1", date(2025, 4, 15), date(2025, 7, 14))

	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("inner calls: got %d, want 3", got)
	}
}

func TestCachedCounter_ExpiresAfterTTL(t *testing.T) {
	var calls int32
	inner := UsageCounterFunc(func(ctx context.Context, tenantID string, start, end time.Time) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 1, nil
	})
	c := NewCachedCounter(inner, 30*time.Second, nil)

	current := date(2025, 6, 1)
	c.now = func() time.Time { return current }

	ctx := context.Background()
	c.Count(ctx, "ws-1", date(2025, 6, 1), date(2025, 6, 30))
	current = current.Add(31 * time.Second)
	c.Count(ctx, "ws-1", date(2025, 6, 1), date(2025, 6, 30))

	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("inner calls: got %d, want 2", got)
	}
}

func TestCachedCounter_ErrorsAreNotCached(t *testing.T) {
	var calls int32
	inner := UsageCounterFunc(func(ctx context.Context, tenantID string, start, end time.Time) (int, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return 0, errors.New("down")
		}
		return 9, nil
	})
	c := NewCachedCounter(inner, time.Minute, nil)
	ctx := context.Background()

	if _, err := c.Count(ctx, "ws-1", date(2025, 6, 1), date(2025, 6, 30)); err == nil {
		t.Fatal("expected error on first call")
	}
	count, err := c.Count(ctx, "ws-1", date(2025, 6, 1), date(2025, 6, 30))
	if err != nil || count != 9 {
		t.Errorf("second call: count=%d err=%v", count, err)
	}
}

func TestCachedCounter_Invalidate(t *testing.T) {
	var calls int32
	inner := UsageCounterFunc(func(ctx context.Context, tenantID string, start, end time.Time) (int, error) {
		return int(atomic.AddInt32(&calls, 1)), nil
	})
	c := NewCachedCounter(inner, time.Minute, nil)
	ctx := context.Background()
	start, end := date(2025, 6, 1), date(2025, 6, 30)

	first, _ := c.Count(ctx, "ws-1", start, end)
	c.Invalidate("ws-1", start, end)
	second, _ := c.Count(ctx, "ws-1", start, end)

	if first != 1 || second != 2 {
		t.Errorf("got %d then %d, want 1 then 2", first, second)
	}
}

func TestCachedCounter_ConcurrentLookupsAreDeduplicated(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	inner := UsageCounterFunc(func(ctx context.Context, tenantID string, start, end time.Time) (int, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return 3, nil
	})
	c := NewCachedCounter(inner, time.Minute, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			count, err := c.Count(ctx, "ws-1", date(2025, 6, 1), date(2025, 6, 30))
			if err != nil || count != 3 {
				t.Errorf("count=%d err=%v", count, err)
			}
		}()
	}
	// Give the goroutines time to pile onto the same singleflight key.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("inner calls: got %d, want 1", got)
	}
}
