package ai

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeClock drives a Limiter deterministically: sleeping advances time.
type fakeClock struct {
	mu  sync.Mutex
	t   time.Time
	cur time.Duration
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t.Add(c.cur)
}

func (c *fakeClock) sleep(_ context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur += d
	return nil
}

func fakeLimiter(maxRequests int, window time.Duration) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	l := NewLimiter(maxRequests, window)
	l.now = clock.now
	l.sleep = clock.sleep
	return l, clock
}

func TestLimiterNeverOvershootsWindow(t *testing.T) {
	const n = 4
	window := time.Minute
	l, clock := fakeLimiter(n, window)

	// 3N sequential acquisitions on a fake clock: exactly N per window.
	perWindow := make(map[int64]int)
	for i := 0; i < 3*n; i++ {
		require.NoError(t, l.Wait(context.Background()))
		bucket := clock.now().Unix() / int64(window.Seconds())
		perWindow[bucket]++
	}

	require.Len(t, perWindow, 3)
	for bucket, count := range perWindow {
		require.LessOrEqual(t, count, n, "window %d over the ceiling", bucket)
	}
}

func TestLimiterConcurrentCallersQueue(t *testing.T) {
	const n = 5
	window := 200 * time.Millisecond
	l := NewLimiter(n, window)

	var mu sync.Mutex
	var stamps []time.Time
	var wg sync.WaitGroup
	for i := 0; i < 3*n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, l.Wait(context.Background()))
			mu.Lock()
			stamps = append(stamps, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, stamps, 3*n)
	first := stamps[0]
	for _, s := range stamps {
		if s.Before(first) {
			first = s
		}
	}
	perWindow := make(map[int64]int)
	for _, s := range stamps {
		perWindow[int64(s.Sub(first)/window)]++
	}
	for bucket, count := range perWindow {
		require.LessOrEqual(t, count, n, "window %d over the ceiling", bucket)
	}
}

func TestLimiterDisabled(t *testing.T) {
	l := NewLimiter(0, time.Minute)
	for i := 0; i < 100; i++ {
		require.NoError(t, l.Wait(context.Background()))
	}
}

func TestLimiterCancellation(t *testing.T) {
	l := NewLimiter(1, time.Hour)
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Wait(ctx) }()
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Wait did not observe cancellation")
	}
}
