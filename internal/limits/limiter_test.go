package limits

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newTestCounter(t *testing.T) (*WindowCounter, *miniredis.Miniredis) {
	t.Helper()
	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() {
		client.Close()
		server.Close()
	})
	return NewWindowCounter(client), server
}

func TestWindowStartFloorsToGranularity(t *testing.T) {
	ts := time.Date(2025, time.March, 5, 14, 37, 42, 999, time.UTC)

	minute := WindowStart(GranularityMinute, ts)
	if want := time.Date(2025, time.March, 5, 14, 37, 0, 0, time.UTC); !minute.Equal(want) {
		t.Fatalf("minute window start = %v, want %v", minute, want)
	}

	day := WindowStart(GranularityDay, ts)
	if want := time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC); !day.Equal(want) {
		t.Fatalf("day window start = %v, want %v", day, want)
	}
}

func TestWindowStartBoundaryBelongsToNewWindow(t *testing.T) {
	// A request exactly on the boundary belongs to the window whose start
	// equals its timestamp.
	boundary := time.Date(2025, time.March, 5, 14, 38, 0, 0, time.UTC)
	if got := WindowStart(GranularityMinute, boundary); !got.Equal(boundary) {
		t.Fatalf("boundary window start = %v, want %v", got, boundary)
	}
}

func TestAdmitEnforcesMinuteLimit(t *testing.T) {
	counter, _ := newTestCounter(t)
	ctx := context.Background()
	credID := uuid.New()
	lim := Limits{PerMinute: 2, PerDay: 1000}

	for i := 0; i < 2; i++ {
		decision, err := counter.Admit(ctx, credID, lim)
		if err != nil {
			t.Fatalf("admit %d: %v", i, err)
		}
		if !decision.Admitted {
			t.Fatalf("request %d should be admitted", i)
		}
	}

	decision, err := counter.Admit(ctx, credID, lim)
	if err != nil {
		t.Fatalf("admit: %v", err)
	}
	if decision.Admitted {
		t.Fatalf("third request should be rejected")
	}
	if decision.Granularity != GranularityMinute {
		t.Fatalf("expected minute granularity, got %s", decision.Granularity)
	}
	if decision.RetryAfter <= 0 || decision.RetryAfter > time.Minute {
		t.Fatalf("retry after out of range: %v", decision.RetryAfter)
	}
}

func TestAdmitRejectionStillConsumesSlot(t *testing.T) {
	counter, _ := newTestCounter(t)
	ctx := context.Background()
	credID := uuid.New()
	lim := Limits{PerMinute: 1, PerDay: 1000}

	for i := 0; i < 3; i++ {
		if _, err := counter.Admit(ctx, credID, lim); err != nil {
			t.Fatalf("admit %d: %v", i, err)
		}
	}

	count, err := counter.Count(ctx, credID, GranularityMinute, time.Now())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected bucket count 3 including rejections, got %d", count)
	}
}

func TestAdmitConcurrentNoLostIncrements(t *testing.T) {
	counter, _ := newTestCounter(t)
	ctx := context.Background()
	credID := uuid.New()
	lim := Limits{PerMinute: 10, PerDay: 1000}

	const attempts = 15
	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted, rejected := 0, 0

	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			defer wg.Done()
			decision, err := counter.Admit(ctx, credID, lim)
			if err != nil {
				t.Errorf("admit: %v", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if decision.Admitted {
				admitted++
			} else {
				rejected++
			}
		}()
	}
	wg.Wait()

	if admitted != 10 || rejected != 5 {
		t.Fatalf("expected 10 admitted / 5 rejected, got %d/%d", admitted, rejected)
	}

	count, err := counter.Count(ctx, credID, GranularityMinute, time.Now())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != attempts {
		t.Fatalf("expected final bucket count %d, got %d", attempts, count)
	}
}

func TestAdmitDayLimitReportsLargerRetryAfter(t *testing.T) {
	counter, _ := newTestCounter(t)
	counter.now = func() time.Time {
		return time.Date(2025, time.March, 5, 14, 37, 42, 0, time.UTC)
	}
	ctx := context.Background()
	credID := uuid.New()
	lim := Limits{PerMinute: 1, PerDay: 1}

	if _, err := counter.Admit(ctx, credID, lim); err != nil {
		t.Fatalf("admit: %v", err)
	}

	decision, err := counter.Admit(ctx, credID, lim)
	if err != nil {
		t.Fatalf("admit: %v", err)
	}
	if decision.Admitted {
		t.Fatalf("second request should be rejected")
	}
	// Both windows rejected; the day window has the longer wait.
	if decision.Granularity != GranularityDay {
		t.Fatalf("expected day granularity, got %s", decision.Granularity)
	}
	if decision.RetryAfter <= time.Minute {
		t.Fatalf("expected day-scale retry after, got %v", decision.RetryAfter)
	}
}

func TestAdmitZeroLimitsAlwaysAdmit(t *testing.T) {
	counter, _ := newTestCounter(t)
	ctx := context.Background()
	credID := uuid.New()

	for i := 0; i < 5; i++ {
		decision, err := counter.Admit(ctx, credID, Limits{})
		if err != nil {
			t.Fatalf("admit: %v", err)
		}
		if !decision.Admitted {
			t.Fatalf("unlimited credential should always be admitted")
		}
	}
}

func TestAdmitSetsBucketRetentionTTL(t *testing.T) {
	counter, server := newTestCounter(t)
	ctx := context.Background()
	credID := uuid.New()

	if _, err := counter.Admit(ctx, credID, Limits{PerMinute: 10}); err != nil {
		t.Fatalf("admit: %v", err)
	}

	key := bucketKey(GranularityMinute, credID, WindowStart(GranularityMinute, time.Now()))
	if ttl := server.TTL(key); ttl != 3*time.Minute {
		t.Fatalf("expected 3m bucket TTL, got %v", ttl)
	}
}

func TestAdmitBackendDownFailsClosed(t *testing.T) {
	counter, server := newTestCounter(t)
	server.Close()

	_, err := counter.Admit(context.Background(), uuid.New(), Limits{PerMinute: 10})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
