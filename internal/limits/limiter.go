// Package limits implements race-safe fixed-window admission control.
//
// Counting rides on Redis INCR: creating the bucket and incrementing it
// is a single indivisible operation, so concurrent requests against the
// same credential and window can never lose an increment. A rejected
// request still consumes a quota slot; the increment is deliberately not
// rolled back so retry storms cannot mint extra throughput.
package limits

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrUnavailable reports that the counter backend could not be reached.
// Callers must treat this as a denial (fail closed), never as admission.
var ErrUnavailable = errors.New("admission counter unavailable")

// Limits carries the per-credential quota ceilings. A zero or negative
// value disables enforcement for that granularity.
type Limits struct {
	PerMinute int
	PerDay    int
}

// Decision is the outcome of an admission check. When rejected,
// Granularity names the window that tripped and RetryAfter is the time
// remaining until that window rolls over.
type Decision struct {
	Admitted    bool
	Granularity Granularity
	RetryAfter  time.Duration
}

// WindowCounter admits requests against minute and day fixed windows.
type WindowCounter struct {
	client *redis.Client
	now    func() time.Time
}

func NewWindowCounter(client *redis.Client) *WindowCounter {
	return &WindowCounter{client: client, now: time.Now}
}

// Admit increments the minute and day buckets for the credential and
// compares the post-increment counts against the limits. Both windows
// are counted even when the first already rejected, so every attempt is
// reflected in every bucket. When both windows reject, the decision
// carries the larger RetryAfter.
func (c *WindowCounter) Admit(ctx context.Context, credentialID uuid.UUID, lim Limits) (Decision, error) {
	if c == nil || c.client == nil {
		return Decision{}, ErrUnavailable
	}

	now := c.now().UTC()
	checks := []struct {
		granularity Granularity
		limit       int
	}{
		{GranularityMinute, lim.PerMinute},
		{GranularityDay, lim.PerDay},
	}

	decision := Decision{Admitted: true}
	for _, check := range checks {
		if check.limit <= 0 {
			continue
		}
		start := WindowStart(check.granularity, now)
		key := bucketKey(check.granularity, credentialID, start)

		count, err := c.client.Incr(ctx, key).Result()
		if err != nil {
			return Decision{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if count == 1 {
			c.client.Expire(ctx, key, bucketTTL(check.granularity))
		}
		if count > int64(check.limit) {
			retryAfter := start.Add(check.granularity.Length()).Sub(now)
			if decision.Admitted || retryAfter > decision.RetryAfter {
				decision = Decision{
					Admitted:    false,
					Granularity: check.granularity,
					RetryAfter:  retryAfter,
				}
			}
		}
	}
	return decision, nil
}

// Count returns the current bucket count for the credential's window
// containing ts; absent buckets read as zero.
func (c *WindowCounter) Count(ctx context.Context, credentialID uuid.UUID, g Granularity, ts time.Time) (int64, error) {
	key := bucketKey(g, credentialID, WindowStart(g, ts))
	count, err := c.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return count, nil
}

func bucketKey(g Granularity, credentialID uuid.UUID, start time.Time) string {
	return fmt.Sprintf("win:%s:%s:%d", g, credentialID, start.Unix())
}
