package limits

import "time"

// Granularity is the fixed bucket size used for quota accounting.
type Granularity string

const (
	GranularityMinute Granularity = "minute"
	GranularityDay    Granularity = "day"
)

// Length returns the window duration for the granularity.
func (g Granularity) Length() time.Duration {
	if g == GranularityDay {
		return 24 * time.Hour
	}
	return time.Minute
}

// WindowStart floors the instant to the start of its window in UTC.
// A request at an exact boundary belongs to the window whose start is
// less than or equal to its timestamp (half-open [start, start+length)).
func WindowStart(g Granularity, now time.Time) time.Time {
	now = now.UTC()
	if g == GranularityDay {
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	return now.Truncate(time.Minute)
}

// bucketTTL is the retention horizon for a bucket: the window itself plus
// a grace period of two further window lengths for audit and debugging.
func bucketTTL(g Granularity) time.Duration {
	return 3 * g.Length()
}
