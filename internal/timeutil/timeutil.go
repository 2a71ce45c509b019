package timeutil

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidPeriod = errors.New("invalid period")

// Window represents a rolling reporting window ending at a reference
// instant, e.g. the last 24h or 7d of usage.
type Window struct {
	period string
	start  time.Time
	end    time.Time
}

// NewWindow constructs a rolling window for the requested period
// (e.g. "24h", "7d") ending at now. All bounds are UTC.
func NewWindow(period string, now time.Time) (Window, error) {
	now = now.UTC()
	dur, err := durationFromPeriod(period)
	if err != nil {
		return Window{}, err
	}
	return Window{
		period: normalizePeriod(period),
		start:  now.Add(-dur),
		end:    now,
	}, nil
}

// Period returns the normalized period string (e.g. "7d").
func (w Window) Period() string { return w.period }

// Start returns the inclusive start of the window.
func (w Window) Start() time.Time { return w.start }

// End returns the exclusive end of the window.
func (w Window) End() time.Time { return w.end }

// Contains reports whether the timestamp falls within [start, end).
func (w Window) Contains(ts time.Time) bool {
	return !ts.Before(w.start) && ts.Before(w.end)
}

func durationFromPeriod(period string) (time.Duration, error) {
	p := normalizePeriod(period)
	if len(p) < 2 {
		return 0, ErrInvalidPeriod
	}
	unit := p[len(p)-1]
	value, err := strconv.Atoi(p[:len(p)-1])
	if err != nil || value <= 0 {
		return 0, ErrInvalidPeriod
	}
	switch unit {
	case 'd':
		return time.Duration(value) * 24 * time.Hour, nil
	case 'h':
		return time.Duration(value) * time.Hour, nil
	case 'm':
		return time.Duration(value) * time.Minute, nil
	default:
		return 0, ErrInvalidPeriod
	}
}

func normalizePeriod(period string) string {
	return strings.ToLower(strings.TrimSpace(period))
}
