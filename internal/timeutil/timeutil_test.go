package timeutil

import (
	"testing"
	"time"
)

func TestNewWindowPeriods(t *testing.T) {
	now := time.Date(2025, time.May, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		period string
		want   time.Duration
	}{
		{"24h", 24 * time.Hour},
		{"7d", 7 * 24 * time.Hour},
		{"30m", 30 * time.Minute},
		{" 1D ", 24 * time.Hour},
	}

	for _, tt := range tests {
		w, err := NewWindow(tt.period, now)
		if err != nil {
			t.Fatalf("NewWindow(%q): %v", tt.period, err)
		}
		if got := w.End().Sub(w.Start()); got != tt.want {
			t.Errorf("NewWindow(%q) length = %v, want %v", tt.period, got, tt.want)
		}
		if !w.End().Equal(now) {
			t.Errorf("NewWindow(%q) end = %v, want %v", tt.period, w.End(), now)
		}
	}
}

func TestNewWindowInvalid(t *testing.T) {
	now := time.Now()
	for _, period := range []string{"", "d", "0d", "-1h", "7w", "abc"} {
		if _, err := NewWindow(period, now); err == nil {
			t.Errorf("NewWindow(%q): expected error", period)
		}
	}
}

func TestWindowContains(t *testing.T) {
	now := time.Date(2025, time.May, 10, 12, 0, 0, 0, time.UTC)
	w, err := NewWindow("1h", now)
	if err != nil {
		t.Fatalf("NewWindow: %v", err)
	}

	if !w.Contains(w.Start()) {
		t.Errorf("window should contain its inclusive start")
	}
	if w.Contains(w.End()) {
		t.Errorf("window should exclude its end")
	}
	if w.Contains(w.Start().Add(-time.Second)) {
		t.Errorf("window should exclude instants before start")
	}
}
