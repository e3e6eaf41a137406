package logstream

import (
	"testing"
	"time"
)

func TestShouldReconnect(t *testing.T) {
	tests := []struct {
		follow, visible bool
		want            bool
	}{
		{true, true, true},
		{true, false, false},
		{false, true, false},
		{false, false, false},
	}
	for _, tt := range tests {
		if got := ShouldReconnect(tt.follow, tt.visible); got != tt.want {
			t.Errorf("ShouldReconnect(%v, %v) = %v, want %v", tt.follow, tt.visible, got, tt.want)
		}
	}
}

func TestBackoff(t *testing.T) {
	base := time.Second
	tests := []struct {
		failures int
		want     time.Duration
	}{
		{-1, time.Second},
		{0, time.Second},
		{1, 2 * time.Second},
		{3, 8 * time.Second},
		{5, MaxBackoff},
		{64, MaxBackoff},
	}
	for _, tt := range tests {
		if got := Backoff(tt.failures, base); got != tt.want {
			t.Errorf("Backoff(%d, %v) = %v, want %v", tt.failures, base, got, tt.want)
		}
	}
}
