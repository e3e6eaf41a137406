package logstream

import "time"

// MaxBackoff caps the wait between reconnect or poll attempts.
const MaxBackoff = 30 * time.Second

// ShouldReconnect reports whether a dropped stream should be reopened:
// only live (follow) streams whose output is on screen are.
func ShouldReconnect(follow, visible bool) bool {
	return follow && visible
}

// Backoff doubles base for every consecutive failure, capped at MaxBackoff.
func Backoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	wait := base
	for i := 0; i < failures; i++ {
		wait *= 2
		if wait >= MaxBackoff {
			return MaxBackoff
		}
	}
	return wait
}
