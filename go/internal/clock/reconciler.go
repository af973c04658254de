// Package clock reconstructs the live period countdown from the stored
// remaining seconds and the moment the timer was last started.
package clock

import (
	"fmt"
	"time"
)

// DisplayedRemaining returns the seconds left on the period clock as seen at
// now. A stopped clock, or one with no start timestamp, shows remainingSec
// unchanged. The result never drops below zero.
func DisplayedRemaining(remainingSec int, running bool, startedAt *time.Time, now time.Time) int {
	if !running || startedAt == nil {
		return remainingSec
	}
	elapsed := int(now.Sub(*startedAt) / time.Second)
	if elapsed < 0 {
		// local clock behind the writer's; show the stored value
		elapsed = 0
	}
	return max(0, remainingSec-elapsed)
}

// CardRemaining returns whole seconds until expiresAt, floored at zero.
func CardRemaining(expiresAt time.Time, now time.Time) int {
	left := int(expiresAt.Sub(now) / time.Second)
	return max(0, left)
}

// FormatMMSS renders seconds as zero-padded minutes and seconds. Minutes are
// not capped at 99.
func FormatMMSS(sec int) string {
	if sec < 0 {
		sec = 0
	}
	return fmt.Sprintf("%02d:%02d", sec/60, sec%60)
}
