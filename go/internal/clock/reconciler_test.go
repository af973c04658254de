package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDisplayedRemainingFrozenWhenStopped(t *testing.T) {
	started := time.Unix(1000, 0)
	now := started.Add(90 * time.Second)

	assert.Equal(t, 535, DisplayedRemaining(535, false, &started, now))
	assert.Equal(t, 535, DisplayedRemaining(535, true, nil, now))
}

func TestDisplayedRemainingCountsDown(t *testing.T) {
	started := time.Unix(1000, 0)

	tests := []struct {
		name   string
		offset time.Duration
		want   int
	}{
		{"at start", 0, 600},
		{"sub second floors", 999 * time.Millisecond, 600},
		{"one second", time.Second, 599},
		{"sixty five seconds", 65 * time.Second, 535},
		{"exactly zero", 600 * time.Second, 0},
		{"past zero clamps", 900 * time.Second, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayedRemaining(600, true, &started, started.Add(tt.offset)))
		})
	}
}

func TestDisplayedRemainingIsIdempotentAndMonotonic(t *testing.T) {
	started := time.Unix(5000, 0)
	prev := DisplayedRemaining(300, true, &started, started)
	for ms := 0; ms <= 400_000; ms += 137 {
		now := started.Add(time.Duration(ms) * time.Millisecond)
		a := DisplayedRemaining(300, true, &started, now)
		b := DisplayedRemaining(300, true, &started, now)
		assert.Equal(t, a, b)
		assert.LessOrEqual(t, a, prev)
		assert.GreaterOrEqual(t, a, 0)
		prev = a
	}
}

func TestDisplayedRemainingClockSkew(t *testing.T) {
	started := time.Unix(1000, 0)
	assert.Equal(t, 600, DisplayedRemaining(600, true, &started, started.Add(-3*time.Second)))
}

func TestCardRemaining(t *testing.T) {
	exp := time.Unix(300, 0)
	assert.Equal(t, 300, CardRemaining(exp, time.Unix(0, 0)))
	assert.Equal(t, 0, CardRemaining(exp, time.Unix(300, 0)))
	assert.Equal(t, 0, CardRemaining(exp, time.Unix(301, 0)))
	assert.Equal(t, 1, CardRemaining(exp, time.Unix(298, 500_000_000)))
}

func TestFormatMMSS(t *testing.T) {
	assert.Equal(t, "10:00", FormatMMSS(600))
	assert.Equal(t, "08:55", FormatMMSS(535))
	assert.Equal(t, "00:00", FormatMMSS(0))
	assert.Equal(t, "00:07", FormatMMSS(7))
	assert.Equal(t, "120:00", FormatMMSS(7200))
	assert.Equal(t, "00:00", FormatMMSS(-4))
}
