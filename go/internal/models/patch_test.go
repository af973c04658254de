package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMatchDefaults(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewMatch(uuid.New(), "owner-1", "", now)

	assert.Equal(t, "New Match", m.Name)
	assert.Equal(t, PeriodKindQuarters, m.GameFormat.Type)
	assert.Equal(t, 600, m.TimerRemainingSec)
	assert.Equal(t, 0, m.CurrentPeriod)
	assert.False(t, m.IsTimerRunning)
	assert.Nil(t, m.TimerStartedAt)
	assert.Equal(t, ThemeDark, m.ScoreboardTheme)
	assert.Equal(t, "HOME", m.HomeTeam.NameAbbr)
	assert.Equal(t, "#1a56db", m.HomeTeam.PrimaryColor)
	assert.Equal(t, "AWAY", m.AwayTeam.NameAbbr)
	assert.Equal(t, "#7f1d1d", m.AwayTeam.SecondaryColor)
	assert.NotNil(t, m.HomeTeam.Cards)
}

func TestMaxPeriods(t *testing.T) {
	assert.Equal(t, 4, GameFormat{Type: PeriodKindQuarters}.MaxPeriods())
	assert.Equal(t, 2, GameFormat{Type: PeriodKindHalves}.MaxPeriods())
}

func TestCloneDoesNotShareCards(t *testing.T) {
	exp := time.Unix(100, 0)
	m := NewMatch(uuid.New(), "o", "x", time.Unix(0, 0))
	m.HomeTeam.Cards = append(m.HomeTeam.Cards, Card{Type: CardGreen, ID: "c1", ExpiresAt: &exp})

	c := m.Clone()
	c.HomeTeam.Cards[0].ID = "changed"
	*c.HomeTeam.Cards[0].ExpiresAt = time.Unix(5, 0)

	assert.Equal(t, "c1", m.HomeTeam.Cards[0].ID)
	assert.True(t, m.HomeTeam.Cards[0].ExpiresAt.Equal(exp))
}

func TestDiffOnlyChangedFields(t *testing.T) {
	prev := NewMatch(uuid.New(), "o", "x", time.Unix(0, 0))
	next := prev.Clone()

	assert.True(t, Diff(prev, next).IsEmpty())

	started := time.Unix(10, 0)
	next.IsTimerRunning = true
	next.TimerStartedAt = &started
	next.AwayTeam.FieldGoals = 1
	next.AwayTeam.Score = 1

	p := Diff(prev, next)
	require.False(t, p.IsEmpty())
	assert.ElementsMatch(t, []string{"away_team", "is_timer_running", "timer_started_at"}, p.Fields())
	assert.Nil(t, p.HomeTeam)

	applied := prev.Clone()
	p.ApplyTo(&applied)
	assert.True(t, applied.AwayTeam.Equal(next.AwayTeam))
	assert.True(t, applied.IsTimerRunning)
	require.NotNil(t, applied.TimerStartedAt)
	assert.True(t, applied.TimerStartedAt.Equal(started))
}

func TestDiffClearsTimerStartedAt(t *testing.T) {
	started := time.Unix(10, 0)
	prev := NewMatch(uuid.New(), "o", "x", time.Unix(0, 0))
	prev.IsTimerRunning = true
	prev.TimerStartedAt = &started

	next := prev.Clone()
	next.IsTimerRunning = false
	next.TimerStartedAt = nil

	p := Diff(prev, next)
	assert.True(t, p.ClearTimerStartedAt)
	assert.Nil(t, p.TimerStartedAt)

	p.ApplyTo(&prev)
	assert.Nil(t, prev.TimerStartedAt)
	assert.False(t, prev.IsTimerRunning)
}

func TestCardDurations(t *testing.T) {
	d, ok := CardGreen.Duration()
	assert.True(t, ok)
	assert.Equal(t, 120*time.Second, d)

	d, ok = CardYellow.Duration()
	assert.True(t, ok)
	assert.Equal(t, 300*time.Second, d)

	_, ok = CardRed.Duration()
	assert.False(t, ok)
}
