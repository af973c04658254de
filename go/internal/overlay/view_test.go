package overlay

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/matchboard/go/internal/models"
	"github.com/mcdev12/matchboard/go/internal/replica"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

func runningMatch() models.Match {
	m := models.NewMatch(uuid.New(), "op", "final", t0)
	m.CurrentPeriod = 1
	m.IsTimerRunning = true
	started := t0
	m.TimerStartedAt = &started
	m.Revision = 3
	return m
}

func TestPeriodLabel(t *testing.T) {
	m := models.NewMatch(uuid.New(), "op", "", t0)
	assert.Equal(t, "PRE", PeriodLabel(m))

	m.CurrentPeriod = 3
	assert.Equal(t, "Q3", PeriodLabel(m))

	m.GameFormat.Type = models.PeriodKindHalves
	m.CurrentPeriod = 2
	assert.Equal(t, "H2", PeriodLabel(m))

	m.IsMatchEnded = true
	assert.Equal(t, "FINAL", PeriodLabel(m))
}

func TestDeriveRunningClock(t *testing.T) {
	m := runningMatch()

	v := Derive(m, t0.Add(125*time.Second))
	assert.Equal(t, "07:55", v.Clock)
	assert.True(t, v.ClockRunning)
	assert.Equal(t, "Q1", v.PeriodLabel)
	assert.Equal(t, m.ID, v.MatchID)
	assert.Equal(t, "HOME", v.Home.NameAbbr)
	assert.Equal(t, models.ThemeDark, v.Theme)

	v = Derive(m, t0.Add(time.Hour))
	assert.Equal(t, "00:00", v.Clock)
}

func TestDeriveStoppedClockIgnoresNow(t *testing.T) {
	m := models.NewMatch(uuid.New(), "op", "", t0)
	m.TimerRemainingSec = 83

	assert.Equal(t, "01:23", Derive(m, t0.Add(time.Hour)).Clock)
	assert.False(t, Derive(m, t0).ClockRunning)
}

func TestDeriveSplitsClockAndCardInstants(t *testing.T) {
	m := runningMatch()
	exp := t0.Add(120 * time.Second)
	m.AwayTeam.Cards = []models.Card{{Type: models.CardGreen, ID: "g", ExpiresAt: &exp}}

	v := derive(m, t0.Add(30*time.Second), t0.Add(10*time.Second))
	assert.Equal(t, "09:30", v.Clock)
	require.Len(t, v.Away.Cards, 1)
	assert.Equal(t, 110, v.Away.Cards[0].RemainingSec)
}

func TestViewEqualIgnoresRevision(t *testing.T) {
	m := runningMatch()
	a := Derive(m, t0)
	m.Revision++
	m.Description = "renamed"
	b := Derive(m, t0)
	assert.True(t, a.Equal(b))

	m.HomeTeam.Score = 1
	assert.False(t, a.Equal(Derive(m, t0)))
}

func TestRenderNonLiveHasNoView(t *testing.T) {
	f := Render(replica.Snapshot{Status: replica.StatusDeleted}, t0, t0)
	assert.Equal(t, replica.StatusDeleted, f.Status)
	assert.Nil(t, f.View)

	snap := replica.Snapshot{Status: replica.StatusLive, Match: runningMatch()}
	live := Render(snap, t0, t0)
	require.NotNil(t, live.View)
	assert.False(t, f.Equal(live))
	assert.True(t, live.Equal(Render(snap, t0.Add(500*time.Millisecond), t0)))
	assert.False(t, live.Equal(Render(snap, t0.Add(time.Second), t0)))
}
