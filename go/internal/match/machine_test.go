package match

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/matchboard/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 5, 9, 14, 0, 0, 0, time.UTC)

func newTestMatch() models.Match {
	return models.NewMatch(uuid.New(), "owner-1", "Cup Final", t0)
}

func envAt(offset time.Duration) Env {
	return Env{Now: t0.Add(offset), NewCardID: uuid.New}
}

func mustApply(t *testing.T, m models.Match, cmd Command, env Env) models.Match {
	t.Helper()
	next, ok := Apply(m, cmd, env)
	require.True(t, ok, "command %s was not applied", cmd.CommandName())
	return next
}

func TestQuartersScenario(t *testing.T) {
	m := newTestMatch()

	m = mustApply(t, m, StartPeriod{}, envAt(0))
	assert.Equal(t, 1, m.CurrentPeriod)
	assert.True(t, m.IsTimerRunning)
	require.NotNil(t, m.TimerStartedAt)
	assert.True(t, m.TimerStartedAt.Equal(t0))

	m = mustApply(t, m, StopPeriod{}, envAt(65*time.Second))
	assert.Equal(t, 535, m.TimerRemainingSec)
	assert.False(t, m.IsTimerRunning)
	assert.Nil(t, m.TimerStartedAt)

	m = mustApply(t, m, AddScore{Side: models.SideHome, Kind: ScoreFieldGoal}, envAt(70*time.Second))
	assert.Equal(t, 1, m.HomeTeam.Score)
	assert.Equal(t, 1, m.HomeTeam.FieldGoals)

	m = mustApply(t, m, AdvancePeriod{}, envAt(80*time.Second))
	assert.Equal(t, 2, m.CurrentPeriod)
	assert.Equal(t, 600, m.TimerRemainingSec)
	assert.False(t, m.IsMatchEnded)

	m = mustApply(t, m, AdvancePeriod{}, envAt(0))
	m = mustApply(t, m, AdvancePeriod{}, envAt(0))
	assert.Equal(t, 4, m.CurrentPeriod)
	assert.False(t, m.IsMatchEnded)

	m = mustApply(t, m, AdvancePeriod{}, envAt(0))
	assert.True(t, m.IsMatchEnded)
	assert.Equal(t, 4, m.CurrentPeriod)
	assert.False(t, m.IsTimerRunning)
}

func TestHalvesEndAfterTwoPeriods(t *testing.T) {
	m := newTestMatch()
	halves := models.PeriodKindHalves
	m = mustApply(t, m, UpdateFormat{Type: &halves}, envAt(0))
	m = mustApply(t, m, StartPeriod{}, envAt(0))
	m = mustApply(t, m, AdvancePeriod{}, envAt(time.Minute))
	assert.Equal(t, 2, m.CurrentPeriod)
	m = mustApply(t, m, AdvancePeriod{}, envAt(2*time.Minute))
	assert.True(t, m.IsMatchEnded)
	assert.LessOrEqual(t, m.CurrentPeriod, m.GameFormat.MaxPeriods())
}

func TestAdvancePeriodWhileRunningStopsClock(t *testing.T) {
	m := newTestMatch()
	m = mustApply(t, m, StartPeriod{}, envAt(0))
	m = mustApply(t, m, AdvancePeriod{}, envAt(30*time.Second))
	assert.False(t, m.IsTimerRunning)
	assert.Nil(t, m.TimerStartedAt)
	assert.Equal(t, 600, m.TimerRemainingSec)
}

func TestStartPeriodGuards(t *testing.T) {
	m := newTestMatch()
	m = mustApply(t, m, EndMatch{}, envAt(0))

	_, ok := Apply(m, StartPeriod{}, envAt(time.Second))
	assert.False(t, ok)

	running := mustApply(t, newTestMatch(), StartPeriod{}, envAt(0))
	again, ok := Apply(running, StartPeriod{}, envAt(10*time.Second))
	assert.False(t, ok)
	assert.True(t, again.TimerStartedAt.Equal(t0))
}

func TestStartPeriodKeepsCurrentPeriod(t *testing.T) {
	m := newTestMatch()
	m.CurrentPeriod = 3
	m = mustApply(t, m, StartPeriod{}, envAt(0))
	assert.Equal(t, 3, m.CurrentPeriod)
}

func TestStopPeriodRequiresRunning(t *testing.T) {
	m := newTestMatch()
	next, ok := Apply(m, StopPeriod{}, envAt(time.Minute))
	assert.False(t, ok)
	assert.Equal(t, m, next)
}

func TestStopPeriodClampsAtZero(t *testing.T) {
	m := newTestMatch()
	m = mustApply(t, m, StartPeriod{}, envAt(0))
	m = mustApply(t, m, StopPeriod{}, envAt(20*time.Minute))
	assert.Equal(t, 0, m.TimerRemainingSec)
}

func TestSubtractScoreOnZeroIsNoop(t *testing.T) {
	m := newTestMatch()
	next, ok := Apply(m, SubtractScore{Side: models.SideHome, Kind: ScoreFieldGoal}, envAt(0))
	assert.False(t, ok)
	assert.Equal(t, m, next)
	assert.Equal(t, 0, next.HomeTeam.Score)
}

func TestSubtractScoreNeedsMatchingCounter(t *testing.T) {
	m := newTestMatch()
	m = mustApply(t, m, AddScore{Side: models.SideAway, Kind: ScorePCGoal}, envAt(0))

	_, ok := Apply(m, SubtractScore{Side: models.SideAway, Kind: ScorePSGoal}, envAt(0))
	assert.False(t, ok)

	m = mustApply(t, m, SubtractScore{Side: models.SideAway, Kind: ScorePCGoal}, envAt(0))
	assert.Equal(t, 0, m.AwayTeam.Score)
	assert.Equal(t, 0, m.AwayTeam.PenaltyCornersConverted)
}

func TestScoreInvariantUnderRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	sides := []models.Side{models.SideHome, models.SideAway}
	kinds := []ScoreKind{ScoreFieldGoal, ScorePCGoal, ScorePSGoal}

	m := newTestMatch()
	for i := 0; i < 2000; i++ {
		side := sides[rng.Intn(len(sides))]
		kind := kinds[rng.Intn(len(kinds))]
		var cmd Command = AddScore{Side: side, Kind: kind}
		if rng.Intn(2) == 0 {
			cmd = SubtractScore{Side: side, Kind: kind}
		}
		m, _ = Apply(m, cmd, envAt(0))

		for _, team := range []models.Team{m.HomeTeam, m.AwayTeam} {
			require.Equal(t, team.GoalTotal(), team.Score)
			require.GreaterOrEqual(t, team.FieldGoals, 0)
			require.GreaterOrEqual(t, team.PenaltyCornersConverted, 0)
			require.GreaterOrEqual(t, team.PenaltyStrokesConverted, 0)
		}
	}
}

func TestEndedMatchRejectsMutations(t *testing.T) {
	m := newTestMatch()
	m = mustApply(t, m, AddScore{Side: models.SideHome, Kind: ScoreFieldGoal}, envAt(0))
	m = mustApply(t, m, AddCard{Side: models.SideHome, Type: models.CardGreen}, envAt(0))
	m = mustApply(t, m, AddPenaltyStat{Side: models.SideHome, Kind: PenaltyCornerAwarded}, envAt(0))
	m = mustApply(t, m, EndMatch{}, envAt(0))

	rejected := []Command{
		StartPeriod{},
		AddScore{Side: models.SideHome, Kind: ScoreFieldGoal},
		SubtractScore{Side: models.SideHome, Kind: ScoreFieldGoal},
		AddPenaltyStat{Side: models.SideAway, Kind: PenaltyStrokeAwarded},
		SubtractPenaltyStat{Side: models.SideHome, Kind: PenaltyCornerAwarded},
		AddCard{Side: models.SideAway, Type: models.CardRed},
		RemoveCard{Side: models.SideHome, Type: models.CardGreen},
	}
	for _, cmd := range rejected {
		t.Run(cmd.CommandName(), func(t *testing.T) {
			next, ok := Apply(m, cmd, envAt(time.Second))
			assert.False(t, ok)
			assert.Equal(t, m, next)
		})
	}

	m = mustApply(t, m, ResetScoreboard{}, envAt(0))
	assert.False(t, m.IsMatchEnded)
}

func TestPenaltyStats(t *testing.T) {
	m := newTestMatch()
	m = mustApply(t, m, AddPenaltyStat{Side: models.SideHome, Kind: PenaltyCornerAwarded}, envAt(0))
	m = mustApply(t, m, AddPenaltyStat{Side: models.SideHome, Kind: PenaltyStrokeAwarded}, envAt(0))
	assert.Equal(t, 1, m.HomeTeam.PenaltyCornersAwarded)
	assert.Equal(t, 1, m.HomeTeam.PenaltyStrokesAwarded)
	assert.Equal(t, 0, m.HomeTeam.Score)

	m = mustApply(t, m, SubtractPenaltyStat{Side: models.SideHome, Kind: PenaltyCornerAwarded}, envAt(0))
	assert.Equal(t, 0, m.HomeTeam.PenaltyCornersAwarded)

	_, ok := Apply(m, SubtractPenaltyStat{Side: models.SideHome, Kind: PenaltyCornerAwarded}, envAt(0))
	assert.False(t, ok)
}

func TestConvertedMayExceedAwarded(t *testing.T) {
	m := newTestMatch()
	m = mustApply(t, m, AddScore{Side: models.SideAway, Kind: ScorePSGoal}, envAt(0))
	assert.Equal(t, 1, m.AwayTeam.PenaltyStrokesConverted)
	assert.Equal(t, 0, m.AwayTeam.PenaltyStrokesAwarded)
}

func TestAddCardExpiry(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	i := 0
	env := Env{Now: t0, NewCardID: func() uuid.UUID { id := ids[i]; i++; return id }}

	m := newTestMatch()
	m = mustApply(t, m, AddCard{Side: models.SideAway, Type: models.CardYellow}, env)
	m = mustApply(t, m, AddCard{Side: models.SideAway, Type: models.CardGreen}, env)
	m = mustApply(t, m, AddCard{Side: models.SideAway, Type: models.CardRed}, env)

	require.Len(t, m.AwayTeam.Cards, 3)
	yellow, green, red := m.AwayTeam.Cards[0], m.AwayTeam.Cards[1], m.AwayTeam.Cards[2]

	assert.Equal(t, ids[0].String(), yellow.ID)
	require.NotNil(t, yellow.ExpiresAt)
	assert.True(t, yellow.ExpiresAt.Equal(t0.Add(300*time.Second)))

	require.NotNil(t, green.ExpiresAt)
	assert.True(t, green.ExpiresAt.Equal(t0.Add(120*time.Second)))

	assert.Nil(t, red.ExpiresAt)
	assert.Empty(t, m.HomeTeam.Cards)
}

func TestAddThenRemoveCardIsInverse(t *testing.T) {
	m := newTestMatch()
	m = mustApply(t, m, AddCard{Side: models.SideHome, Type: models.CardGreen}, envAt(0))
	m = mustApply(t, m, AddCard{Side: models.SideHome, Type: models.CardYellow}, envAt(time.Second))

	before := m
	for _, ct := range []models.CardType{models.CardGreen, models.CardYellow, models.CardRed} {
		added := mustApply(t, before, AddCard{Side: models.SideHome, Type: ct}, envAt(time.Minute))
		removed := mustApply(t, added, RemoveCard{Side: models.SideHome, Type: ct}, envAt(2*time.Minute))
		assert.True(t, before.HomeTeam.Equal(removed.HomeTeam), "card type %s", ct)
	}
}

func TestRemoveCardTakesMostRecentOfType(t *testing.T) {
	m := newTestMatch()
	m = mustApply(t, m, AddCard{Side: models.SideHome, Type: models.CardGreen}, envAt(0))
	m = mustApply(t, m, AddCard{Side: models.SideHome, Type: models.CardYellow}, envAt(0))
	m = mustApply(t, m, AddCard{Side: models.SideHome, Type: models.CardGreen}, envAt(10*time.Second))
	first := m.HomeTeam.Cards[0].ID

	m = mustApply(t, m, RemoveCard{Side: models.SideHome, Type: models.CardGreen}, envAt(0))
	require.Len(t, m.HomeTeam.Cards, 2)
	assert.Equal(t, first, m.HomeTeam.Cards[0].ID)
	assert.Equal(t, models.CardYellow, m.HomeTeam.Cards[1].Type)

	_, ok := Apply(m, RemoveCard{Side: models.SideHome, Type: models.CardRed}, envAt(0))
	assert.False(t, ok)
}

func TestResetKeepsBrandingAndFormat(t *testing.T) {
	m := newTestMatch()
	abbr, color, logo := "HAW", "#123456", "https://cdn.example/logos/a.png"
	m = mustApply(t, m, UpdateTeamBranding{Side: models.SideHome, NameAbbr: &abbr, PrimaryColor: &color, LogoURL: &logo}, envAt(0))
	dur := 900
	m = mustApply(t, m, UpdateFormat{DurationSec: &dur}, envAt(0))
	visible := true
	m = mustApply(t, m, UpdateDisplayFlags{OverlayStatsVisible: &visible}, envAt(0))
	m = mustApply(t, m, StartPeriod{}, envAt(0))
	m = mustApply(t, m, AddScore{Side: models.SideHome, Kind: ScoreFieldGoal}, envAt(0))
	m = mustApply(t, m, AddCard{Side: models.SideAway, Type: models.CardRed}, envAt(0))
	m = mustApply(t, m, EndMatch{}, envAt(time.Minute))

	r := mustApply(t, m, ResetScoreboard{}, envAt(2*time.Minute))

	assert.Equal(t, "HAW", r.HomeTeam.NameAbbr)
	assert.Equal(t, "#123456", r.HomeTeam.PrimaryColor)
	assert.Equal(t, logo, r.HomeTeam.LogoURL)
	assert.Equal(t, 900, r.GameFormat.DurationSec)
	assert.Equal(t, 900, r.TimerRemainingSec)
	assert.Equal(t, 0, r.CurrentPeriod)
	assert.Equal(t, 0, r.HomeTeam.Score)
	assert.Equal(t, 0, r.HomeTeam.FieldGoals)
	assert.Empty(t, r.AwayTeam.Cards)
	assert.False(t, r.IsTimerRunning)
	assert.Nil(t, r.TimerStartedAt)
	assert.False(t, r.IsMatchEnded)
	assert.False(t, r.OverlayStatsVisible)
}

func TestUpdateFormatResetsTimer(t *testing.T) {
	m := newTestMatch()
	m = mustApply(t, m, StartPeriod{}, envAt(0))
	m = mustApply(t, m, StopPeriod{}, envAt(100*time.Second))
	require.Equal(t, 500, m.TimerRemainingSec)

	dur := 420
	m = mustApply(t, m, UpdateFormat{DurationSec: &dur}, envAt(0))
	assert.Equal(t, 420, m.TimerRemainingSec)
	assert.False(t, m.IsTimerRunning)

	same := 420
	_, ok := Apply(m, UpdateFormat{DurationSec: &same}, envAt(0))
	assert.False(t, ok)

	bad := 0
	_, ok = Apply(m, UpdateFormat{DurationSec: &bad}, envAt(0))
	assert.False(t, ok)
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	m := newTestMatch()
	m = mustApply(t, m, AddCard{Side: models.SideHome, Type: models.CardGreen}, envAt(0))
	snapshot := m.Clone()

	_ = mustApply(t, m, RemoveCard{Side: models.SideHome, Type: models.CardGreen}, envAt(0))
	_ = mustApply(t, m, AddScore{Side: models.SideHome, Kind: ScoreFieldGoal}, envAt(0))

	assert.Equal(t, snapshot, m)
}

func TestDisplayCommands(t *testing.T) {
	m := newTestMatch()
	light := models.ThemeLight
	league := "https://cdn.example/league.png"
	m = mustApply(t, m, UpdateDisplayFlags{ScoreboardTheme: &light, LeagueLogoURL: &league}, envAt(0))
	assert.Equal(t, models.ThemeLight, m.ScoreboardTheme)
	assert.Equal(t, league, m.LeagueLogoURL)

	m = mustApply(t, m, UpdateDescription{Description: "Semi final, pitch 2"}, envAt(0))
	assert.Equal(t, "Semi final, pitch 2", m.Description)

	m = mustApply(t, m, RenameMatch{Name: "Semi Final"}, envAt(0))
	assert.Equal(t, "Semi Final", m.Name)

	_, ok := Apply(m, RenameMatch{Name: ""}, envAt(0))
	assert.False(t, ok)
}
