package match

import (
	"github.com/google/uuid"
	"github.com/mcdev12/matchboard/go/internal/clock"
	"github.com/mcdev12/matchboard/go/internal/models"
)

// Apply computes the match that results from cmd at env.Now. It is total:
// when a guard fails the input is returned unchanged with ok == false.
// The input match is never mutated.
func Apply(current models.Match, cmd Command, env Env) (models.Match, bool) {
	if cmd == nil {
		return current, false
	}
	if env.NewCardID == nil {
		env.NewCardID = uuid.New
	}
	next := current.Clone()
	if !cmd.apply(&next, env) {
		return current, false
	}
	return next, true
}

func stopClock(m *models.Match) {
	m.IsTimerRunning = false
	m.TimerStartedAt = nil
}

func (StartPeriod) apply(m *models.Match, env Env) bool {
	// a running clock already carries its start; restarting would drop the
	// elapsed seconds
	if m.IsMatchEnded || m.IsTimerRunning {
		return false
	}
	if m.CurrentPeriod < 1 {
		m.CurrentPeriod = 1
	}
	now := env.Now
	m.IsTimerRunning = true
	m.TimerStartedAt = &now
	m.IsMatchEnded = false
	return true
}

func (StopPeriod) apply(m *models.Match, env Env) bool {
	if !m.IsTimerRunning {
		return false
	}
	m.TimerRemainingSec = clock.DisplayedRemaining(m.TimerRemainingSec, true, m.TimerStartedAt, env.Now)
	stopClock(m)
	return true
}

func (AdvancePeriod) apply(m *models.Match, _ Env) bool {
	next := m.CurrentPeriod + 1
	if next > m.GameFormat.MaxPeriods() {
		m.IsMatchEnded = true
		stopClock(m)
		return true
	}
	m.CurrentPeriod = next
	m.TimerRemainingSec = m.GameFormat.DurationSec
	stopClock(m)
	return true
}

func (EndMatch) apply(m *models.Match, _ Env) bool {
	m.IsMatchEnded = true
	stopClock(m)
	return true
}

func (ResetScoreboard) apply(m *models.Match, _ Env) bool {
	for _, side := range []models.Side{models.SideHome, models.SideAway} {
		t := m.Team(side)
		t.Score = 0
		t.FieldGoals = 0
		t.PenaltyCornersAwarded = 0
		t.PenaltyCornersConverted = 0
		t.PenaltyStrokesAwarded = 0
		t.PenaltyStrokesConverted = 0
		t.Cards = []models.Card{}
	}
	m.CurrentPeriod = 0
	m.TimerRemainingSec = m.GameFormat.DurationSec
	stopClock(m)
	m.IsMatchEnded = false
	m.OverlayStatsVisible = false
	return true
}

func scoreCounter(t *models.Team, kind ScoreKind) *int {
	switch kind {
	case ScoreFieldGoal:
		return &t.FieldGoals
	case ScorePCGoal:
		return &t.PenaltyCornersConverted
	case ScorePSGoal:
		return &t.PenaltyStrokesConverted
	}
	return nil
}

func penaltyCounter(t *models.Team, kind PenaltyKind) *int {
	switch kind {
	case PenaltyCornerAwarded:
		return &t.PenaltyCornersAwarded
	case PenaltyStrokeAwarded:
		return &t.PenaltyStrokesAwarded
	}
	return nil
}

func (c AddScore) apply(m *models.Match, _ Env) bool {
	if m.IsMatchEnded || !c.Side.Valid() {
		return false
	}
	t := m.Team(c.Side)
	counter := scoreCounter(t, c.Kind)
	if counter == nil {
		return false
	}
	*counter++
	t.Score++
	return true
}

func (c SubtractScore) apply(m *models.Match, _ Env) bool {
	if m.IsMatchEnded || !c.Side.Valid() {
		return false
	}
	t := m.Team(c.Side)
	counter := scoreCounter(t, c.Kind)
	if counter == nil || *counter <= 0 || t.Score <= 0 {
		return false
	}
	*counter--
	t.Score--
	return true
}

func (c AddPenaltyStat) apply(m *models.Match, _ Env) bool {
	if m.IsMatchEnded || !c.Side.Valid() {
		return false
	}
	counter := penaltyCounter(m.Team(c.Side), c.Kind)
	if counter == nil {
		return false
	}
	*counter++
	return true
}

func (c SubtractPenaltyStat) apply(m *models.Match, _ Env) bool {
	if m.IsMatchEnded || !c.Side.Valid() {
		return false
	}
	counter := penaltyCounter(m.Team(c.Side), c.Kind)
	if counter == nil || *counter <= 0 {
		return false
	}
	*counter--
	return true
}

func (c AddCard) apply(m *models.Match, env Env) bool {
	if m.IsMatchEnded || !c.Side.Valid() || !c.Type.Valid() {
		return false
	}
	card := models.Card{Type: c.Type, ID: env.NewCardID().String()}
	if d, ok := c.Type.Duration(); ok {
		exp := env.Now.Add(d)
		card.ExpiresAt = &exp
	}
	t := m.Team(c.Side)
	t.Cards = append(t.Cards, card)
	return true
}

func (c RemoveCard) apply(m *models.Match, _ Env) bool {
	if m.IsMatchEnded || !c.Side.Valid() {
		return false
	}
	t := m.Team(c.Side)
	for i := len(t.Cards) - 1; i >= 0; i-- {
		if t.Cards[i].Type == c.Type {
			t.Cards = append(t.Cards[:i], t.Cards[i+1:]...)
			return true
		}
	}
	return false
}

func (c UpdateFormat) apply(m *models.Match, _ Env) bool {
	next := m.GameFormat
	if c.Type != nil {
		if !c.Type.Valid() {
			return false
		}
		next.Type = *c.Type
	}
	if c.DurationSec != nil {
		if *c.DurationSec <= 0 {
			return false
		}
		next.DurationSec = *c.DurationSec
	}
	if next == m.GameFormat {
		return false
	}
	m.GameFormat = next
	m.TimerRemainingSec = next.DurationSec
	return true
}

func (c UpdateTeamBranding) apply(m *models.Match, _ Env) bool {
	if !c.Side.Valid() {
		return false
	}
	t := m.Team(c.Side)
	changed := false
	set := func(dst *string, v *string) {
		if v != nil && *dst != *v {
			*dst = *v
			changed = true
		}
	}
	set(&t.NameAbbr, c.NameAbbr)
	set(&t.NameFull, c.NameFull)
	set(&t.LogoURL, c.LogoURL)
	set(&t.PrimaryColor, c.PrimaryColor)
	set(&t.SecondaryColor, c.SecondaryColor)
	set(&t.FontColor, c.FontColor)
	return changed
}

func (c UpdateDisplayFlags) apply(m *models.Match, _ Env) bool {
	changed := false
	if c.OverlayStatsVisible != nil && m.OverlayStatsVisible != *c.OverlayStatsVisible {
		m.OverlayStatsVisible = *c.OverlayStatsVisible
		changed = true
	}
	if c.ScoreboardTheme != nil {
		if !c.ScoreboardTheme.Valid() {
			return false
		}
		if m.ScoreboardTheme != *c.ScoreboardTheme {
			m.ScoreboardTheme = *c.ScoreboardTheme
			changed = true
		}
	}
	if c.LeagueLogoURL != nil && m.LeagueLogoURL != *c.LeagueLogoURL {
		m.LeagueLogoURL = *c.LeagueLogoURL
		changed = true
	}
	if c.ChannelLogoURL != nil && m.ChannelLogoURL != *c.ChannelLogoURL {
		m.ChannelLogoURL = *c.ChannelLogoURL
		changed = true
	}
	return changed
}

func (c UpdateDescription) apply(m *models.Match, _ Env) bool {
	if m.Description == c.Description {
		return false
	}
	m.Description = c.Description
	return true
}

func (c RenameMatch) apply(m *models.Match, _ Env) bool {
	if c.Name == "" || m.Name == c.Name {
		return false
	}
	m.Name = c.Name
	return true
}
