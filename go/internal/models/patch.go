package models

import "time"

// MatchPatch is a partial update of a Match. Nil fields are left untouched.
// TimerStartedAt cannot express "set to null" through a nil pointer, so
// ClearTimerStartedAt carries that case.
type MatchPatch struct {
	Name                *string
	Description         *string
	HomeTeam            *Team
	AwayTeam            *Team
	GameFormat          *GameFormat
	CurrentPeriod       *int
	TimerRemainingSec   *int
	IsTimerRunning      *bool
	TimerStartedAt      *time.Time
	ClearTimerStartedAt bool
	IsMatchEnded        *bool
	OverlayStatsVisible *bool
	ScoreboardTheme     *Theme
	LeagueLogoURL       *string
	ChannelLogoURL      *string
}

// IsEmpty reports whether the patch changes nothing.
func (p MatchPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.HomeTeam == nil && p.AwayTeam == nil &&
		p.GameFormat == nil && p.CurrentPeriod == nil && p.TimerRemainingSec == nil &&
		p.IsTimerRunning == nil && p.TimerStartedAt == nil && !p.ClearTimerStartedAt &&
		p.IsMatchEnded == nil && p.OverlayStatsVisible == nil && p.ScoreboardTheme == nil &&
		p.LeagueLogoURL == nil && p.ChannelLogoURL == nil
}

// Fields lists the column names touched by the patch.
func (p MatchPatch) Fields() []string {
	var out []string
	add := func(set bool, name string) {
		if set {
			out = append(out, name)
		}
	}
	add(p.Name != nil, "name")
	add(p.Description != nil, "description")
	add(p.HomeTeam != nil, "home_team")
	add(p.AwayTeam != nil, "away_team")
	add(p.GameFormat != nil, "game_format")
	add(p.CurrentPeriod != nil, "current_period")
	add(p.TimerRemainingSec != nil, "timer_remaining_sec")
	add(p.IsTimerRunning != nil, "is_timer_running")
	add(p.TimerStartedAt != nil || p.ClearTimerStartedAt, "timer_started_at")
	add(p.IsMatchEnded != nil, "is_match_ended")
	add(p.OverlayStatsVisible != nil, "overlay_stats_visible")
	add(p.ScoreboardTheme != nil, "scoreboard_theme")
	add(p.LeagueLogoURL != nil, "league_logo_url")
	add(p.ChannelLogoURL != nil, "channel_logo_url")
	return out
}

// ApplyTo writes the set fields of p onto m. Revision and timestamps are
// owned by the store and are not touched here.
func (p MatchPatch) ApplyTo(m *Match) {
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Description != nil {
		m.Description = *p.Description
	}
	if p.HomeTeam != nil {
		m.HomeTeam = p.HomeTeam.Clone()
	}
	if p.AwayTeam != nil {
		m.AwayTeam = p.AwayTeam.Clone()
	}
	if p.GameFormat != nil {
		m.GameFormat = *p.GameFormat
	}
	if p.CurrentPeriod != nil {
		m.CurrentPeriod = *p.CurrentPeriod
	}
	if p.TimerRemainingSec != nil {
		m.TimerRemainingSec = *p.TimerRemainingSec
	}
	if p.IsTimerRunning != nil {
		m.IsTimerRunning = *p.IsTimerRunning
	}
	if p.ClearTimerStartedAt {
		m.TimerStartedAt = nil
	} else if p.TimerStartedAt != nil {
		t := *p.TimerStartedAt
		m.TimerStartedAt = &t
	}
	if p.IsMatchEnded != nil {
		m.IsMatchEnded = *p.IsMatchEnded
	}
	if p.OverlayStatsVisible != nil {
		m.OverlayStatsVisible = *p.OverlayStatsVisible
	}
	if p.ScoreboardTheme != nil {
		m.ScoreboardTheme = *p.ScoreboardTheme
	}
	if p.LeagueLogoURL != nil {
		m.LeagueLogoURL = *p.LeagueLogoURL
	}
	if p.ChannelLogoURL != nil {
		m.ChannelLogoURL = *p.ChannelLogoURL
	}
}

// Diff returns the patch that turns prev into next.
func Diff(prev, next Match) MatchPatch {
	var p MatchPatch
	if prev.Name != next.Name {
		p.Name = ptr(next.Name)
	}
	if prev.Description != next.Description {
		p.Description = ptr(next.Description)
	}
	if !prev.HomeTeam.Equal(next.HomeTeam) {
		t := next.HomeTeam.Clone()
		p.HomeTeam = &t
	}
	if !prev.AwayTeam.Equal(next.AwayTeam) {
		t := next.AwayTeam.Clone()
		p.AwayTeam = &t
	}
	if prev.GameFormat != next.GameFormat {
		p.GameFormat = ptr(next.GameFormat)
	}
	if prev.CurrentPeriod != next.CurrentPeriod {
		p.CurrentPeriod = ptr(next.CurrentPeriod)
	}
	if prev.TimerRemainingSec != next.TimerRemainingSec {
		p.TimerRemainingSec = ptr(next.TimerRemainingSec)
	}
	if prev.IsTimerRunning != next.IsTimerRunning {
		p.IsTimerRunning = ptr(next.IsTimerRunning)
	}
	if !timePtrEqual(prev.TimerStartedAt, next.TimerStartedAt) {
		if next.TimerStartedAt == nil {
			p.ClearTimerStartedAt = true
		} else {
			p.TimerStartedAt = ptr(*next.TimerStartedAt)
		}
	}
	if prev.IsMatchEnded != next.IsMatchEnded {
		p.IsMatchEnded = ptr(next.IsMatchEnded)
	}
	if prev.OverlayStatsVisible != next.OverlayStatsVisible {
		p.OverlayStatsVisible = ptr(next.OverlayStatsVisible)
	}
	if prev.ScoreboardTheme != next.ScoreboardTheme {
		p.ScoreboardTheme = ptr(next.ScoreboardTheme)
	}
	if prev.LeagueLogoURL != next.LeagueLogoURL {
		p.LeagueLogoURL = ptr(next.LeagueLogoURL)
	}
	if prev.ChannelLogoURL != next.ChannelLogoURL {
		p.ChannelLogoURL = ptr(next.ChannelLogoURL)
	}
	return p
}

func ptr[T any](v T) *T {
	return &v
}
