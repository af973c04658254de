// Package overlay derives the read-only scoreboard view shown on broadcast
// overlays and keeps it current for each connected viewer.
package overlay

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/matchboard/go/internal/clock"
	"github.com/mcdev12/matchboard/go/internal/models"
	"github.com/mcdev12/matchboard/go/internal/replica"
)

// TeamStats is the branding and stat block of one team.
type TeamStats struct {
	NameAbbr                string `json:"name_abbr"`
	NameFull                string `json:"name_full"`
	LogoURL                 string `json:"logo_url"`
	PrimaryColor            string `json:"primary_color"`
	SecondaryColor          string `json:"secondary_color"`
	FontColor               string `json:"font_color"`
	Score                   int    `json:"score"`
	FieldGoals              int    `json:"field_goals"`
	PenaltyCornersAwarded   int    `json:"penalty_corners_awarded"`
	PenaltyCornersConverted int    `json:"penalty_corners_converted"`
	PenaltyStrokesAwarded   int    `json:"penalty_strokes_awarded"`
	PenaltyStrokesConverted int    `json:"penalty_strokes_converted"`
}

type TeamView struct {
	TeamStats
	Cards []CardView `json:"cards"`
}

// View is everything an overlay renders. Theme is the match's own
// scoreboard theme and is independent of any operator preference.
type View struct {
	MatchID        uuid.UUID    `json:"match_id"`
	Revision       int64        `json:"revision"`
	Home           TeamView     `json:"home"`
	Away           TeamView     `json:"away"`
	PeriodLabel    string       `json:"period_label"`
	Clock          string       `json:"clock"`
	ClockRunning   bool         `json:"clock_running"`
	Theme          models.Theme `json:"theme"`
	StatsVisible   bool         `json:"stats_visible"`
	LeagueLogoURL  string       `json:"league_logo_url,omitempty"`
	ChannelLogoURL string       `json:"channel_logo_url,omitempty"`
}

// Derive computes the overlay view of m at now.
func Derive(m models.Match, now time.Time) View {
	return derive(m, now, now)
}

// derive lets the clock and the card timers be evaluated at different
// instants, since viewers redraw them on separate cadences.
func derive(m models.Match, clockAt, cardsAt time.Time) View {
	remaining := clock.DisplayedRemaining(m.TimerRemainingSec, m.IsTimerRunning, m.TimerStartedAt, clockAt)
	return View{
		MatchID:        m.ID,
		Revision:       m.Revision,
		Home:           teamView(m.HomeTeam, cardsAt),
		Away:           teamView(m.AwayTeam, cardsAt),
		PeriodLabel:    PeriodLabel(m),
		Clock:          clock.FormatMMSS(remaining),
		ClockRunning:   m.IsTimerRunning,
		Theme:          m.ScoreboardTheme,
		StatsVisible:   m.OverlayStatsVisible,
		LeagueLogoURL:  m.LeagueLogoURL,
		ChannelLogoURL: m.ChannelLogoURL,
	}
}

// PeriodLabel is PRE before the first period, FINAL once ended and
// Q<n> or H<n> in between.
func PeriodLabel(m models.Match) string {
	switch {
	case m.IsMatchEnded:
		return "FINAL"
	case m.CurrentPeriod < 1:
		return "PRE"
	default:
		return fmt.Sprintf("%s%d", m.GameFormat.Type.Prefix(), m.CurrentPeriod)
	}
}

func teamView(t models.Team, now time.Time) TeamView {
	return TeamView{
		TeamStats: TeamStats{
			NameAbbr:                t.NameAbbr,
			NameFull:                t.NameFull,
			LogoURL:                 t.LogoURL,
			PrimaryColor:            t.PrimaryColor,
			SecondaryColor:          t.SecondaryColor,
			FontColor:               t.FontColor,
			Score:                   t.Score,
			FieldGoals:              t.FieldGoals,
			PenaltyCornersAwarded:   t.PenaltyCornersAwarded,
			PenaltyCornersConverted: t.PenaltyCornersConverted,
			PenaltyStrokesAwarded:   t.PenaltyStrokesAwarded,
			PenaltyStrokesConverted: t.PenaltyStrokesConverted,
		},
		Cards: cardViews(t.Cards, now),
	}
}

// Equal reports whether two views render identically. Revision is not
// rendered and is ignored.
func (v View) Equal(o View) bool {
	return v.MatchID == o.MatchID &&
		v.PeriodLabel == o.PeriodLabel &&
		v.Clock == o.Clock &&
		v.ClockRunning == o.ClockRunning &&
		v.Theme == o.Theme &&
		v.StatsVisible == o.StatsVisible &&
		v.LeagueLogoURL == o.LeagueLogoURL &&
		v.ChannelLogoURL == o.ChannelLogoURL &&
		v.Home.TeamStats == o.Home.TeamStats &&
		v.Away.TeamStats == o.Away.TeamStats &&
		slices.Equal(v.Home.Cards, o.Home.Cards) &&
		slices.Equal(v.Away.Cards, o.Away.Cards)
}

// Frame is one message pushed to an overlay viewer.
type Frame struct {
	Status replica.Status `json:"status"`
	View   *View          `json:"view,omitempty"`
}

func (f Frame) Equal(o Frame) bool {
	if f.Status != o.Status {
		return false
	}
	if f.View == nil || o.View == nil {
		return f.View == nil && o.View == nil
	}
	return f.View.Equal(*o.View)
}

// Render turns a replica snapshot into a frame.
func Render(s replica.Snapshot, clockAt, cardsAt time.Time) Frame {
	if s.Status != replica.StatusLive {
		return Frame{Status: s.Status}
	}
	v := derive(s.Match, clockAt, cardsAt)
	return Frame{Status: s.Status, View: &v}
}
