package models

import (
	"time"

	"github.com/google/uuid"
)

// PeriodKind defines how a match is split into periods.
type PeriodKind string

const (
	PeriodKindQuarters PeriodKind = "quarters"
	PeriodKindHalves   PeriodKind = "halves"
)

// DefaultPeriodDurationSec is the period length of a freshly created match.
const DefaultPeriodDurationSec = 600

// Valid reports whether k is a known period kind.
func (k PeriodKind) Valid() bool {
	return k == PeriodKindQuarters || k == PeriodKindHalves
}

// MaxPeriods returns the number of periods in a match of this kind.
func (k PeriodKind) MaxPeriods() int {
	if k == PeriodKindHalves {
		return 2
	}
	return 4
}

// Prefix is the short label used on the scoreboard, e.g. Q3 or H1.
func (k PeriodKind) Prefix() string {
	if k == PeriodKindHalves {
		return "H"
	}
	return "Q"
}

// Theme is a dark/light display preference.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

func (t Theme) Valid() bool {
	return t == ThemeDark || t == ThemeLight
}

// GameFormat holds the period configuration of a match.
type GameFormat struct {
	Type        PeriodKind `json:"type"`
	DurationSec int        `json:"duration_sec"`
}

// MaxPeriods returns the period count for the format.
func (f GameFormat) MaxPeriods() int {
	return f.Type.MaxPeriods()
}

// Match is one scoreboard session. It is the aggregate root for both teams,
// the period clock and the overlay display flags.
type Match struct {
	ID                  uuid.UUID  `json:"id"`
	OwnerID             string     `json:"owner_id"`
	Name                string     `json:"name"`
	Description         string     `json:"description,omitempty"`
	HomeTeam            Team       `json:"home_team"`
	AwayTeam            Team       `json:"away_team"`
	GameFormat          GameFormat `json:"game_format"`
	CurrentPeriod       int        `json:"current_period"`
	TimerRemainingSec   int        `json:"timer_remaining_sec"`
	IsTimerRunning      bool       `json:"is_timer_running"`
	TimerStartedAt      *time.Time `json:"timer_started_at"`
	IsMatchEnded        bool       `json:"is_match_ended"`
	OverlayStatsVisible bool       `json:"overlay_stats_visible"`
	ScoreboardTheme     Theme      `json:"scoreboard_theme"`
	LeagueLogoURL       string     `json:"league_logo_url,omitempty"`
	ChannelLogoURL      string     `json:"channel_logo_url,omitempty"`
	Revision            int64      `json:"revision"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// NewMatch returns a match in its initial shape: default teams, period 0,
// a stopped clock showing the full period duration.
func NewMatch(id uuid.UUID, ownerID, name string, now time.Time) Match {
	if name == "" {
		name = "New Match"
	}
	return Match{
		ID:       id,
		OwnerID:  ownerID,
		Name:     name,
		HomeTeam: DefaultTeam(SideHome),
		AwayTeam: DefaultTeam(SideAway),
		GameFormat: GameFormat{
			Type:        PeriodKindQuarters,
			DurationSec: DefaultPeriodDurationSec,
		},
		TimerRemainingSec: DefaultPeriodDurationSec,
		ScoreboardTheme:   ThemeDark,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Team returns a pointer to the team on the given side.
func (m *Match) Team(side Side) *Team {
	if side == SideAway {
		return &m.AwayTeam
	}
	return &m.HomeTeam
}

// Clone returns a deep copy so transitions never share card slices or
// timestamps with the input.
func (m Match) Clone() Match {
	out := m
	out.HomeTeam = m.HomeTeam.Clone()
	out.AwayTeam = m.AwayTeam.Clone()
	if m.TimerStartedAt != nil {
		t := *m.TimerStartedAt
		out.TimerStartedAt = &t
	}
	return out
}
