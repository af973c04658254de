package match

import (
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/matchboard/go/internal/models"
)

// ScoreKind selects which goal counter a score command touches.
type ScoreKind string

const (
	ScoreFieldGoal ScoreKind = "field_goal"
	ScorePCGoal    ScoreKind = "pc_goal"
	ScorePSGoal    ScoreKind = "ps_goal"
)

// PenaltyKind selects an awarded-penalty counter.
type PenaltyKind string

const (
	PenaltyCornerAwarded PenaltyKind = "pc_awarded"
	PenaltyStrokeAwarded PenaltyKind = "ps_awarded"
)

// Env carries the inputs a transition may not compute itself.
type Env struct {
	Now       time.Time
	NewCardID func() uuid.UUID
}

// Command is an operator intent against a single match. Commands are
// applied with Apply and never mutate their input.
type Command interface {
	// CommandName is the stable identifier used in logs and RPC paths.
	CommandName() string
	apply(m *models.Match, env Env) bool
}

type StartPeriod struct{}

type StopPeriod struct{}

type AdvancePeriod struct{}

type EndMatch struct{}

// ResetScoreboard returns counters, cards, period and clock to their initial
// values. Branding, logos and format survive.
type ResetScoreboard struct{}

type AddScore struct {
	Side models.Side `json:"side" validate:"required,oneof=home away"`
	Kind ScoreKind   `json:"kind" validate:"required,oneof=field_goal pc_goal ps_goal"`
}

type SubtractScore struct {
	Side models.Side `json:"side" validate:"required,oneof=home away"`
	Kind ScoreKind   `json:"kind" validate:"required,oneof=field_goal pc_goal ps_goal"`
}

type AddPenaltyStat struct {
	Side models.Side `json:"side" validate:"required,oneof=home away"`
	Kind PenaltyKind `json:"kind" validate:"required,oneof=pc_awarded ps_awarded"`
}

type SubtractPenaltyStat struct {
	Side models.Side `json:"side" validate:"required,oneof=home away"`
	Kind PenaltyKind `json:"kind" validate:"required,oneof=pc_awarded ps_awarded"`
}

type AddCard struct {
	Side models.Side     `json:"side" validate:"required,oneof=home away"`
	Type models.CardType `json:"type" validate:"required,oneof=green yellow red"`
}

// RemoveCard drops the most recently issued card of Type.
type RemoveCard struct {
	Side models.Side     `json:"side" validate:"required,oneof=home away"`
	Type models.CardType `json:"type" validate:"required,oneof=green yellow red"`
}

// UpdateFormat changes period kind and/or duration. Any actual change resets
// the remaining time to the (new) duration without starting the clock.
type UpdateFormat struct {
	Type        *models.PeriodKind `json:"type,omitempty" validate:"omitempty,oneof=quarters halves"`
	DurationSec *int               `json:"duration_sec,omitempty" validate:"omitempty,gt=0"`
}

type UpdateTeamBranding struct {
	Side           models.Side `json:"side" validate:"required,oneof=home away"`
	NameAbbr       *string     `json:"name_abbr,omitempty" validate:"omitempty,max=8"`
	NameFull       *string     `json:"name_full,omitempty" validate:"omitempty,max=64"`
	LogoURL        *string     `json:"logo_url,omitempty"`
	PrimaryColor   *string     `json:"primary_color,omitempty" validate:"omitempty,hexcolor"`
	SecondaryColor *string     `json:"secondary_color,omitempty" validate:"omitempty,hexcolor"`
	FontColor      *string     `json:"font_color,omitempty" validate:"omitempty,hexcolor"`
}

type UpdateDisplayFlags struct {
	OverlayStatsVisible *bool         `json:"overlay_stats_visible,omitempty"`
	ScoreboardTheme     *models.Theme `json:"scoreboard_theme,omitempty" validate:"omitempty,oneof=dark light"`
	LeagueLogoURL       *string       `json:"league_logo_url,omitempty"`
	ChannelLogoURL      *string       `json:"channel_logo_url,omitempty"`
}

type UpdateDescription struct {
	Description string `json:"description" validate:"max=2000"`
}

type RenameMatch struct {
	Name string `json:"name" validate:"required,max=120"`
}

func (StartPeriod) CommandName() string         { return "StartPeriod" }
func (StopPeriod) CommandName() string          { return "StopPeriod" }
func (AdvancePeriod) CommandName() string       { return "AdvancePeriod" }
func (EndMatch) CommandName() string            { return "EndMatch" }
func (ResetScoreboard) CommandName() string     { return "ResetScoreboard" }
func (AddScore) CommandName() string            { return "AddScore" }
func (SubtractScore) CommandName() string       { return "SubtractScore" }
func (AddPenaltyStat) CommandName() string      { return "AddPenaltyStat" }
func (SubtractPenaltyStat) CommandName() string { return "SubtractPenaltyStat" }
func (AddCard) CommandName() string             { return "AddCard" }
func (RemoveCard) CommandName() string          { return "RemoveCard" }
func (UpdateFormat) CommandName() string        { return "UpdateFormat" }
func (UpdateTeamBranding) CommandName() string  { return "UpdateTeamBranding" }
func (UpdateDisplayFlags) CommandName() string  { return "UpdateDisplayFlags" }
func (UpdateDescription) CommandName() string   { return "UpdateDescription" }
func (RenameMatch) CommandName() string         { return "RenameMatch" }
