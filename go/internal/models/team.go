package models

import (
	"time"
)

// Side identifies one of the two teams of a match.
type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
)

func (s Side) Valid() bool {
	return s == SideHome || s == SideAway
}

// CardType is the colour of a disciplinary card.
type CardType string

const (
	CardGreen  CardType = "green"
	CardYellow CardType = "yellow"
	CardRed    CardType = "red"
)

func (t CardType) Valid() bool {
	return t == CardGreen || t == CardYellow || t == CardRed
}

// Duration returns how long a card of this type stays active. Red cards
// never expire and report false.
func (t CardType) Duration() (time.Duration, bool) {
	switch t {
	case CardGreen:
		return 120 * time.Second, true
	case CardYellow:
		return 300 * time.Second, true
	default:
		return 0, false
	}
}

// Card is a card shown to a team. ExpiresAt is fixed at issuance.
type Card struct {
	Type      CardType   `json:"type"`
	ID        string     `json:"id"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Team holds branding and the stat block of one side of a match.
type Team struct {
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
	Cards                   []Card `json:"cards"`
}

// DefaultTeam returns the branding a new match starts with.
func DefaultTeam(side Side) Team {
	if side == SideAway {
		return Team{
			NameAbbr:       "AWAY",
			NameFull:       "Away Team",
			PrimaryColor:   "#dc2626",
			SecondaryColor: "#7f1d1d",
			FontColor:      "#ffffff",
			Cards:          []Card{},
		}
	}
	return Team{
		NameAbbr:       "HOME",
		NameFull:       "Home Team",
		PrimaryColor:   "#1a56db",
		SecondaryColor: "#1e3a5f",
		FontColor:      "#ffffff",
		Cards:          []Card{},
	}
}

// GoalTotal is the sum the Score field must always equal.
func (t Team) GoalTotal() int {
	return t.FieldGoals + t.PenaltyCornersConverted + t.PenaltyStrokesConverted
}

// Clone deep-copies the team including its cards.
func (t Team) Clone() Team {
	out := t
	out.Cards = make([]Card, len(t.Cards))
	for i, c := range t.Cards {
		out.Cards[i] = c
		if c.ExpiresAt != nil {
			e := *c.ExpiresAt
			out.Cards[i].ExpiresAt = &e
		}
	}
	return out
}

// Equal compares two teams field by field.
func (t Team) Equal(o Team) bool {
	if t.NameAbbr != o.NameAbbr || t.NameFull != o.NameFull || t.LogoURL != o.LogoURL ||
		t.PrimaryColor != o.PrimaryColor || t.SecondaryColor != o.SecondaryColor || t.FontColor != o.FontColor {
		return false
	}
	if t.Score != o.Score || t.FieldGoals != o.FieldGoals ||
		t.PenaltyCornersAwarded != o.PenaltyCornersAwarded || t.PenaltyCornersConverted != o.PenaltyCornersConverted ||
		t.PenaltyStrokesAwarded != o.PenaltyStrokesAwarded || t.PenaltyStrokesConverted != o.PenaltyStrokesConverted {
		return false
	}
	if len(t.Cards) != len(o.Cards) {
		return false
	}
	for i := range t.Cards {
		a, b := t.Cards[i], o.Cards[i]
		if a.Type != b.Type || a.ID != b.ID || !timePtrEqual(a.ExpiresAt, b.ExpiresAt) {
			return false
		}
	}
	return true
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
