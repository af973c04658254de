package overlay

import (
	"time"

	"github.com/mcdev12/matchboard/go/internal/clock"
	"github.com/mcdev12/matchboard/go/internal/models"
)

// ActiveCards returns the cards still in force at now, in issue order.
// A card is active when it never expires or expires strictly after now.
// The input is not modified; expired cards stay on the stored record.
func ActiveCards(cards []models.Card, now time.Time) []models.Card {
	out := make([]models.Card, 0, len(cards))
	for _, c := range cards {
		if c.ExpiresAt == nil || c.ExpiresAt.After(now) {
			out = append(out, c)
		}
	}
	return out
}

// CardView is an active card as shown on the overlay.
type CardView struct {
	ID           string          `json:"id"`
	Type         models.CardType `json:"type"`
	Timed        bool            `json:"timed"`
	RemainingSec int             `json:"remaining_sec"`
}

func cardViews(cards []models.Card, now time.Time) []CardView {
	active := ActiveCards(cards, now)
	out := make([]CardView, len(active))
	for i, c := range active {
		out[i] = CardView{ID: c.ID, Type: c.Type}
		if c.ExpiresAt != nil {
			out[i].Timed = true
			out[i].RemainingSec = clock.CardRemaining(*c.ExpiresAt, now)
		}
	}
	return out
}
