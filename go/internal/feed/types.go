// Package feed carries committed match changes from the store to every
// subscriber: an in-process broker, a Postgres LISTEN/NOTIFY relay and a
// NATS JetStream transport between processes.
package feed

import (
	"context"
	"slices"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/mcdev12/matchboard/go/internal/models"
)

// EventType is the kind of committed write a Change describes.
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

func (e EventType) Valid() bool {
	return e == EventInsert || e == EventUpdate || e == EventDelete
}

var (
	// ErrLagged closes a subscription whose buffer overflowed. The
	// subscriber must resubscribe and refetch a snapshot.
	ErrLagged = errors.New("feed subscriber lagged behind")
	// ErrClosed is reported by subscriptions of a closed broker.
	ErrClosed = errors.New("feed closed")
)

// Change is one committed write. Record is the row after the write and is
// nil for deletes; Old is the row before it when known.
type Change struct {
	ID          uuid.UUID     `json:"id"`
	Seq         int64         `json:"seq"`
	Type        EventType     `json:"type"`
	MatchID     uuid.UUID     `json:"match_id"`
	OwnerID     string        `json:"owner_id"`
	Record      *models.Match `json:"record,omitempty"`
	Old         *models.Match `json:"old,omitempty"`
	CommittedAt time.Time     `json:"committed_at"`
}

// Revision returns the revision of the row the change leaves behind, or of
// the deleted row for deletes.
func (c Change) Revision() int64 {
	if c.Record != nil {
		return c.Record.Revision
	}
	if c.Old != nil {
		return c.Old.Revision
	}
	return 0
}

// Filter selects the changes a subscriber receives. Zero values match
// everything.
type Filter struct {
	MatchID uuid.UUID
	OwnerID string
	Events  []EventType
}

// ForMatch is the filter a single-match viewer subscribes with.
func ForMatch(id uuid.UUID) Filter {
	return Filter{MatchID: id}
}

// ForOwner selects every change to matches owned by ownerID.
func ForOwner(ownerID string) Filter {
	return Filter{OwnerID: ownerID}
}

func (f Filter) Matches(c Change) bool {
	if f.MatchID != uuid.Nil && f.MatchID != c.MatchID {
		return false
	}
	if f.OwnerID != "" && f.OwnerID != c.OwnerID {
		return false
	}
	if len(f.Events) > 0 && !slices.Contains(f.Events, c.Type) {
		return false
	}
	return true
}

// Publisher delivers a committed change to the next hop of the feed.
type Publisher interface {
	Publish(ctx context.Context, change Change) error
}

// Subscriber hands out subscriptions. *Broker implements it.
type Subscriber interface {
	Subscribe(filter Filter) *Subscription
}
