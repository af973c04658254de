package gateway

import (
	"github.com/google/uuid"
	"github.com/mcdev12/matchboard/go/internal/feed"
	"github.com/mcdev12/matchboard/go/internal/models"
	"github.com/mcdev12/matchboard/go/internal/overlay"
)

// MessageType tags every frame written to a websocket.
type MessageType string

const (
	// MessageSnapshot carries the full record. Sent on connect and after
	// the gateway had to resync its feed.
	MessageSnapshot MessageType = "snapshot"
	// MessageChange carries one committed change.
	MessageChange MessageType = "change"
	// MessageNotFound is sent when the requested match does not exist.
	MessageNotFound MessageType = "not_found"
	// MessageOverlay carries a derived overlay frame.
	MessageOverlay MessageType = "overlay"
	// MessageError reports a rejected client message.
	MessageError MessageType = "error"
)

// Message is the envelope for the canonical record stream and overlay
// frames. Clients keep a record only if its revision is newer than the one
// they hold, so a snapshot and a change with the same revision are
// interchangeable.
type Message struct {
	Type     MessageType    `json:"type"`
	MatchID  uuid.UUID      `json:"match_id"`
	Event    feed.EventType `json:"event,omitempty"`
	Revision int64          `json:"revision,omitempty"`
	Match    *models.Match  `json:"match,omitempty"`
	Frame    *overlay.Frame `json:"frame,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// ClientMessageType tags messages read from a websocket.
type ClientMessageType string

const (
	// ClientObserve switches an overlay connection to another match.
	ClientObserve ClientMessageType = "observe"
)

type ClientMessage struct {
	Type    ClientMessageType `json:"type"`
	MatchID string            `json:"match_id"`
}

func changeMessage(c feed.Change) Message {
	msg := Message{
		Type:     MessageChange,
		MatchID:  c.MatchID,
		Event:    c.Type,
		Revision: c.Revision(),
	}
	if c.Record != nil {
		m := c.Record.Clone()
		msg.Match = &m
	}
	return msg
}

func snapshotMessage(m models.Match) Message {
	return Message{
		Type:     MessageSnapshot,
		MatchID:  m.ID,
		Revision: m.Revision,
		Match:    &m,
	}
}
