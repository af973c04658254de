package feed

import (
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/mcdev12/matchboard/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubject(t *testing.T) {
	cfg := DefaultJetStreamConfig()
	id := uuid.MustParse("7b0b5a4e-8f1e-4d51-9a43-0e6b2c7b1a10")
	got := cfg.Subject(Change{Type: EventUpdate, MatchID: id})
	assert.Equal(t, "match.changes.update.7b0b5a4e-8f1e-4d51-9a43-0e6b2c7b1a10", got)
}

func TestDecodeChangeRoundTrip(t *testing.T) {
	m := models.NewMatch(uuid.New(), "owner", "Final", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	m.Revision = 7
	in := Change{ID: uuid.New(), Type: EventUpdate, MatchID: m.ID, OwnerID: m.OwnerID, Record: &m}

	data, err := sonic.Marshal(in)
	require.NoError(t, err)

	out, err := DecodeChange(data)
	require.NoError(t, err)
	assert.Equal(t, in.ID, out.ID)
	require.NotNil(t, out.Record)
	assert.Equal(t, int64(7), out.Revision())
	assert.Equal(t, "HOME", out.Record.HomeTeam.NameAbbr)
}

func TestDecodeChangeRejectsBadInput(t *testing.T) {
	_, err := DecodeChange([]byte(`{"type":"TRUNCATE","match_id":"7b0b5a4e-8f1e-4d51-9a43-0e6b2c7b1a10"}`))
	assert.Error(t, err)

	_, err = DecodeChange([]byte(`{"type":"UPDATE","match_id":"7b0b5a4e-8f1e-4d51-9a43-0e6b2c7b1a10"}`))
	assert.Error(t, err)

	_, err = DecodeChange([]byte(`not json`))
	assert.Error(t, err)

	c, err := DecodeChange([]byte(`{"type":"DELETE","match_id":"7b0b5a4e-8f1e-4d51-9a43-0e6b2c7b1a10"}`))
	require.NoError(t, err)
	assert.Equal(t, EventDelete, c.Type)
}
