package main

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/matchboard/go/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestSummary(t *testing.T) {
	m := models.NewMatch(uuid.New(), "o", "Final", time.Unix(0, 0))
	m.CurrentPeriod = 2
	m.IsTimerRunning = true
	m.HomeTeam.Score = 3
	m.Revision = 7

	s := summary(m)
	assert.Contains(t, s, "HOME 3 - 0 AWAY")
	assert.Contains(t, s, "Q2")
	assert.Contains(t, s, "running")
	assert.Contains(t, s, "rev=7")

	m.IsMatchEnded = true
	assert.Contains(t, summary(m), "ended")
}

func TestCommandTableCoversEveryCommand(t *testing.T) {
	for name := range commands {
		assert.NotNil(t, commands[name], name)
	}
	assert.Len(t, commands, 16)
}
