package match

import (
	"github.com/mcdev12/matchboard/go/internal/models"
)

// ServiceName is the fully-qualified connect service name.
const ServiceName = "matchboard.match.v1.MatchService"

// Procedure returns the connect procedure path for method.
func Procedure(method string) string {
	return "/" + ServiceName + "/" + method
}

type CreateMatchRequest struct {
	Name string `json:"name" validate:"max=120"`
}

type MatchRequest struct {
	MatchID string `json:"match_id" validate:"required,uuid"`
}

type MatchResponse struct {
	Match models.Match `json:"match"`
}

type ListMatchesRequest struct{}

type ListMatchesResponse struct {
	Matches []models.Match `json:"matches"`
}

type DeleteMatchResponse struct{}

// CommandRequest targets one match with a single command.
type CommandRequest[C Command] struct {
	MatchID string `json:"match_id" validate:"required,uuid"`
	Command C      `json:"command"`
}

type CommandResponse struct {
	Match   models.Match `json:"match"`
	Applied bool         `json:"applied"`
}
