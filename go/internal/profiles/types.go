package profiles

import "github.com/mcdev12/matchboard/go/internal/models"

// SetThemeRequest represents the data needed to set the app theme.
type SetThemeRequest struct {
	Theme models.Theme `json:"theme" validate:"required,oneof=dark light"`
}
