package models

import (
	"time"
)

// Profile holds the per-operator application preferences.
type Profile struct {
	ID        string    `json:"id"`
	AppTheme  Theme     `json:"app_theme"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
