// Package profiles stores the operator's application preferences. The
// app theme here is independent of a match's scoreboard theme.
package profiles

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/mcdev12/matchboard/go/internal/models"
	"github.com/rs/zerolog/log"
)

// ProfilesRepository defines what the app layer needs from the repository.
type ProfilesRepository interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	UpsertTheme(ctx context.Context, id string, theme models.Theme) (*models.Profile, error)
}

// App handles profile business logic.
type App struct {
	repo ProfilesRepository
}

func NewApp(repo ProfilesRepository) *App {
	return &App{repo: repo}
}

// GetProfile returns the owner's profile. An owner that never saved a
// preference gets a dark profile that is not persisted.
func (a *App) GetProfile(ctx context.Context, ownerID string) (*models.Profile, error) {
	p, err := a.repo.GetProfile(ctx, ownerID)
	if errors.Is(err, ErrNotFound) {
		return &models.Profile{ID: ownerID, AppTheme: models.ThemeDark}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get profile")
	}
	return p, nil
}

// SetTheme persists theme for the owner.
func (a *App) SetTheme(ctx context.Context, ownerID string, theme models.Theme) (*models.Profile, error) {
	if !theme.Valid() {
		return nil, errors.Newf("invalid theme %q", theme)
	}
	p, err := a.repo.UpsertTheme(ctx, ownerID, theme)
	if err != nil {
		return nil, errors.Wrap(err, "failed to set theme")
	}
	log.Info().Str("owner_id", ownerID).Str("theme", string(theme)).Msg("app theme updated")
	return p, nil
}

// ToggleTheme flips between dark and light.
func (a *App) ToggleTheme(ctx context.Context, ownerID string) (*models.Profile, error) {
	p, err := a.GetProfile(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	next := models.ThemeLight
	if p.AppTheme == models.ThemeLight {
		next = models.ThemeDark
	}
	return a.SetTheme(ctx, ownerID, next)
}
