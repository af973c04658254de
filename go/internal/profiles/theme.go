package profiles

import (
	"context"
	"sync"

	"github.com/mcdev12/matchboard/go/internal/models"
	"github.com/rs/zerolog/log"
)

// ProfileLoader is the read side of App.
type ProfileLoader interface {
	GetProfile(ctx context.Context, ownerID string) (*models.Profile, error)
}

// ThemeState is the app theme currently in effect for one operator
// session. It starts dark, is loaded once from the profile and then
// follows every change the session makes.
type ThemeState struct {
	loader  ProfileLoader
	ownerID string

	mu       sync.RWMutex
	theme    models.Theme
	onChange []func(models.Theme)
}

func NewThemeState(loader ProfileLoader, ownerID string) *ThemeState {
	return &ThemeState{
		loader:  loader,
		ownerID: ownerID,
		theme:   models.ThemeDark,
	}
}

// Init loads the stored preference. A failed load keeps the dark default.
func (s *ThemeState) Init(ctx context.Context) models.Theme {
	p, err := s.loader.GetProfile(ctx, s.ownerID)
	if err != nil {
		log.Warn().Err(err).Str("owner_id", s.ownerID).Msg("could not load profile, using dark theme")
		return s.Current()
	}
	s.Apply(p.AppTheme)
	return s.Current()
}

// Apply switches the theme and notifies listeners when it changed.
func (s *ThemeState) Apply(theme models.Theme) {
	if !theme.Valid() {
		return
	}
	s.mu.Lock()
	if s.theme == theme {
		s.mu.Unlock()
		return
	}
	s.theme = theme
	listeners := append(([]func(models.Theme))(nil), s.onChange...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(theme)
	}
}

// OnChange registers fn to run after every theme change.
func (s *ThemeState) OnChange(fn func(models.Theme)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

func (s *ThemeState) Current() models.Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}
