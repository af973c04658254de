package match

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/matchboard/go/internal/models"
	"github.com/mcdev12/matchboard/go/internal/store"
	"github.com/rs/zerolog/log"
)

// MatchStore defines what the app layer needs from the store.
type MatchStore interface {
	Create(ctx context.Context, m models.Match) (models.Match, error)
	Get(ctx context.Context, id uuid.UUID) (models.Match, error)
	List(ctx context.Context, ownerID string) ([]models.Match, error)
	Update(ctx context.Context, id uuid.UUID, patch models.MatchPatch) (models.Match, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Result is the outcome of one command. Applied is false when a guard
// refused the command; Match then holds the unchanged current record.
type Result struct {
	Match   models.Match `json:"match"`
	Applied bool         `json:"applied"`
}

// App runs operator commands against stored matches. The stored record
// only changes through the feed round trip; nothing is cached here.
type App struct {
	store     MatchStore
	clock     clockwork.Clock
	newCardID func() uuid.UUID
}

func NewApp(s MatchStore, clock clockwork.Clock) *App {
	return &App{
		store:     s,
		clock:     clock,
		newCardID: uuid.New,
	}
}

// Execute loads the match, applies cmd at the current time and writes only
// the fields that changed. Store failures are returned as-is and never
// retried.
func (a *App) Execute(ctx context.Context, ownerID string, matchID uuid.UUID, cmd Command) (Result, error) {
	current, err := a.GetMatch(ctx, ownerID, matchID)
	if err != nil {
		return Result{}, err
	}

	next, ok := Apply(current, cmd, Env{Now: a.clock.Now(), NewCardID: a.newCardID})
	if !ok {
		log.Debug().
			Str("match_id", matchID.String()).
			Str("command", cmd.CommandName()).
			Msg("command not applicable")
		return Result{Match: current}, nil
	}

	patch := models.Diff(current, next)
	if patch.IsEmpty() {
		return Result{Match: current}, nil
	}

	updated, err := a.store.Update(ctx, matchID, patch)
	if err != nil {
		return Result{}, errors.Wrapf(err, "%s on match %s", cmd.CommandName(), matchID)
	}

	log.Info().
		Str("match_id", matchID.String()).
		Str("command", cmd.CommandName()).
		Strs("fields", patch.Fields()).
		Int64("revision", updated.Revision).
		Msg("command applied")

	return Result{Match: updated, Applied: true}, nil
}

// CreateMatch stores a new match in its initial shape.
func (a *App) CreateMatch(ctx context.Context, ownerID, name string) (models.Match, error) {
	if ownerID == "" {
		return models.Match{}, errors.New("owner id is required")
	}
	m := models.NewMatch(uuid.New(), ownerID, name, a.clock.Now())

	created, err := a.store.Create(ctx, m)
	if err != nil {
		return models.Match{}, errors.Wrap(err, "create match")
	}

	log.Info().
		Str("match_id", created.ID.String()).
		Str("owner_id", ownerID).
		Msg("match created")
	return created, nil
}

// GetMatch returns the match if ownerID owns it. A match owned by someone
// else is reported as not found.
func (a *App) GetMatch(ctx context.Context, ownerID string, id uuid.UUID) (models.Match, error) {
	m, err := a.store.Get(ctx, id)
	if err != nil {
		return models.Match{}, errors.Wrapf(err, "get match %s", id)
	}
	if m.OwnerID != ownerID {
		return models.Match{}, errors.Wrapf(store.ErrNotFound, "get match %s", id)
	}
	return m, nil
}

// ListMatches returns the owner's matches, newest first.
func (a *App) ListMatches(ctx context.Context, ownerID string) ([]models.Match, error) {
	matches, err := a.store.List(ctx, ownerID)
	if err != nil {
		return nil, errors.Wrap(err, "list matches")
	}
	return matches, nil
}

// LatestMatch returns the owner's most recently created match.
func (a *App) LatestMatch(ctx context.Context, ownerID string) (models.Match, error) {
	matches, err := a.ListMatches(ctx, ownerID)
	if err != nil {
		return models.Match{}, err
	}
	if len(matches) == 0 {
		return models.Match{}, errors.Wrapf(store.ErrNotFound, "no matches for owner %s", ownerID)
	}
	return matches[0], nil
}

func (a *App) DeleteMatch(ctx context.Context, ownerID string, id uuid.UUID) error {
	if _, err := a.GetMatch(ctx, ownerID, id); err != nil {
		return err
	}
	if err := a.store.Delete(ctx, id); err != nil {
		return errors.Wrapf(err, "delete match %s", id)
	}
	log.Info().Str("match_id", id.String()).Msg("match deleted")
	return nil
}
