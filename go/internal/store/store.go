// Package store persists match records. Every committed write bumps the
// record revision and becomes visible on the change feed.
package store

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/mcdev12/matchboard/go/internal/models"
)

var (
	ErrNotFound         = errors.New("match not found")
	ErrStoreUnavailable = errors.New("match store unavailable")
)

// MatchStore is the document store contract the match App depends on.
// Update writes only the fields set on the patch; there is no version
// check, the last write wins.
type MatchStore interface {
	Create(ctx context.Context, m models.Match) (models.Match, error)
	Get(ctx context.Context, id uuid.UUID) (models.Match, error)
	// List returns the owner's matches, newest first.
	List(ctx context.Context, ownerID string) ([]models.Match, error)
	Update(ctx context.Context, id uuid.UUID, patch models.MatchPatch) (models.Match, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Unavailable marks err as a transient store failure.
func Unavailable(err error, msg string) error {
	return errors.Mark(errors.Wrap(err, msg), ErrStoreUnavailable)
}

// IsUnavailable reports whether err is a transient store failure.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
