package store

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/matchboard/go/internal/feed"
	"github.com/mcdev12/matchboard/go/internal/models"
)

// MemoryStore keeps matches in process and publishes every committed write
// to a broker while still holding its lock, so the feed sees writes in
// commit order.
type MemoryStore struct {
	mu      sync.Mutex
	matches map[uuid.UUID]models.Match
	broker  *feed.Broker
	clock   clockwork.Clock
}

func NewMemoryStore(broker *feed.Broker, clock clockwork.Clock) *MemoryStore {
	return &MemoryStore{
		matches: make(map[uuid.UUID]models.Match),
		broker:  broker,
		clock:   clock,
	}
}

func (s *MemoryStore) Create(ctx context.Context, m models.Match) (models.Match, error) {
	if err := ctx.Err(); err != nil {
		return models.Match{}, Unavailable(err, "create match")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	now := s.clock.Now()
	m = m.Clone()
	m.Revision = 1
	m.CreatedAt = now
	m.UpdatedAt = now
	s.matches[m.ID] = m

	s.publish(feed.EventInsert, m.ID, m.OwnerID, &m, nil)
	return m.Clone(), nil
}

func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (models.Match, error) {
	if err := ctx.Err(); err != nil {
		return models.Match{}, Unavailable(err, "get match")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.matches[id]
	if !ok {
		return models.Match{}, ErrNotFound
	}
	return m.Clone(), nil
}

func (s *MemoryStore) List(ctx context.Context, ownerID string) ([]models.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, Unavailable(err, "list matches")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Match, 0)
	for _, m := range s.matches {
		if m.OwnerID == ownerID {
			out = append(out, m.Clone())
		}
	}
	slices.SortFunc(out, func(a, b models.Match) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) Update(ctx context.Context, id uuid.UUID, patch models.MatchPatch) (models.Match, error) {
	if err := ctx.Err(); err != nil {
		return models.Match{}, Unavailable(err, "update match")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.matches[id]
	if !ok {
		return models.Match{}, ErrNotFound
	}
	next := old.Clone()
	patch.ApplyTo(&next)
	next.Revision = old.Revision + 1
	next.UpdatedAt = s.clock.Now()
	s.matches[id] = next

	s.publish(feed.EventUpdate, id, next.OwnerID, &next, &old)
	return next.Clone(), nil
}

func (s *MemoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return Unavailable(err, "delete match")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.matches[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.matches, id)

	s.publish(feed.EventDelete, id, old.OwnerID, nil, &old)
	return nil
}

// publish must be called with s.mu held.
func (s *MemoryStore) publish(typ feed.EventType, id uuid.UUID, owner string, record, old *models.Match) {
	if s.broker == nil {
		return
	}
	c := feed.Change{
		ID:          uuid.New(),
		Type:        typ,
		MatchID:     id,
		OwnerID:     owner,
		CommittedAt: s.clock.Now(),
	}
	if record != nil {
		r := record.Clone()
		c.Record = &r
	}
	if old != nil {
		o := old.Clone()
		c.Old = &o
	}
	s.broker.Publish(c)
}
