package profiles

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/matchboard/go/internal/models"
	"github.com/mcdev12/matchboard/go/internal/store"
)

var ErrNotFound = errors.New("profile not found")

// PostgresRepository keeps profiles in the profiles table.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// GetProfile retrieves a profile by owner id.
func (r *PostgresRepository) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	var (
		p     models.Profile
		theme string
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, app_theme, created_at, updated_at FROM profiles WHERE id = $1`, id,
	).Scan(&p.ID, &theme, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, store.Unavailable(err, "get profile")
	}
	p.AppTheme = models.Theme(theme)
	return &p, nil
}

// UpsertTheme stores the theme, creating the profile on first use.
func (r *PostgresRepository) UpsertTheme(ctx context.Context, id string, theme models.Theme) (*models.Profile, error) {
	var (
		p      models.Profile
		stored string
	)
	err := r.pool.QueryRow(ctx, `
		INSERT INTO profiles (id, app_theme) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET app_theme = EXCLUDED.app_theme, updated_at = now()
		RETURNING id, app_theme, created_at, updated_at`,
		id, string(theme),
	).Scan(&p.ID, &stored, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, store.Unavailable(err, "upsert profile theme")
	}
	p.AppTheme = models.Theme(stored)
	return &p, nil
}

// MemoryRepository is the in-process profile store used when no database
// is configured.
type MemoryRepository struct {
	mu       sync.RWMutex
	profiles map[string]models.Profile
	clock    clockwork.Clock
}

func NewMemoryRepository(clock clockwork.Clock) *MemoryRepository {
	return &MemoryRepository{
		profiles: make(map[string]models.Profile),
		clock:    clock,
	}
}

func (r *MemoryRepository) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (r *MemoryRepository) UpsertTheme(ctx context.Context, id string, theme models.Theme) (*models.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	p, ok := r.profiles[id]
	if !ok {
		p = models.Profile{ID: id, CreatedAt: now}
	}
	p.AppTheme = theme
	p.UpdatedAt = now
	r.profiles[id] = p
	return &p, nil
}
