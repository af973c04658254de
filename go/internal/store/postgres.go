package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/matchboard/go/internal/models"
)

const matchColumns = `id, owner_id, name, description, home_team, away_team, game_format,
	current_period, timer_remaining_sec, is_timer_running, timer_started_at, is_match_ended,
	overlay_stats_visible, scoreboard_theme, league_logo_url, channel_logo_url,
	revision, created_at, updated_at`

// PostgresStore keeps matches in the matches table. Change notification is
// done by the table trigger, not by this type.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Create(ctx context.Context, m models.Match) (models.Match, error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	home, away, format, err := encodeJSONColumns(m.HomeTeam, m.AwayTeam, m.GameFormat)
	if err != nil {
		return models.Match{}, err
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO matches (id, owner_id, name, description, home_team, away_team, game_format,
			current_period, timer_remaining_sec, is_timer_running, timer_started_at, is_match_ended,
			overlay_stats_visible, scoreboard_theme, league_logo_url, channel_logo_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING `+matchColumns,
		m.ID, m.OwnerID, m.Name, m.Description, home, away, format,
		m.CurrentPeriod, m.TimerRemainingSec, m.IsTimerRunning, m.TimerStartedAt, m.IsMatchEnded,
		m.OverlayStatsVisible, string(m.ScoreboardTheme), m.LeagueLogoURL, m.ChannelLogoURL,
	)
	created, err := scanMatch(row)
	if err != nil {
		return models.Match{}, Unavailable(err, "insert match")
	}
	return created, nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (models.Match, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = $1`, id)
	m, err := scanMatch(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Match{}, ErrNotFound
	}
	if err != nil {
		return models.Match{}, Unavailable(err, "get match")
	}
	return m, nil
}

func (s *PostgresStore) List(ctx context.Context, ownerID string) ([]models.Match, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, Unavailable(err, "list matches")
	}
	defer rows.Close()

	out := make([]models.Match, 0)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, Unavailable(err, "scan match")
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, Unavailable(err, "list matches")
	}
	return out, nil
}

func (s *PostgresStore) Update(ctx context.Context, id uuid.UUID, patch models.MatchPatch) (models.Match, error) {
	sets, args, err := buildSetClause(patch)
	if err != nil {
		return models.Match{}, err
	}
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE matches SET %s, revision = revision + 1, updated_at = now()
		WHERE id = $%d RETURNING %s`, strings.Join(sets, ", "), len(args), matchColumns)

	m, err := scanMatch(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Match{}, ErrNotFound
	}
	if err != nil {
		return models.Match{}, Unavailable(err, "update match")
	}
	return m, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return Unavailable(err, "delete match")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// buildSetClause turns the set fields of patch into SET assignments with
// positional arguments starting at $1.
func buildSetClause(p models.MatchPatch) ([]string, []any, error) {
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	addJSON := func(col string, v any) error {
		b, err := sonic.Marshal(v)
		if err != nil {
			return errors.Wrapf(err, "encode %s", col)
		}
		add(col, b)
		return nil
	}

	if p.Name != nil {
		add("name", *p.Name)
	}
	if p.Description != nil {
		add("description", *p.Description)
	}
	if p.HomeTeam != nil {
		if err := addJSON("home_team", p.HomeTeam); err != nil {
			return nil, nil, err
		}
	}
	if p.AwayTeam != nil {
		if err := addJSON("away_team", p.AwayTeam); err != nil {
			return nil, nil, err
		}
	}
	if p.GameFormat != nil {
		if err := addJSON("game_format", p.GameFormat); err != nil {
			return nil, nil, err
		}
	}
	if p.CurrentPeriod != nil {
		add("current_period", *p.CurrentPeriod)
	}
	if p.TimerRemainingSec != nil {
		add("timer_remaining_sec", *p.TimerRemainingSec)
	}
	if p.IsTimerRunning != nil {
		add("is_timer_running", *p.IsTimerRunning)
	}
	if p.ClearTimerStartedAt {
		sets = append(sets, "timer_started_at = NULL")
	} else if p.TimerStartedAt != nil {
		add("timer_started_at", *p.TimerStartedAt)
	}
	if p.IsMatchEnded != nil {
		add("is_match_ended", *p.IsMatchEnded)
	}
	if p.OverlayStatsVisible != nil {
		add("overlay_stats_visible", *p.OverlayStatsVisible)
	}
	if p.ScoreboardTheme != nil {
		add("scoreboard_theme", string(*p.ScoreboardTheme))
	}
	if p.LeagueLogoURL != nil {
		add("league_logo_url", *p.LeagueLogoURL)
	}
	if p.ChannelLogoURL != nil {
		add("channel_logo_url", *p.ChannelLogoURL)
	}

	if len(sets) == 0 {
		return nil, nil, errors.New("empty match patch")
	}
	return sets, args, nil
}

func encodeJSONColumns(home, away models.Team, format models.GameFormat) ([]byte, []byte, []byte, error) {
	h, err := sonic.Marshal(home)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "encode home_team")
	}
	a, err := sonic.Marshal(away)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "encode away_team")
	}
	f, err := sonic.Marshal(format)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "encode game_format")
	}
	return h, a, f, nil
}

func scanMatch(row pgx.Row) (models.Match, error) {
	var (
		m                  models.Match
		home, away, format []byte
		theme              string
	)
	err := row.Scan(
		&m.ID, &m.OwnerID, &m.Name, &m.Description, &home, &away, &format,
		&m.CurrentPeriod, &m.TimerRemainingSec, &m.IsTimerRunning, &m.TimerStartedAt, &m.IsMatchEnded,
		&m.OverlayStatsVisible, &theme, &m.LeagueLogoURL, &m.ChannelLogoURL,
		&m.Revision, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return models.Match{}, err
	}
	m.ScoreboardTheme = models.Theme(theme)
	if err := sonic.Unmarshal(home, &m.HomeTeam); err != nil {
		return models.Match{}, errors.Wrap(err, "decode home_team")
	}
	if err := sonic.Unmarshal(away, &m.AwayTeam); err != nil {
		return models.Match{}, errors.Wrap(err, "decode away_team")
	}
	if err := sonic.Unmarshal(format, &m.GameFormat); err != nil {
		return models.Match{}, errors.Wrap(err, "decode game_format")
	}
	return m, nil
}
