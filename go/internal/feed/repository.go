package feed

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/mcdev12/matchboard/go/internal/models"
	"github.com/mcdev12/matchboard/go/internal/sqlutil"
	"github.com/sqlc-dev/pqtype"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// changeRow mirrors a match_changes row written by the matches trigger.
type changeRow struct {
	ID          uuid.UUID
	Seq         int64
	EventType   string
	MatchID     uuid.UUID
	OwnerID     string
	NewRecord   pqtype.NullRawMessage
	OldRecord   pqtype.NullRawMessage
	CommittedAt time.Time
	SentAt      sql.NullTime
}

const changeColumns = `id, seq, event_type, match_id, owner_id, new_record, old_record, committed_at, sent_at`

// ChangeQueries reads and acknowledges rows of match_changes.
type ChangeQueries struct {
	db DBTX
}

func NewChangeQueries(db DBTX) *ChangeQueries {
	return &ChangeQueries{db: db}
}

func scanChange(scan func(dest ...any) error) (changeRow, error) {
	var r changeRow
	err := scan(&r.ID, &r.Seq, &r.EventType, &r.MatchID, &r.OwnerID, &r.NewRecord, &r.OldRecord, &r.CommittedAt, &r.SentAt)
	return r, err
}

// FetchUnsentByID returns the change with id if it has not been relayed.
func (q *ChangeQueries) FetchUnsentByID(ctx context.Context, id uuid.UUID) (Change, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+changeColumns+` FROM match_changes WHERE id = $1 AND sent_at IS NULL`, id)
	r, err := scanChange(row.Scan)
	if err != nil {
		return Change{}, err
	}
	return r.toChange()
}

// LockUnsent claims up to limit unsent rows in commit order. Rows stay
// locked until the surrounding transaction ends.
func (q *ChangeQueries) LockUnsent(ctx context.Context, limit int) ([]Change, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+changeColumns+` FROM match_changes
		 WHERE sent_at IS NULL
		 ORDER BY seq
		 LIMIT $1
		 FOR UPDATE SKIP LOCKED`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query unsent changes")
	}
	defer rows.Close()

	var out []Change
	for rows.Next() {
		r, err := scanChange(rows.Scan)
		if err != nil {
			return nil, errors.Wrap(err, "scan change")
		}
		c, err := r.toChange()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (q *ChangeQueries) MarkSent(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, `UPDATE match_changes SET sent_at = now() WHERE id = $1`, id)
	return err
}

// PruneSent deletes relayed rows older than the cutoff.
func (q *ChangeQueries) PruneSent(ctx context.Context, before time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`DELETE FROM match_changes WHERE sent_at IS NOT NULL AND sent_at < $1`, sqlutil.ToSqlTime(&before))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r changeRow) toChange() (Change, error) {
	c := Change{
		ID:          r.ID,
		Seq:         r.Seq,
		Type:        EventType(r.EventType),
		MatchID:     r.MatchID,
		OwnerID:     r.OwnerID,
		CommittedAt: r.CommittedAt,
	}
	if !c.Type.Valid() {
		return Change{}, errors.Newf("change %s has unknown event type %q", r.ID, r.EventType)
	}
	var err error
	if c.Record, err = sqlutil.FromNullJSON[models.Match](r.NewRecord); err != nil {
		return Change{}, errors.Wrapf(err, "decode new record of change %s", r.ID)
	}
	if c.Old, err = sqlutil.FromNullJSON[models.Match](r.OldRecord); err != nil {
		return Change{}, errors.Wrapf(err, "decode old record of change %s", r.ID)
	}
	return c, nil
}
