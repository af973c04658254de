package sqlutil

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
)

// Run executes fn with queries bound to a fresh transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func Run[T any](
	ctx context.Context,
	db *sql.DB,
	newQueries func(*sql.Tx) *T,
	fn func(q *T) error,
) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	if err := fn(newQueries(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "commit tx")
}
