package sqlutil

import (
	"database/sql"
	"time"

	"github.com/bytedance/sonic"
	"github.com/sqlc-dev/pqtype"
)

// ToSqlTime converts a Go time pointer to sql.NullTime
func ToSqlTime(val *time.Time) sql.NullTime {
	if val == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: *val, Valid: true}
}

// FromSqlTime converts sql.NullTime to Go time pointer
func FromSqlTime(val sql.NullTime) *time.Time {
	if !val.Valid {
		return nil
	}
	return &val.Time
}

// FromNullJSON decodes a nullable JSONB column. NULL and empty values
// decode to nil.
func FromNullJSON[T any](raw pqtype.NullRawMessage) (*T, error) {
	if !raw.Valid || len(raw.RawMessage) == 0 {
		return nil, nil
	}
	var v T
	if err := sonic.Unmarshal(raw.RawMessage, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// ToNullJSON encodes v for a nullable JSONB column; nil becomes NULL.
func ToNullJSON[T any](v *T) (pqtype.NullRawMessage, error) {
	if v == nil {
		return pqtype.NullRawMessage{}, nil
	}
	raw, err := sonic.Marshal(v)
	if err != nil {
		return pqtype.NullRawMessage{}, err
	}
	return pqtype.NullRawMessage{RawMessage: raw, Valid: true}, nil
}
