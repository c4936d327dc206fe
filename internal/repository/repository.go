// Package repository provides PostgreSQL persistence for users, habits
// and completions.
package repository

import (
	"encoding/json"
	"errors"

	"github.com/lib/pq"
)

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func marshalExtra(extra map[string]json.RawMessage) ([]byte, error) {
	if len(extra) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(extra)
}

func unmarshalExtra(data []byte) (map[string]json.RawMessage, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var extra map[string]json.RawMessage
	if err := json.Unmarshal(data, &extra); err != nil {
		return nil, err
	}
	if len(extra) == 0 {
		return nil, nil
	}
	return extra, nil
}

func nullableMood(m *int) any {
	if m == nil {
		return nil
	}
	return int64(*m)
}

func nullableNote(n *string) any {
	if n == nil {
		return nil
	}
	return *n
}
