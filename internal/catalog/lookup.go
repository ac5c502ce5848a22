package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Table names a name-keyed lookup table.
type Table string

const (
	Authors  Table = "authors"
	Genres   Table = "genres"
	Statuses Table = "statuses"
	Stores   Table = "stores"
)

const maxLookupAttempts = 3

var errEmptyName = errors.New("lookup name required")

func (t Table) valid() bool {
	switch t {
	case Authors, Genres, Statuses, Stores:
		return true
	}
	return false
}

// FindOrCreateByName returns the id of the row named name, inserting it first
// if it does not exist.
func (r *Repo) FindOrCreateByName(ctx context.Context, table Table, name string) (int64, error) {
	return findOrCreateByName(ctx, r.DB, table, name)
}

// findOrCreateByName relies on the UNIQUE(name) constraint: the insert is a
// no-op when another writer got there first, and the select then sees that
// row. The insert goes first so a transaction takes the write lock before it
// reads anything.
func findOrCreateByName(ctx context.Context, q sqlx.ExtContext, table Table, name string) (int64, error) {
	if !table.valid() {
		return 0, fmt.Errorf("unknown lookup table %q", table)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("find or create %s: %w", table, errEmptyName)
	}

	insert := fmt.Sprintf(`INSERT INTO %s (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, table)
	query := fmt.Sprintf(`SELECT id FROM %s WHERE name = ?`, table)

	var lastErr error
	for attempt := 0; attempt < maxLookupAttempts; attempt++ {
		if _, err := q.ExecContext(ctx, insert, name); err != nil {
			return 0, fmt.Errorf("insert %s %q: %w", table, name, err)
		}

		var id int64
		err := sqlx.GetContext(ctx, q, &id, query, name)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("select %s %q: %w", table, name, err)
		}
		lastErr = err
	}
	return 0, fmt.Errorf("find or create %s %q: %w", table, name, lastErr)
}
