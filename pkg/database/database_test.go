package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAndMigrate(t *testing.T) {
	cfg := Config{Path: filepath.Join(t.TempDir(), "nested", "data.db")}

	db, err := Open(cfg)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(db))
	// second run is a no-op
	require.NoError(t, Migrate(db))

	for _, table := range []string{"authors", "genres", "statuses", "stores", "purchases", "books", "ratings"} {
		var n int
		err := db.Get(&n, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table)
		require.NoError(t, err)
		assert.Equal(t, 1, n, "table %s", table)
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	db, err := Open(Config{Path: filepath.Join(t.TempDir(), "fk.db")})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, Migrate(db))

	_, err = db.Exec(`INSERT INTO books (title, author_id, genre_id, status_id) VALUES ('x', 99, 99, 99)`)
	assert.Error(t, err)
}

func TestDefaultConfigFromEnv(t *testing.T) {
	t.Setenv("BOOKTRACKER_DB_PATH", "/tmp/custom.db")
	assert.Equal(t, "/tmp/custom.db", DefaultConfig().Path)
}
