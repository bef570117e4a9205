package sqlite_test

import (
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meetingd/internal/platform/sqlite"
)

func TestOpenAppliesEmbeddedMigrationsOnce(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "meetingd.db")

	db, err := sqlite.Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = sqlite.Open(path)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&count))
	assert.Equal(t, 3, count)

	for _, table := range []string{"meeting_sessions", "meeting_pause_events", "meeting_snapshots", "meeting_errors"} {
		var name string
		require.NoError(t, db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name), table)
	}
}

func TestApplyMigrationsHonoursUpSection(t *testing.T) {
	t.Parallel()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "base.db"))
	require.NoError(t, err)
	defer db.Close()

	extra := fstest.MapFS{
		"extra/010_notes.sql": {Data: []byte("-- +migrate Up\nCREATE TABLE notes (id TEXT);\n-- +migrate Down\nDROP TABLE notes;\n")},
	}
	require.NoError(t, sqlite.ApplyMigrations(db, extra, "extra"))
	require.NoError(t, sqlite.ApplyMigrations(db, extra, "extra"))

	var name string
	require.NoError(t, db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'notes'`).Scan(&name))
}

func TestTimeRoundTrip(t *testing.T) {
	t.Parallel()
	at := time.Date(2026, 3, 2, 9, 30, 15, 250, time.FixedZone("x", 3600))
	parsed, err := sqlite.ParseTime(sqlite.FormatTime(at))
	require.NoError(t, err)
	assert.True(t, at.Equal(parsed))

	none, err := sqlite.ParseNullTime(sqlite.NullTime(nil))
	require.NoError(t, err)
	assert.Nil(t, none)
}
