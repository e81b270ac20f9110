package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// v1Schema is the archive layout before link breakdown columns existed.
const v1Schema = `
CREATE TABLE navigation_runs (
	id TEXT PRIMARY KEY,
	generated_at INTEGER NOT NULL,
	overall_status TEXT NOT NULL,
	total_routes INTEGER NOT NULL DEFAULT 0,
	failed_routes INTEGER NOT NULL DEFAULT 0,
	warning_routes INTEGER NOT NULL DEFAULT 0,
	total_links INTEGER NOT NULL DEFAULT 0,
	invalid_links INTEGER NOT NULL DEFAULT 0,
	payload TEXT NOT NULL
);
INSERT INTO navigation_runs VALUES ('legacy', 1700000000000000000, 'warning', 14, 0, 2, 12, 0, '{"run_id":"legacy"}');
`

func TestMigrateV1Archive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(v1Schema)
	require.NoError(t, err)
	assert.Equal(t, 1, GetSchemaVersion(db))
	require.NoError(t, db.Close())

	st, err := NewReportStore(path)
	require.NoError(t, err)
	defer st.Close()

	assert.Equal(t, CurrentSchemaVersion, GetSchemaVersion(st.db))
	for _, m := range pendingMigrations {
		assert.True(t, columnExists(st.db, m.Table, m.Column), m.Column)
	}

	runs, err := st.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "legacy", runs[0].ID)
	assert.Equal(t, 2, runs[0].WarningRoutes)
	assert.Zero(t, runs[0].SlowLinks)
}

func TestMigrationsIdempotent(t *testing.T) {
	st, err := NewReportStore(":memory:")
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, RunMigrations(st.db))
	require.NoError(t, RunMigrations(st.db))
	assert.Equal(t, CurrentSchemaVersion, GetSchemaVersion(st.db))
}

func TestSchemaVersionEmptyDatabase(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)

	assert.Equal(t, 0, GetSchemaVersion(db))
	assert.False(t, tableExists(db, "navigation_runs"))
}
