package store

import (
	"database/sql"
	"fmt"

	"navcheck/internal/logging"
)

// Schema versions:
// v1: navigation_runs with route counts, total and invalid link counts
// v2: added external, redirect and slow link counts
const CurrentSchemaVersion = 2

// Migration adds one column to an existing table.
type Migration struct {
	Table  string
	Column string
	Def    string
}

// pendingMigrations bring archives written by older releases up to date.
var pendingMigrations = []Migration{
	{"navigation_runs", "external_links", "INTEGER NOT NULL DEFAULT 0"},
	{"navigation_runs", "redirect_links", "INTEGER NOT NULL DEFAULT 0"},
	{"navigation_runs", "slow_links", "INTEGER NOT NULL DEFAULT 0"},
}

// RunMigrations applies the column migrations and records the schema version.
func RunMigrations(db *sql.DB) error {
	timer := logging.StartTimer(logging.CategoryStore, "RunMigrations")
	defer timer.Stop()

	applied := 0
	for _, m := range pendingMigrations {
		if !tableExists(db, m.Table) {
			logging.StoreDebug("Table missing, skipping migration: %s.%s", m.Table, m.Column)
			continue
		}
		if columnExists(db, m.Table, m.Column) {
			continue
		}

		query := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.Table, m.Column, m.Def)
		logging.StoreDebug("Executing migration: %s", query)
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("migration %s.%s failed: %w", m.Table, m.Column, err)
		}
		logging.Store("Migration applied: added %s.%s", m.Table, m.Column)
		applied++
	}

	if GetSchemaVersion(db) < CurrentSchemaVersion {
		if err := SetSchemaVersion(db, CurrentSchemaVersion); err != nil {
			return err
		}
	}
	logging.Store("Schema migrations complete: applied=%d", applied)
	return nil
}

// columnExists checks if a column exists in a table using PRAGMA table_info.
func columnExists(db *sql.DB, table, column string) bool {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		logging.StoreDebug("PRAGMA table_info(%s) failed: %v", table, err)
		return false
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			continue
		}
		if name == column {
			return true
		}
	}
	return false
}

// tableExists checks if a table exists in the database.
func tableExists(db *sql.DB, table string) bool {
	var count int
	query := "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?"
	if err := db.QueryRow(query, table).Scan(&count); err != nil {
		logging.StoreDebug("Table existence check failed for %s: %v", table, err)
		return false
	}
	return count > 0
}

// GetSchemaVersion returns the recorded schema version. Archives without a
// version record are inferred from their columns.
func GetSchemaVersion(db *sql.DB) int {
	if tableExists(db, "schema_versions") {
		var version int
		err := db.QueryRow("SELECT version FROM schema_versions ORDER BY version DESC LIMIT 1").Scan(&version)
		if err == nil {
			return version
		}
	}

	switch {
	case !tableExists(db, "navigation_runs"):
		return 0
	case columnExists(db, "navigation_runs", "slow_links"):
		return 2
	default:
		return 1
	}
}

// SetSchemaVersion records version as applied.
func SetSchemaVersion(db *sql.DB, version int) error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_versions (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema_versions table: %w", err)
	}
	if _, err := db.Exec("INSERT OR REPLACE INTO schema_versions (version) VALUES (?)", version); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	logging.StoreDebug("Schema version set to %d", version)
	return nil
}
