// Package store archives navigation reports in SQLite so passes can be
// compared over time.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"navcheck/internal/logging"
	"navcheck/internal/report"
)

// ErrRunNotFound is returned when no archived run has the requested id.
var ErrRunNotFound = errors.New("run not found")

// RunSummary is the list view of an archived run.
type RunSummary struct {
	ID            string         `json:"id"`
	GeneratedAt   time.Time      `json:"generated_at"`
	OverallStatus report.Overall `json:"overall_status"`
	TotalRoutes   int            `json:"total_routes"`
	FailedRoutes  int            `json:"failed_routes"`
	WarningRoutes int            `json:"warning_routes"`
	TotalLinks    int            `json:"total_links"`
	InvalidLinks  int            `json:"invalid_links"`
	ExternalLinks int            `json:"external_links"`
	RedirectLinks int            `json:"redirect_links"`
	SlowLinks     int            `json:"slow_links"`
}

// ReportStore persists navigation reports.
type ReportStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// NewReportStore opens (creating if needed) the archive at path.
// ":memory:" gives a private in-memory archive.
func NewReportStore(path string) (*ReportStore, error) {
	timer := logging.StartTimer(logging.CategoryStore, "NewReportStore")
	defer timer.Stop()

	logging.Store("Opening report archive at %s", path)

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			logging.StoreError("Failed to create directory %s: %v", dir, err)
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		logging.StoreError("Failed to open database at %s: %v", path, err)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps ":memory:" a single database and serialises writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}

	s := &ReportStore{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		logging.StoreError("Failed to initialize schema: %v", err)
		db.Close()
		return nil, err
	}
	logging.StoreDebug("Report archive schema ready")
	return s, nil
}

func (s *ReportStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS navigation_runs (
		id TEXT PRIMARY KEY,
		generated_at INTEGER NOT NULL,
		overall_status TEXT NOT NULL,
		total_routes INTEGER NOT NULL DEFAULT 0,
		failed_routes INTEGER NOT NULL DEFAULT 0,
		warning_routes INTEGER NOT NULL DEFAULT 0,
		total_links INTEGER NOT NULL DEFAULT 0,
		invalid_links INTEGER NOT NULL DEFAULT 0,
		external_links INTEGER NOT NULL DEFAULT 0,
		redirect_links INTEGER NOT NULL DEFAULT 0,
		slow_links INTEGER NOT NULL DEFAULT 0,
		payload TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_navigation_runs_generated ON navigation_runs(generated_at DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create navigation_runs table: %w", err)
	}
	return RunMigrations(s.db)
}

// Path returns the database location.
func (s *ReportStore) Path() string { return s.dbPath }

// Close closes the database.
func (s *ReportStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// SaveRun archives n, replacing an earlier copy with the same run id.
func (s *ReportStore) SaveRun(ctx context.Context, n report.Navigation) error {
	timer := logging.StartTimer(logging.CategoryStore, "SaveRun")
	defer timer.Stop()

	if n.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, l := n.Routes.Summary, n.Links.Summary
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO navigation_runs
			(id, generated_at, overall_status, total_routes, failed_routes, warning_routes,
			 total_links, invalid_links, external_links, redirect_links, slow_links, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.RunID, n.GeneratedAt.UnixNano(), string(n.OverallStatus()),
		r.TotalRoutes, r.FailedRoutes, r.WarningRoutes,
		l.TotalLinks, l.InvalidLinks, l.ExternalLinks, l.RedirectLinks, l.SlowLinks,
		string(payload),
	)
	if err != nil {
		logging.StoreError("Failed to save run %s: %v", n.RunID, err)
		return fmt.Errorf("failed to save run: %w", err)
	}
	logging.Store("Archived run %s (%s)", n.RunID, n.OverallStatus())
	return nil
}

// GetRun loads the full report of one run.
func (s *ReportStore) GetRun(ctx context.Context, id string) (report.Navigation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var payload string
	err := s.db.QueryRowContext(ctx, "SELECT payload FROM navigation_runs WHERE id = ?", id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return report.Navigation{}, fmt.Errorf("%s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return report.Navigation{}, fmt.Errorf("failed to load run: %w", err)
	}

	var n report.Navigation
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		return report.Navigation{}, fmt.Errorf("failed to decode run %s: %w", id, err)
	}
	return n, nil
}

// ListRuns returns up to limit runs, newest first. A non-positive limit
// means 20.
func (s *ReportStore) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, generated_at, overall_status, total_routes, failed_routes, warning_routes,
		       total_links, invalid_links, external_links, redirect_links, slow_links
		FROM navigation_runs
		ORDER BY generated_at DESC, id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var rs RunSummary
		var generated int64
		var status string
		if err := rows.Scan(&rs.ID, &generated, &status, &rs.TotalRoutes, &rs.FailedRoutes,
			&rs.WarningRoutes, &rs.TotalLinks, &rs.InvalidLinks,
			&rs.ExternalLinks, &rs.RedirectLinks, &rs.SlowLinks); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		rs.GeneratedAt = time.Unix(0, generated).UTC()
		rs.OverallStatus = report.Overall(status)
		out = append(out, rs)
	}
	return out, rows.Err()
}

// DeleteRun removes one run.
func (s *ReportStore) DeleteRun(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM navigation_runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s: %w", id, ErrRunNotFound)
	}
	logging.StoreDebug("Deleted run %s", id)
	return nil
}
