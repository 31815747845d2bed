// Package store persists compile results in a sqlite index keyed by source
// path, so the watcher and the daemon can answer "what failed last" without
// recompiling.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sodl-lang/sodlc/internal/diag"
)

// Result is one persisted compile outcome.
type Result struct {
	ID           int64             `json:"id"`
	Path         string            `json:"path"`
	ContentHash  string            `json:"contentHash"`
	Success      bool              `json:"success"`
	ErrorCount   int               `json:"errorCount"`
	WarningCount int               `json:"warningCount"`
	Diagnostics  []diag.Diagnostic `json:"diagnostics"`
	CompiledAt   time.Time         `json:"compiledAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Store) initSchema() error {
	schema := GetSchema()

	lines := strings.Split(schema, "\n")
	var cleanLines []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "--") && trimmed != "" {
			cleanLines = append(cleanLines, line)
		}
	}
	cleanSchema := strings.Join(cleanLines, "\n")

	if _, err := s.db.Exec(cleanSchema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	_, _ = s.db.Exec(`INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, GetSchemaVersion())
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Upsert writes the result for its path, replacing any previous row.
func (s *Store) Upsert(r *Result) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	diags, err := json.Marshal(r.Diagnostics)
	if err != nil {
		return 0, fmt.Errorf("encode diagnostics: %w", err)
	}

	now := time.Now().UTC()
	result, err := s.db.Exec(`
		INSERT INTO results (path, content_hash, success, error_count, warning_count, diagnostics, compiled_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(path) DO UPDATE SET
			content_hash = excluded.content_hash,
			success = excluded.success,
			error_count = excluded.error_count,
			warning_count = excluded.warning_count,
			diagnostics = excluded.diagnostics,
			compiled_at = excluded.compiled_at,
			updated_at = CURRENT_TIMESTAMP
	`, r.Path, r.ContentHash, boolToInt(r.Success), r.ErrorCount, r.WarningCount, string(diags), now)

	if err != nil {
		return 0, fmt.Errorf("upsert result: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		row := s.db.QueryRow("SELECT id FROM results WHERE path = ?", r.Path)
		if err := row.Scan(&id); err != nil {
			return 0, fmt.Errorf("get result id: %w", err)
		}
	}

	return id, nil
}

// Get returns the stored result for path, or nil when none exists.
func (s *Store) Get(path string) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.scanOne(s.db.QueryRow(`
		SELECT id, path, content_hash, success, error_count, warning_count, diagnostics, compiled_at, updated_at
		FROM results WHERE path = ?
	`, path))
}

// List returns all stored results ordered by path.
func (s *Store) List() ([]*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, path, content_hash, success, error_count, warning_count, diagnostics, compiled_at, updated_at
		FROM results ORDER BY path
	`)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var out []*Result
	for rows.Next() {
		r, err := scanResult(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Failing returns the results whose last compile had errors.
func (s *Store) Failing() ([]*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, path, content_hash, success, error_count, warning_count, diagnostics, compiled_at, updated_at
		FROM results WHERE success = 0 ORDER BY path
	`)
	if err != nil {
		return nil, fmt.Errorf("list failing results: %w", err)
	}
	defer rows.Close()

	var out []*Result
	for rows.Next() {
		r, err := scanResult(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Delete removes the row for path. Deleting an absent path is not an error.
func (s *Store) Delete(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM results WHERE path = ?", path); err != nil {
		return fmt.Errorf("delete result: %w", err)
	}
	return nil
}

// Stats returns total and failing row counts.
func (s *Store) Stats() (total, failing int, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err = s.db.QueryRow("SELECT COUNT(*) FROM results").Scan(&total); err != nil {
		return 0, 0, fmt.Errorf("count results: %w", err)
	}
	if err = s.db.QueryRow("SELECT COUNT(*) FROM results WHERE success = 0").Scan(&failing); err != nil {
		return 0, 0, fmt.Errorf("count failing results: %w", err)
	}
	return total, failing, nil
}

func (s *Store) scanOne(row *sql.Row) (*Result, error) {
	r, err := scanResult(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

func scanResult(scan func(...any) error) (*Result, error) {
	r := &Result{}
	var success int
	var diags string
	var compiledAt, updatedAt sql.NullTime

	err := scan(&r.ID, &r.Path, &r.ContentHash, &success, &r.ErrorCount, &r.WarningCount, &diags, &compiledAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	r.Success = success != 0
	if diags != "" {
		if err := json.Unmarshal([]byte(diags), &r.Diagnostics); err != nil {
			return nil, fmt.Errorf("decode diagnostics: %w", err)
		}
	}
	if compiledAt.Valid {
		r.CompiledAt = compiledAt.Time
	}
	if updatedAt.Valid {
		r.UpdatedAt = updatedAt.Time
	}
	return r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
