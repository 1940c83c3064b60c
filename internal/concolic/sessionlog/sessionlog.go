// Package sessionlog persists every hybrid solve() call's oracle request
// and verdict to an append-only SQLite log, for offline inspection via
// cmd/concolic's --dump-session flag. It is never consulted by solve()
// itself: cross-run caching of oracle replies is an explicit non-goal.
package sessionlog

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/funvibe/concolic/internal/concolic/oracle"
)

const schema = `
CREATE TABLE IF NOT EXISTS solves (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	recorded_at TEXT NOT NULL,
	hint TEXT NOT NULL,
	constraints TEXT NOT NULL,
	result TEXT NOT NULL
);
`

// Store is a SQLite-backed append-only log of (request, verdict) pairs.
type Store struct {
	db *sql.DB
}

// Open creates or opens the SQLite file at path and ensures the schema
// exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening session log %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialising session log schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record writes one solve() call's request and result. It satisfies
// hybrid.SessionRecorder.
func (s *Store) Record(req oracle.Request, result oracle.Result) {
	constraints := fmt.Sprintf("%v", req.Constraints)
	_, err := s.db.Exec(
		`INSERT INTO solves (recorded_at, hint, constraints, result) VALUES (?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339Nano), req.Hint, constraints, string(result),
	)
	if err != nil {
		// Recording is a diagnostic side effect; a write failure here must
		// never surface as a solve() error, matching spec §7's contract
		// that collector/audit failures are swallowed.
		return
	}
}

// Entry is one recorded solve() call, read back for --dump-session.
type Entry struct {
	ID          int64
	RecordedAt  string
	Hint        string
	Constraints string
	Result      string
}

// All returns every recorded entry, oldest first.
func (s *Store) All() ([]Entry, error) {
	rows, err := s.db.Query(`SELECT id, recorded_at, hint, constraints, result FROM solves ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying session log: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.RecordedAt, &e.Hint, &e.Constraints, &e.Result); err != nil {
			return nil, fmt.Errorf("scanning session log row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
