package audit

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// OpenDB opens the audit database with the WAL-mode/busy-timeout pragmas
// the teacher's internal/db used for its much larger schema — a
// single-purpose, low-volume write-only event log doesn't need the
// teacher's reader/writer connection-pool split, so this opens one
// *sql.DB directly instead of a DBPair.
func OpenDB(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_journal=WAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		return nil, fmt.Errorf("set wal mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate audit schema: %w", err)
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS command_audit (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp TEXT NOT NULL,
	command   TEXT NOT NULL,
	target    TEXT,
	renderer  TEXT,
	outcome   TEXT NOT NULL,
	detail    TEXT
);
CREATE INDEX IF NOT EXISTS idx_command_audit_timestamp ON command_audit(timestamp);
`

// Repository is the thin SQL layer over the command_audit table.
type Repository struct {
	db *sql.DB
}

// NewRepository wraps an open *sql.DB.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes a new record and returns it with its assigned ID.
func (r *Repository) Insert(input WriteRecordInput) (Record, error) {
	rec := Record{
		Timestamp: time.Now().UTC(),
		Command:   input.Command,
		Target:    input.Target,
		Renderer:  input.Renderer,
		Outcome:   input.Outcome,
		Detail:    input.Detail,
	}

	result, err := r.db.Exec(
		`INSERT INTO command_audit (timestamp, command, target, renderer, outcome, detail) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Timestamp.Format(time.RFC3339Nano), rec.Command, rec.Target, rec.Renderer, string(rec.Outcome), rec.Detail,
	)
	if err != nil {
		return Record{}, fmt.Errorf("insert audit record: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Record{}, fmt.Errorf("read inserted audit id: %w", err)
	}
	rec.ID = id
	return rec, nil
}

// Query returns the most recent records, newest first, bounded by limit.
func (r *Repository) Query(limit int) ([]Record, error) {
	rows, err := r.db.Query(
		`SELECT id, timestamp, command, target, renderer, outcome, detail FROM command_audit ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var ts string
		var target, rendererName, detail sql.NullString
		if err := rows.Scan(&rec.ID, &ts, &rec.Command, &target, &rendererName, &rec.Outcome, &detail); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		rec.Target = target.String
		rec.Renderer = rendererName.String
		rec.Detail = detail.String
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			rec.Timestamp = parsed
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// PruneOlderThan deletes records older than cutoff and returns the number
// of rows removed.
func (r *Repository) PruneOlderThan(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM command_audit WHERE timestamp < ?`, cutoff.Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("prune audit records: %w", err)
	}
	return result.RowsAffected()
}
