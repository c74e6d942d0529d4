package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/openvault/openvault/internal/types"
)

const auditSchema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id TEXT PRIMARY KEY,
	action TEXT NOT NULL,
	actor_id TEXT,
	details TEXT,
	status TEXT NOT NULL,
	error_message TEXT,
	timestamp DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_events_action ON audit_events(action);
CREATE INDEX IF NOT EXISTS idx_audit_events_timestamp ON audit_events(timestamp);
`

// SQLiteSink persists audit events to a local SQLite database. Failures are
// logged and swallowed so auditing can never fail the primary request.
type SQLiteSink struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens (and creates if needed) an audit database at path
func OpenSQLite(path string, logger *slog.Logger) (*SQLiteSink, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, types.WrapError(types.STORE_OPEN_FAILED, "failed to open audit database", err)
	}

	if _, err := db.Exec(auditSchema); err != nil {
		db.Close()
		return nil, types.WrapError(types.STORE_OPEN_FAILED, "failed to create audit schema", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteSink{db: db, logger: logger}, nil
}

func (s *SQLiteSink) Record(ctx context.Context, event Event) {
	details := "{}"
	if event.Details != nil {
		raw, err := json.Marshal(event.Details)
		if err != nil {
			s.logger.WarnContext(ctx, "audit details not serializable", "audit_id", event.ID, "error", err)
		} else {
			details = string(raw)
		}
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_events (id, action, actor_id, details, status, error_message, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.Action, event.ActorID, details, string(event.Status), event.ErrorMessage, event.Timestamp,
	)
	if err != nil {
		s.logger.WarnContext(ctx, "audit record failed", "audit_id", event.ID, "error", err)
	}
}

// Recent returns up to limit events ordered newest first
func (s *SQLiteSink) Recent(ctx context.Context, limit int) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, action, actor_id, details, status, error_message, timestamp
		 FROM audit_events ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, types.WrapError(types.STORE_QUERY_FAILED, "failed to query audit events", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			event   Event
			details string
			status  string
		)
		if err := rows.Scan(&event.ID, &event.Action, &event.ActorID, &details, &status, &event.ErrorMessage, &event.Timestamp); err != nil {
			return nil, types.WrapError(types.STORE_QUERY_FAILED, "failed to scan audit event", err)
		}
		event.Status = Status(status)
		if details != "" && details != "{}" {
			if err := json.Unmarshal([]byte(details), &event.Details); err != nil {
				s.logger.WarnContext(ctx, "audit details not parseable", "audit_id", event.ID, "error", err)
			}
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// Close closes the underlying database
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
