package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/openvault/openvault/internal/policy"
	"github.com/openvault/openvault/internal/types"
)

// SQLiteStore is a Store backed by a SQLite database. Rules are stored as a
// JSON blob per policy; rule authoring happens outside this repository.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS safety_policies (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	version    INTEGER NOT NULL DEFAULT 1,
	is_active  INTEGER NOT NULL DEFAULT 1,
	rules      TEXT NOT NULL DEFAULT '[]',
	updated_at TEXT NOT NULL
);
`

// OpenSQLite opens (and if necessary initializes) a policy store at the given
// database path. WAL mode is enabled for concurrent readers.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, types.WrapError(types.STORE_OPEN_FAILED, "failed to open policy store", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, types.WrapError(types.STORE_OPEN_FAILED, "failed to initialize policy store schema", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ActiveByID returns the active policy with the given id, or nil when the id
// is unknown or the policy is inactive.
func (s *SQLiteStore) ActiveByID(ctx context.Context, id string) (*policy.SafetyPolicy, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, version, is_active, rules FROM safety_policies WHERE id = ?`, id)

	var (
		p        policy.SafetyPolicy
		isActive int
		rulesRaw string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Version, &isActive, &rulesRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, types.WrapError(types.STORE_QUERY_FAILED, "failed to load policy "+id, err)
	}

	if isActive == 0 {
		return nil, nil
	}
	p.IsActive = true

	if err := json.Unmarshal([]byte(rulesRaw), &p.Rules); err != nil {
		return nil, types.WrapError(types.STORE_QUERY_FAILED, "failed to decode rules for policy "+id, err)
	}

	return &p, nil
}

// Save inserts or replaces a policy. It exists so deployments can seed
// policies from configuration; interactive authoring is out of scope.
func (s *SQLiteStore) Save(ctx context.Context, p *policy.SafetyPolicy) error {
	rules, err := json.Marshal(p.Rules)
	if err != nil {
		return types.WrapError(types.STORE_QUERY_FAILED, "failed to encode rules for policy "+p.ID, err)
	}

	isActive := 0
	if p.IsActive {
		isActive = 1
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO safety_policies (id, name, version, is_active, rules, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			version = excluded.version,
			is_active = excluded.is_active,
			rules = excluded.rules,
			updated_at = excluded.updated_at`,
		p.ID, p.Name, p.Version, isActive, string(rules), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return types.WrapError(types.STORE_QUERY_FAILED, "failed to save policy "+p.ID, err)
	}

	return nil
}
