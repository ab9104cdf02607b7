// Package sqlite provides a SQLite implementation of the RelationalDB interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/ersonp/legis/internal/domain/ports"
	"github.com/ersonp/legis/internal/infrastructure/config"
)

// timeNow returns the current time (can be mocked in tests).
var timeNow = time.Now

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// store runs every query against q, which is either the pool or an open transaction.
type store struct {
	q querier
}

// Repository implements ports.RelationalDB using SQLite.
type Repository struct {
	store
	db   *sql.DB
	path string
}

// NewRepository creates a new SQLite repository.
func NewRepository(cfg config.SQLiteConfig) (*Repository, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", dsn(cfg.Path))
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// Every pooled connection to :memory: would get its own empty database.
	if isMemory(cfg.Path) {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to sqlite database: %w", err)
	}

	return &Repository{
		store: store{q: db},
		db:    db,
		path:  cfg.Path,
	}, nil
}

// dsn applies pragmas on every connection the pool opens. Transactions take the
// write lock up front so concurrent writers wait on busy_timeout instead of
// failing at commit.
func dsn(path string) string {
	params := []string{
		"_pragma=foreign_keys(1)",
		"_pragma=busy_timeout(5000)",
		"_txlock=immediate",
	}
	if !isMemory(path) {
		params = append(params, "_pragma=journal_mode(WAL)")
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(params, "&")
}

func isMemory(path string) bool {
	return strings.HasPrefix(path, ":memory:") || strings.Contains(path, "mode=memory")
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Path returns the database file path.
func (r *Repository) Path() string {
	return r.path
}

// WithTx runs fn in a transaction. Any error from fn rolls everything back.
func (r *Repository) WithTx(ctx context.Context, fn func(tx ports.Tx) error) error {
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = sqlTx.Rollback() }()

	if err := fn(&store{q: sqlTx}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// EnsureSchema creates the database schema if it doesn't exist.
// Timestamps are stored as UTC unix nanoseconds so range scans compare numerically.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	schema := `
	-- Variables (latest recorded value per key)
	CREATE TABLE IF NOT EXISTS variables (
		key TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		value TEXT NOT NULL,
		unit TEXT NOT NULL DEFAULT '',
		effective_from INTEGER NOT NULL,
		last_verified INTEGER,
		version INTEGER NOT NULL DEFAULT 1,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	-- Variable value history (one row per set)
	CREATE TABLE IF NOT EXISTS variable_versions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		variable_key TEXT NOT NULL REFERENCES variables(key),
		value TEXT NOT NULL,
		effective_from INTEGER NOT NULL,
		recorded_at INTEGER NOT NULL,
		forced INTEGER NOT NULL DEFAULT 0,
		reason TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_variable_versions_key ON variable_versions(variable_key, effective_from);

	-- Update points (verification obligations)
	CREATE TABLE IF NOT EXISTS update_points (
		id TEXT PRIMARY KEY,
		tree_key TEXT NOT NULL,
		tree_name TEXT NOT NULL DEFAULT '',
		data_point_name TEXT NOT NULL,
		criticality TEXT NOT NULL,
		update_category TEXT NOT NULL,
		variable_key TEXT REFERENCES variables(key),
		current_value TEXT NOT NULL DEFAULT '',
		auto_updateable INTEGER NOT NULL DEFAULT 0,
		verification_url TEXT NOT NULL DEFAULT '',
		last_verified INTEGER,
		next_verification_due INTEGER NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		version INTEGER NOT NULL DEFAULT 1,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_update_points_due ON update_points(next_verification_due);
	CREATE INDEX IF NOT EXISTS idx_update_points_group ON update_points(update_category, criticality);
	CREATE INDEX IF NOT EXISTS idx_update_points_variable ON update_points(variable_key);

	-- Audit log (tracks all actions)
	CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		action TEXT NOT NULL,
		subject_id TEXT,
		details TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_audit_log_subject ON audit_log(subject_id);
	CREATE INDEX IF NOT EXISTS idx_audit_log_action ON audit_log(action);
	`

	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

func toNanos(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func nullNanos(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toNanos(*t), Valid: true}
}

func timePtr(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := fromNanos(n.Int64)
	return &t
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
