// Package sqlite provides a SQLite implementation of the journal.Journal
// interface for durable save-attempt history.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/c0deZ3R0/go-autosave-kit/journal"
	"github.com/c0deZ3R0/go-autosave-kit/logging"

	// Go SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

// Operation constants for consistent error reporting
const (
	opRecord = "sqlite.Record"
	opList   = "sqlite.List"
	opPrune  = "sqlite.Prune"
)

// ErrStoreClosed is returned by operations on a closed store.
var ErrStoreClosed = errors.New("journal store is closed")

// Config holds configuration options for the SQLite journal.
//
// Production-ready defaults are applied by DefaultConfig() including:
//   - WAL mode enabled for better concurrency
//   - Connection pool with 25 max open, 5 max idle connections
//   - Connection lifetimes of 1 hour max, 5 minutes max idle
type Config struct {
	// DataSourceName is the connection string for the SQLite database.
	DataSourceName string

	// EnableWAL enables Write-Ahead Logging mode for better concurrency.
	// When true, automatically appends "?_journal_mode=WAL" to
	// DataSourceName.
	EnableWAL bool

	// TableName is the name of the table to store attempts.
	// Defaults to "save_attempts" if empty.
	TableName string

	// Connection pool settings for production workloads.
	// Defaults: MaxOpen=25, MaxIdle=5, Lifetime=1h, IdleTime=5m
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// setDefaults applies default values to the config
func (c *Config) setDefaults() {
	if c.TableName == "" {
		c.TableName = "save_attempts"
	}
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 25
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 5
	}
	if c.ConnMaxLifetime == 0 {
		c.ConnMaxLifetime = time.Hour
	}
	if c.ConnMaxIdleTime == 0 {
		c.ConnMaxIdleTime = 5 * time.Minute
	}
	if c.EnableWAL {
		if !strings.Contains(c.DataSourceName, "?_journal_mode=") {
			c.DataSourceName += "?_journal_mode=WAL"
		}
	}
}

// DefaultConfig returns a Config with production-ready defaults.
func DefaultConfig(dataSourceName string) *Config {
	config := &Config{
		DataSourceName: dataSourceName,
		EnableWAL:      true,
	}
	config.setDefaults()
	return config
}

// Store implements journal.Journal on top of SQLite.
type Store struct {
	db        *sql.DB
	mu        sync.RWMutex
	closed    bool
	tableName string
	logger    *logging.Logger
}

// Compile-time check to ensure Store satisfies the Journal interface
var _ journal.Journal = (*Store)(nil)

// Open creates a Store from a Config. If config is nil an error is
// returned; use DefaultConfig for sensible defaults.
func Open(config *Config) (*Store, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	config.setDefaults()

	if config.DataSourceName == "" {
		return nil, fmt.Errorf("DataSourceName is required")
	}

	logger := logging.WithComponent("sqlite-journal")
	logger.Debug("opening sqlite journal",
		"data_source", config.DataSourceName,
		"wal_enabled", config.EnableWAL,
	)

	db, err := sql.Open("sqlite3", config.DataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to sqlite database: %w", err)
	}

	store := &Store{
		db:        db,
		tableName: config.TableName,
		logger:    logger,
	}

	if err := store.setupSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to setup database schema: %w", err)
	}

	logger.Info("sqlite journal initialized", "table_name", config.TableName)
	return store, nil
}

// OpenWithDataSource is a convenience constructor
func OpenWithDataSource(dataSourceName string) (*Store, error) {
	return Open(DefaultConfig(dataSourceName))
}

func (s *Store) setupSchema() error {
	query := fmt.Sprintf(`
    CREATE TABLE IF NOT EXISTS %s (
        seq          INTEGER PRIMARY KEY AUTOINCREMENT,
        id           TEXT NOT NULL UNIQUE,
        attempted_at TIMESTAMP NOT NULL,
        trigger_kind TEXT NOT NULL,
        paths        TEXT,
        ok           INTEGER NOT NULL,
        version      TEXT,
        error        TEXT,
        code         TEXT,
        duration_ns  INTEGER NOT NULL DEFAULT 0
    );
    CREATE INDEX IF NOT EXISTS idx_%s_attempted_at ON %s (attempted_at);
    CREATE INDEX IF NOT EXISTS idx_%s_ok ON %s (ok);
    `, s.tableName, s.tableName, s.tableName, s.tableName, s.tableName)
	_, err := s.db.Exec(query)
	return err
}

// Record appends one attempt.
func (s *Store) Record(ctx context.Context, attempt journal.Attempt) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return fmt.Errorf("%s: %w", opRecord, ErrStoreClosed)
	}

	paths, err := json.Marshal(attempt.Paths)
	if err != nil {
		return fmt.Errorf("%s: marshal paths: %w", opRecord, err)
	}

	query := fmt.Sprintf(`INSERT INTO %s
        (id, attempted_at, trigger_kind, paths, ok, version, error, code, duration_ns)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.tableName)
	_, err = s.db.ExecContext(ctx, query,
		attempt.ID,
		attempt.Time.UTC().Format(time.RFC3339Nano),
		attempt.Trigger,
		string(paths),
		boolToInt(attempt.OK),
		attempt.Version,
		attempt.Error,
		attempt.Code,
		attempt.DurationNS,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", opRecord, err)
	}
	return nil
}

// List returns attempts matching the criteria, newest first.
func (s *Store) List(ctx context.Context, criteria journal.Criteria) ([]journal.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("%s: %w", opList, ErrStoreClosed)
	}

	var (
		where []string
		args  []any
	)
	if !criteria.Since.IsZero() {
		where = append(where, "attempted_at >= ?")
		args = append(args, criteria.Since.UTC().Format(time.RFC3339Nano))
	}
	if criteria.OnlyFailures {
		where = append(where, "ok = 0")
	}
	if criteria.Trigger != "" {
		where = append(where, "trigger_kind = ?")
		args = append(args, criteria.Trigger)
	}

	query := fmt.Sprintf(`SELECT id, attempted_at, trigger_kind, paths, ok, version, error, code, duration_ns
        FROM %s`, s.tableName)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq DESC"
	if criteria.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, criteria.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opList, err)
	}
	defer rows.Close()

	var out []journal.Attempt
	for rows.Next() {
		var (
			a        journal.Attempt
			at       string
			paths    sql.NullString
			ok       int
			version  sql.NullString
			errText  sql.NullString
			codeText sql.NullString
		)
		if err := rows.Scan(&a.ID, &at, &a.Trigger, &paths, &ok, &version, &errText, &codeText, &a.DurationNS); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", opList, err)
		}
		a.Time, err = time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, fmt.Errorf("%s: parse time %q: %w", opList, at, err)
		}
		if paths.Valid && paths.String != "" && paths.String != "null" {
			if err := json.Unmarshal([]byte(paths.String), &a.Paths); err != nil {
				return nil, fmt.Errorf("%s: unmarshal paths: %w", opList, err)
			}
		}
		a.OK = ok != 0
		a.Version = version.String
		a.Error = errText.String
		a.Code = codeText.String
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", opList, err)
	}
	return out, nil
}

// Prune drops attempts older than the cutoff.
func (s *Store) Prune(ctx context.Context, before time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, fmt.Errorf("%s: %w", opPrune, ErrStoreClosed)
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE attempted_at < ?", s.tableName)
	res, err := s.db.ExecContext(ctx, query, before.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", opPrune, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", opPrune, err)
	}
	s.logger.Debug("journal pruned", "removed", n, "before", before)
	return int(n), nil
}

// Close closes the underlying database. Close is idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
