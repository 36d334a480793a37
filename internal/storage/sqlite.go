package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ValGrace/shelly/internal/errors"
	"github.com/ValGrace/shelly/internal/logging"
	"github.com/ValGrace/shelly/pkg/history"
)

// SQLiteStore implements the history store on top of SQLite
type SQLiteStore struct {
	dbPath string
	db     *sql.DB
	now    func() time.Time
}

// NewSQLiteStore creates a new SQLite store
func NewSQLiteStore(dbPath string) *SQLiteStore {
	return &SQLiteStore{
		dbPath: dbPath,
		now:    time.Now,
	}
}

// Initialize opens the database connection and creates tables if needed
func (s *SQLiteStore) Initialize() error {
	if s.db != nil {
		return nil
	}

	if filepath.Dir(s.dbPath) != "." {
		if err := os.MkdirAll(filepath.Dir(s.dbPath), 0755); err != nil {
			return errors.NewStorageError("failed to create storage directory", err)
		}
	}

	db, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return errors.NewStorageError("failed to open database", err).WithContext("path", s.dbPath)
	}

	// A single CLI invocation never needs more than a couple of connections
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s.db = db

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			logging.Debug("failed to set pragma %s: %v", pragma, err)
		}
	}

	if err := s.createTables(); err != nil {
		return errors.NewStorageError("failed to create tables", err)
	}

	if err := s.runMigrations(); err != nil {
		return errors.NewStorageError("failed to run migrations", err)
	}

	return nil
}

// createTables creates the necessary database tables and indexes
func (s *SQLiteStore) createTables() error {
	createVersionTable := `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY, applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP)`

	if _, err := s.db.Exec(createVersionTable); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	// timestamp holds Unix nanoseconds so that ordering is numeric
	createEntriesTable := `
	CREATE TABLE IF NOT EXISTS entries (
		id TEXT PRIMARY KEY,
		command TEXT NOT NULL,
		exit_code INTEGER,
		timestamp INTEGER NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`

	if _, err := s.db.Exec(createEntriesTable); err != nil {
		return fmt.Errorf("failed to create entries table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_entries_timestamp ON entries(timestamp);",
		"CREATE INDEX IF NOT EXISTS idx_entries_command ON entries(command);",
	}

	for _, indexSQL := range indexes {
		if _, err := s.db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

// runMigrations applies database schema migrations
func (s *SQLiteStore) runMigrations() error {
	var currentVersion int
	err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{version: 1},
	}

	for _, migration := range migrations {
		if migration.version <= currentVersion {
			continue
		}
		if migration.sql != "" {
			if _, err := s.db.Exec(migration.sql); err != nil {
				return fmt.Errorf("failed to apply migration %d: %w", migration.version, err)
			}
		}
		if _, err := s.db.Exec("INSERT INTO schema_version (version) VALUES (?)", migration.version); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", migration.version, err)
		}
	}

	return nil
}

// Append stores an entry stamped with the current UTC time
func (s *SQLiteStore) Append(command string, exitCode *int) error {
	if s.db == nil {
		return errors.NewStorageError("database not initialized", nil)
	}

	entry := history.Entry{
		ID:        uuid.NewString(),
		Command:   command,
		ExitCode:  exitCode,
		Timestamp: s.now().UTC(),
	}
	if err := entry.Validate(); err != nil {
		return errors.NewValidationError("invalid history entry", err)
	}

	var code sql.NullInt64
	if exitCode != nil {
		code = sql.NullInt64{Int64: int64(*exitCode), Valid: true}
	}

	_, err := s.db.Exec(
		`INSERT INTO entries (id, command, exit_code, timestamp) VALUES (?, ?, ?, ?)`,
		entry.ID, entry.Command, code, entry.Timestamp.UnixNano(),
	)
	if err != nil {
		return errors.NewStorageError("failed to save entry", err)
	}
	return nil
}

// ReadAll returns every entry, oldest first. Query failures read as empty.
func (s *SQLiteStore) ReadAll() []history.Entry {
	if s.db == nil {
		return []history.Entry{}
	}

	rows, err := s.db.Query(`
	SELECT id, command, exit_code, timestamp
	FROM entries
	ORDER BY timestamp ASC, rowid ASC`)
	if err != nil {
		logging.Debug("failed to read entries: %v", err)
		return []history.Entry{}
	}
	defer rows.Close()

	entries, err := s.scanEntries(rows)
	if err != nil {
		logging.Debug("failed to scan entries: %v", err)
		return []history.Entry{}
	}
	return entries
}

// Search finds entries whose command contains pattern, case-insensitively
func (s *SQLiteStore) Search(pattern string) ([]history.Entry, error) {
	if s.db == nil {
		return nil, errors.NewStorageError("database not initialized", nil)
	}

	rows, err := s.db.Query(`
	SELECT id, command, exit_code, timestamp
	FROM entries
	WHERE command LIKE ? ESCAPE '\'
	ORDER BY timestamp ASC, rowid ASC`, "%"+escapeLike(pattern)+"%")
	if err != nil {
		return nil, errors.NewStorageError("failed to search entries", err)
	}
	defer rows.Close()

	return s.scanEntries(rows)
}

// Prune deletes entries outside the retention policy
func (s *SQLiteStore) Prune(policy RetentionPolicy) (int, error) {
	if s.db == nil {
		return 0, errors.NewStorageError("database not initialized", nil)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, errors.NewStorageError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	var removed int64
	if policy.MaxAge > 0 {
		cutoff := s.now().Add(-policy.MaxAge).UnixNano()
		res, err := tx.Exec("DELETE FROM entries WHERE timestamp < ?", cutoff)
		if err != nil {
			return 0, errors.NewStorageError("failed to delete old entries", err)
		}
		n, _ := res.RowsAffected()
		removed += n
	}

	if policy.MaxEntries > 0 {
		res, err := tx.Exec(`
		DELETE FROM entries WHERE id NOT IN (
			SELECT id FROM entries ORDER BY timestamp DESC, rowid DESC LIMIT ?
		)`, policy.MaxEntries)
		if err != nil {
			return 0, errors.NewStorageError("failed to trim entries", err)
		}
		n, _ := res.RowsAffected()
		removed += n
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.NewStorageError("failed to commit prune", err)
	}

	if removed > 0 {
		if err := s.OptimizeDatabase(); err != nil {
			logging.Debug("optimize after prune failed: %v", err)
		}
	}
	return int(removed), nil
}

// OptimizeDatabase reclaims space and refreshes query statistics
func (s *SQLiteStore) OptimizeDatabase() error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	if _, err := s.db.Exec("VACUUM"); err != nil {
		return fmt.Errorf("failed to vacuum database: %w", err)
	}

	if _, err := s.db.Exec("ANALYZE"); err != nil {
		return fmt.Errorf("failed to analyze database: %w", err)
	}

	return nil
}

// GetDatabaseSize returns the size of the database file in bytes
func (s *SQLiteStore) GetDatabaseSize() (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	var pageCount, pageSize int64

	if err := s.db.QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return 0, fmt.Errorf("failed to get page count: %w", err)
	}

	if err := s.db.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return 0, fmt.Errorf("failed to get page size: %w", err)
	}

	return pageCount * pageSize, nil
}

// Close closes the storage connection
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) scanEntries(rows *sql.Rows) ([]history.Entry, error) {
	entries := []history.Entry{}
	for rows.Next() {
		var (
			entry history.Entry
			code  sql.NullInt64
			nanos int64
		)
		if err := rows.Scan(&entry.ID, &entry.Command, &code, &nanos); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		if code.Valid {
			entry.ExitCode = history.IntPtr(int(code.Int64))
		}
		entry.Timestamp = time.Unix(0, nanos).UTC()
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func escapeLike(pattern string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(pattern)
}
