package memory

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ShayCichocki/hive/pkg/models"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// SQLite driver names. DriverModernc is pure Go; DriverMattn needs cgo.
const (
	DriverModernc = "sqlite"
	DriverMattn   = "sqlite3"
)

// SQLiteStore keeps every worker's log in one SQLite database.
type SQLiteStore struct {
	conn *sql.DB
	path string
	mu   sync.RWMutex
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens the database at path with the given driver and applies
// pending migrations. Parent directories are created as needed.
func OpenSQLite(path, driver string) (*SQLiteStore, error) {
	if driver == "" {
		driver = DriverModernc
	}
	if driver != DriverModernc && driver != DriverMattn {
		return nil, fmt.Errorf("unsupported sqlite driver %q", driver)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open(driver, path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	s := &SQLiteStore{conn: conn, path: path}
	if err := s.Migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}

// Path returns the path to the database file.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Migrate applies all pending schema migrations.
func (s *SQLiteStore) Migrate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var current int
	if err := s.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migrationV1Conversations},
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		tx, err := s.conn.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration v%d: %w", m.version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration v%d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration v%d: %w", m.version, err)
		}
	}
	return nil
}

const migrationV1Conversations = `
CREATE TABLE IF NOT EXISTS conversations (
	agent TEXT NOT NULL,
	seq INTEGER NOT NULL,
	task TEXT NOT NULL,
	response TEXT NOT NULL,
	PRIMARY KEY (agent, seq)
);
`

// Load implements Store.
func (s *SQLiteStore) Load(name string) ([]models.ConversationEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.conn.Query(
		"SELECT task, response FROM conversations WHERE agent = ? ORDER BY seq", name)
	if err != nil {
		return nil, fmt.Errorf("query log %s: %w", name, err)
	}
	defer rows.Close()

	var log []models.ConversationEntry
	for rows.Next() {
		var e models.ConversationEntry
		if err := rows.Scan(&e.Task, &e.Response); err != nil {
			return nil, fmt.Errorf("scan log %s: %w", name, err)
		}
		log = append(log, e)
	}
	return log, rows.Err()
}

// Save implements Store. The agent's rows are replaced in one transaction.
func (s *SQLiteStore) Save(name string, log []models.ConversationEntry) error {
	if err := CheckName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM conversations WHERE agent = ?", name); err != nil {
		tx.Rollback()
		return fmt.Errorf("clear log %s: %w", name, err)
	}
	for i, e := range log {
		if _, err := tx.Exec(
			"INSERT INTO conversations (agent, seq, task, response) VALUES (?, ?, ?, ?)",
			name, i, e.Task, e.Response,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert log %s entry %d: %w", name, i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit log %s: %w", name, err)
	}
	return nil
}
