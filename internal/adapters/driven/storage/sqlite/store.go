package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/msantosh308/ai-chrome-assistant/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/msantosh308/ai-chrome-assistant/internal/core/domain"
	"github.com/msantosh308/ai-chrome-assistant/internal/core/ports/driven"
)

// DatabaseFile is the name of the database inside the data directory.
const DatabaseFile = "pagechat.db"

var _ driven.ConversationStore = (*Store)(nil)

// Store is a SQLite-backed conversation store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store in the specified data directory.
// If dataDir is empty, defaults to ~/.pagechat/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".pagechat", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single writer connection keeps the version check and update atomic.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate applies every pending NNN_name.up.sql file in order.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning migration %s: %w", name, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", name, err)
		}
	}

	return nil
}

// Load returns the history for key, or an empty history at version 0.
func (s *Store) Load(ctx context.Context, key string) (*domain.History, error) {
	h := &domain.History{Key: key}

	err := s.db.QueryRowContext(ctx, "SELECT version FROM conversations WHERE key = ?", key).Scan(&h.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return h, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading conversation: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, role, content, timestamp, type, spec, summary, is_html
		FROM messages WHERE conversation_key = ? ORDER BY seq
	`, key)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		h.Messages = append(h.Messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}
	return h, nil
}

// Append adds messages if the stored version equals expectedVersion.
func (s *Store) Append(ctx context.Context, key string, expectedVersion int64, msgs ...domain.ChatMessage) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning append: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var current int64
	err = tx.QueryRowContext(ctx, "SELECT version FROM conversations WHERE key = ?", key).Scan(&current)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		current = 0
	case err != nil:
		return 0, fmt.Errorf("reading version: %w", err)
	}
	if current != expectedVersion {
		return current, domain.ErrVersionConflict
	}

	now := time.Now().UTC()
	next := current + 1
	var res sql.Result
	if current == 0 {
		res, err = tx.ExecContext(ctx, `
			INSERT INTO conversations (key, version, created_at, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(key) DO NOTHING
		`, key, next, now, now)
	} else {
		res, err = tx.ExecContext(ctx, `
			UPDATE conversations SET version = ?, updated_at = ?
			WHERE key = ? AND version = ?
		`, next, now, key, current)
	}
	if err != nil {
		return 0, fmt.Errorf("bumping version: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return current, domain.ErrVersionConflict
	}

	var seq int64
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(seq), 0) FROM messages WHERE conversation_key = ?", key).Scan(&seq); err != nil {
		return 0, fmt.Errorf("reading sequence: %w", err)
	}

	for _, msg := range msgs {
		seq++
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO messages (conversation_key, seq, id, role, content, timestamp, type, spec, summary, is_html)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, key, seq, msg.ID, string(msg.Role), msg.Content, msg.Timestamp,
			string(msg.Type), nullSpec(msg.Spec), msg.Summary, msg.IsHTML); err != nil {
			return 0, fmt.Errorf("inserting message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing append: %w", err)
	}
	return next, nil
}

// Clear deletes the conversation and its messages.
func (s *Store) Clear(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM conversations WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("clearing conversation: %w", err)
	}
	return nil
}

// Keys lists conversation keys, most recently updated first.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key FROM conversations ORDER BY updated_at DESC, key")
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func scanMessage(rows *sql.Rows) (domain.ChatMessage, error) {
	var msg domain.ChatMessage
	var role, typ string
	var spec sql.NullString
	if err := rows.Scan(&msg.ID, &role, &msg.Content, &msg.Timestamp, &typ,
		&spec, &msg.Summary, &msg.IsHTML); err != nil {
		return msg, fmt.Errorf("scanning message: %w", err)
	}
	msg.Role = domain.Role(role)
	msg.Type = domain.ResultType(typ)
	if spec.Valid && spec.String != "" {
		msg.Spec = json.RawMessage(spec.String)
	}
	return msg, nil
}

func nullSpec(spec json.RawMessage) sql.NullString {
	if len(spec) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(spec), Valid: true}
}
