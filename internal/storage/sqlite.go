package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/mimir/internal/apperr"
	"github.com/starford/mimir/internal/checksum"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS files (
	user_id    TEXT NOT NULL,
	path       TEXT NOT NULL,
	content    BLOB NOT NULL,
	checksum   TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (user_id, path)
);
`

// ErrChecksumMismatch reports a stored blob whose content no longer matches
// the checksum recorded when it was written.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// Ensure SQLite implements the interface.
var _ Provider = (*SQLite)(nil)

// SQLite is a Provider that keeps every note as a blob row, for deployments
// without a writable vault directory.
type SQLite struct {
	conn *sql.DB
}

// OpenSQLite opens (or creates) the SQLite database and applies the schema.
func OpenSQLite(dsn string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("storage: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: ping: %w", err)
	}
	if _, err := conn.Exec(sqliteSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: apply schema: %w", err)
	}
	return &SQLite{conn: conn}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}

func (s *SQLite) Read(ctx context.Context, userID, path string) ([]byte, error) {
	p, err := s.key(userID, path)
	if err != nil {
		return nil, err
	}
	var (
		data []byte
		sum  string
	)
	err = s.conn.QueryRowContext(ctx,
		`SELECT content, checksum FROM files WHERE user_id = ? AND path = ?`, userID, p).Scan(&data, &sum)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("storage: read %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	if data == nil {
		data = []byte{}
	}
	// Rows written outside this backend may carry no checksum.
	if sum != "" && sum != checksum.Sum(data) {
		return nil, fmt.Errorf("storage: read %s: %w", path, ErrChecksumMismatch)
	}
	return data, nil
}

func (s *SQLite) Write(ctx context.Context, userID, path string, content []byte) error {
	p, err := s.key(userID, path)
	if err != nil {
		return err
	}
	if content == nil {
		content = []byte{}
	}
	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO files (user_id, path, content, checksum, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, path) DO UPDATE SET
			content    = excluded.content,
			checksum   = excluded.checksum,
			updated_at = excluded.updated_at
	`, userID, p, content, checksum.Sum(content), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("storage: write %s: %w", path, err)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, userID, path string) error {
	p, err := s.key(userID, path)
	if err != nil {
		return err
	}
	if _, err := s.conn.ExecContext(ctx,
		`DELETE FROM files WHERE user_id = ? AND path = ?`, userID, p); err != nil {
		return fmt.Errorf("storage: delete %s: %w", path, err)
	}
	return nil
}

func (s *SQLite) List(ctx context.Context, userID, dir string, recursive bool) ([]string, error) {
	if err := checkUser(userID); err != nil {
		return nil, err
	}
	d, err := cleanPath(dir)
	if err != nil {
		return nil, err
	}
	rows, err := s.conn.QueryContext(ctx,
		`SELECT path FROM files WHERE user_id = ? ORDER BY path`, userID)
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	defer rows.Close()
	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("storage: list: %w", err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	return children(paths, d, recursive), nil
}

func (s *SQLite) Exists(ctx context.Context, userID, path string) (bool, error) {
	p, err := s.key(userID, path)
	if err != nil {
		return false, err
	}
	var n int
	if err := s.conn.QueryRowContext(ctx,
		`SELECT count(*) FROM files WHERE user_id = ? AND path = ?`, userID, p).Scan(&n); err != nil {
		return false, fmt.Errorf("storage: exists %s: %w", path, err)
	}
	return n > 0, nil
}

func (s *SQLite) key(userID, path string) (string, error) {
	if err := checkUser(userID); err != nil {
		return "", err
	}
	return cleanFile(path)
}
