package sqliterepo

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	apperrors "github.com/jrsteele09/go-docs-auth/internal/errors"
	"github.com/jrsteele09/go-docs-auth/sessions"
)

const (
	dirPermissions = 0700
	busyTimeoutMS  = 5000
)

const schema = `CREATE TABLE IF NOT EXISTS session_values (
	origin TEXT NOT NULL,
	key    TEXT NOT NULL,
	value  TEXT NOT NULL,
	PRIMARY KEY (origin, key)
)`

var _ sessions.Repo = (*SQLiteRepo)(nil)

// SQLiteRepo stores session records in a SQLite table keyed by
// (origin, key).
type SQLiteRepo struct {
	db     *sql.DB
	origin string
}

// Open creates the database file and schema when missing.
func Open(path, origin string) (*SQLiteRepo, error) {
	if origin == "" {
		return nil, fmt.Errorf("origin is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), dirPermissions); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	connStr := dsn(path)
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening session database: %w", err)
	}
	// SQLite serialises writers; one connection avoids lock churn.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating session schema: %w", err)
	}
	return &SQLiteRepo{db: db, origin: origin}, nil
}

// dsn builds the connection URI for path. The path is escaped so that
// characters such as ? and # stay part of the file name.
func dsn(path string) string {
	segments := strings.Split(filepath.ToSlash(path), "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	u := url.URL{
		Scheme:   "file",
		Opaque:   strings.Join(segments, "/"),
		RawQuery: url.Values{"_busy_timeout": {strconv.Itoa(busyTimeoutMS)}}.Encode(),
	}
	return u.String()
}

func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepo) Set(key, value string) error {
	_, err := r.db.Exec(
		`INSERT INTO session_values (origin, key, value) VALUES (?, ?, ?)
		 ON CONFLICT (origin, key) DO UPDATE SET value = excluded.value`,
		r.origin, key, value,
	)
	if err != nil {
		return fmt.Errorf("storing %s: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepo) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow(
		`SELECT value FROM session_values WHERE origin = ? AND key = ?`,
		r.origin, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperrors.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", key, err)
	}
	return value, nil
}

func (r *SQLiteRepo) Remove(key string) error {
	if _, err := r.db.Exec(
		`DELETE FROM session_values WHERE origin = ? AND key = ?`,
		r.origin, key,
	); err != nil {
		return fmt.Errorf("removing %s: %w", key, err)
	}
	return nil
}
