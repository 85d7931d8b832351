package localstate

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	_ "github.com/mattn/go-sqlite3"
	"github.com/ondacomunitaria/radiotrivia/internal/quiz"
)

// SQLite persists viewer state in a single kv table so viewers survive restarts.
type SQLite struct {
	conn *sql.DB
}

// OpenSQLite opens (and creates if needed) the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	if err = createTables(db); err != nil {
		return nil, err
	}
	return &SQLite{conn: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			ns TEXT NOT NULL,
			key TEXT NOT NULL,
			value BLOB NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (ns, key)
		)
	`)
	return err
}

func (db *SQLite) Close() error {
	return db.conn.Close()
}

func (db *SQLite) Namespace(ns string) quiz.LocalState {
	return &sqliteNS{conn: db.conn, ns: ns}
}

func (db *SQLite) Drop(ns string) error {
	_, err := db.conn.Exec("DELETE FROM kv WHERE ns = ?", ns)
	return err
}

type sqliteNS struct {
	conn *sql.DB
	ns   string
}

func (s *sqliteNS) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := s.conn.QueryRow("SELECT value FROM kv WHERE ns = ? AND key = ?", s.ns, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (s *sqliteNS) Set(key string, value []byte) error {
	_, err := s.conn.Exec(
		"INSERT OR REPLACE INTO kv (ns, key, value, updated_at) VALUES (?, ?, ?, ?)",
		s.ns, key, value, time.Now().Unix(),
	)
	return err
}

func (s *sqliteNS) Delete(key string) error {
	_, err := s.conn.Exec("DELETE FROM kv WHERE ns = ? AND key = ?", s.ns, key)
	return err
}

func (s *sqliteNS) Keys(prefix string) ([]string, error) {
	rows, err := s.conn.Query(
		"SELECT key FROM kv WHERE ns = ? AND substr(key, 1, ?) = ?",
		s.ns, utf8.RuneCountInString(prefix), prefix,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
