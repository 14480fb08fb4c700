package db

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	path string
	conn *sql.DB
}

func NewSQLite(path string) *SQLite {
	return &SQLite{
		path: path,
	}
}

func (s *SQLite) InitDB() error {
	var err error
	// Immediate transactions take the write lock up front so concurrent
	// writers serialise instead of failing on lock upgrade.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_txlock=immediate&_journal_mode=WAL", escapePath(s.path))
	s.conn, err = sql.Open(string(DialectSQLite), dsn)
	if err != nil {
		return err
	}

	res, err := s.conn.Exec(Schema(DialectSQLite))
	if err != nil {
		return fmt.Errorf("error creating drafts table: %w", err)
	}

	dbLogger.Info().Str("path", s.path).Any("db_result", res).Msg("Database initialized")
	return nil
}

func (s *SQLite) Get() *sql.DB {
	return s.conn
}

func (s *SQLite) Dialect() Dialect {
	return DialectSQLite
}

func (s *SQLite) Close() error {
	if s.conn != nil {
		err := s.conn.Close()
		s.conn = nil
		return err
	}
	return nil
}

var pathEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

// escapePath keeps URI delimiters in a file name from being read as the
// start of the query or fragment.
func escapePath(path string) string {
	return pathEscaper.Replace(path)
}
