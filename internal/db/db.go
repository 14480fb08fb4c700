// Package db wraps the SQL connections backing the draft store.
package db

import (
	"database/sql"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

type DB interface {
	InitDB() error

	Get() *sql.DB
	Close() error

	Dialect() Dialect
}

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "postgres"
)

// Rebind rewrites '?' placeholders into the dialect's positional form.
func (d Dialect) Rebind(query string) string {
	if d != DialectPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var dbLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	dbLogger = l
}

// Wrap adopts an already opened connection. InitDB on the result only creates
// the schema.
func Wrap(conn *sql.DB, dialect Dialect) DB {
	return &wrapped{conn: conn, dialect: dialect}
}

type wrapped struct {
	conn    *sql.DB
	dialect Dialect
}

func (w *wrapped) InitDB() error {
	_, err := w.conn.Exec(Schema(w.dialect))
	return err
}

func (w *wrapped) Get() *sql.DB     { return w.conn }
func (w *wrapped) Close() error     { return w.conn.Close() }
func (w *wrapped) Dialect() Dialect { return w.dialect }

// Schema returns the DDL for the drafts table.
func Schema(d Dialect) string {
	if d == DialectPostgres {
		return `
CREATE TABLE IF NOT EXISTS drafts (
    id TEXT PRIMARY KEY,
    content BYTEA,
    fields TEXT,
    content_hash TEXT,
    saved_at TIMESTAMPTZ,
    compression TEXT
);`
	}

	return `
CREATE TABLE IF NOT EXISTS drafts (
    id TEXT PRIMARY KEY,
    content BLOB,
    fields TEXT,
    content_hash TEXT,
    saved_at DATETIME,
    compression TEXT
);`
}
