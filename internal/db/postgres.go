package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

type Postgres struct {
	dsn  string
	conn *sql.DB

	// Retries bounds the connection attempts made by InitDB.
	Retries    int
	RetryDelay time.Duration
}

func NewPostgres(dsn string) *Postgres {
	return &Postgres{
		dsn:        dsn,
		Retries:    5,
		RetryDelay: 2 * time.Second,
	}
}

func (p *Postgres) InitDB() error {
	conn, err := sql.Open(string(DialectPostgres), p.dsn)
	if err != nil {
		return fmt.Errorf("error opening postgres connection: %w", err)
	}

	for i := 0; i < p.Retries; i++ {
		if err = conn.Ping(); err == nil {
			break
		}
		dbLogger.Info().Err(err).Int("attempt", i+1).Msg("Database connection failed, retrying")
		time.Sleep(p.RetryDelay)
	}
	if err != nil {
		conn.Close()
		return fmt.Errorf("could not connect to postgres after %d attempts: %w", p.Retries, err)
	}

	if _, err := conn.Exec(Schema(DialectPostgres)); err != nil {
		conn.Close()
		return fmt.Errorf("error creating drafts table: %w", err)
	}

	p.conn = conn
	dbLogger.Info().Msg("Successfully connected to the database")
	return nil
}

func (p *Postgres) Get() *sql.DB {
	return p.conn
}

func (p *Postgres) Dialect() Dialect {
	return DialectPostgres
}

func (p *Postgres) Close() error {
	if p.conn != nil {
		err := p.conn.Close()
		p.conn = nil
		return err
	}
	return nil
}
