// Package database persists telemetry samples to Postgres. The store is
// optional: the service runs fully in-memory without it, and nothing in
// the core depends on samples surviving a restart.
package database

import (
	"context"
	"io"

	"github.com/jackc/pgx/v5"
)

type Database struct {
	conn *pgx.Conn
	io.Closer
}

func NewDatabase(conn *pgx.Conn) *Database {
	return &Database{
		conn: conn,
	}
}

func (db *Database) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close(context.Background())
}
