package db

import (
	"database/sql"
	"fmt"
	"strings"
)

var remotePrefixes = []string{"libsql://", "http://", "https://", "ws://", "wss://"}

// Open opens a sqlite file (or ":memory:") or a remote libsql database and
// makes sure the schema exists.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("a database was not specified")
	}

	for _, prefix := range remotePrefixes {
		if strings.HasPrefix(dsn, prefix) {
			db, err := sql.Open("libsql", dsn)
			if err != nil {
				return nil, err
			}
			return db, migrate(db)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// sqlite only allows one writer at a time
	db.SetMaxOpenConns(1)
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, migrate(db)
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(Schema)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}
