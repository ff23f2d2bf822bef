package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

const MEMORY = ":memory:"

type Options struct {
	// File is a local sqlite database, MEMORY keeps everything in memory.
	File string
	// Url of a remote libsql database, it takes precedence over File.
	Url       string
	AuthToken string
}

// OpenDB opens the configured database and makes sure the schema exists.
func OpenDB(ctx context.Context, opts Options) (*sql.DB, error) {
	database, err := open(opts)
	if err != nil {
		return nil, err
	}
	_, err = database.ExecContext(ctx, Schema)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return database, nil
}

func open(opts Options) (*sql.DB, error) {
	if opts.Url != "" {
		values := url.Values{}
		if opts.AuthToken != "" {
			values.Add("authToken", opts.AuthToken)
		}
		return sql.Open("libsql", opts.Url+"?"+values.Encode())
	}

	if opts.File == "" {
		return nil, fmt.Errorf("neither a database file nor url was specified")
	}
	if opts.File == MEMORY {
		database, err := sql.Open("sqlite", MEMORY)
		if err != nil {
			return nil, err
		}
		// every connection to :memory: is a separate database
		database.SetMaxOpenConns(1)
		return database, nil
	}
	// concurrent syncs write from several connections
	return sql.Open("sqlite", opts.File+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
}
