package store

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"powerapi-backend/internal/db"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

type DatabaseConfig struct {
	// File is a local sqlite database, ":memory:" works too.
	File string `json:"file"`
	// Url is a remote libsql database, ex. libsql://name.turso.io, it takes
	// priority over File.
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

func isRemote(dsn string) bool {
	return strings.HasPrefix(dsn, "libsql://") ||
		strings.HasPrefix(dsn, "https://") ||
		strings.HasPrefix(dsn, "http://") ||
		strings.HasPrefix(dsn, "wss://") ||
		strings.HasPrefix(dsn, "ws://")
}

// OpenDB opens the configured database and makes sure the schema exists.
func OpenDB(config DatabaseConfig) (*sql.DB, error) {
	database, err := open(config)
	if err != nil {
		return nil, err
	}
	_, err = database.Exec(db.Schema)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return database, nil
}

func open(config DatabaseConfig) (*sql.DB, error) {
	if config.Url != "" {
		if !isRemote(config.Url) {
			return nil, fmt.Errorf("unsupported database url %q", config.Url)
		}
		dsn := config.Url
		if config.AuthToken != "" {
			parsed, err := url.Parse(dsn)
			if err != nil {
				return nil, err
			}
			query := parsed.Query()
			query.Set("authToken", config.AuthToken)
			parsed.RawQuery = query.Encode()
			dsn = parsed.String()
		}
		return sql.Open("libsql", dsn)
	}

	if config.File == "" {
		return nil, fmt.Errorf("a database file or url was not specified")
	}

	dbpath := config.File
	if dbpath != ":memory:" {
		err := os.MkdirAll(filepath.Dir(dbpath), 0755)
		if err != nil {
			return nil, err
		}
	}

	database, err := sql.Open("sqlite", dbpath)
	if err != nil {
		return nil, err
	}
	// sqlite only supports a single writer at a time
	database.SetMaxOpenConns(1)
	if dbpath != ":memory:" {
		_, err = database.Exec("PRAGMA journal_mode=WAL")
		if err != nil {
			database.Close()
			return nil, err
		}
	}
	return database, nil
}
