// Package tokenstore persists website session tokens between runs so
// tools don't have to redo the login handshake (and burn a login event)
// every time they start.
package tokenstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	_ "embed"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

var ErrNotFound = errors.New("no stored session token")

type Config struct {
	// path of a local sqlite database
	File string `json:"file"`
	// url of a remote libsql database; takes precedence over File
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

// OpenDB opens the configured database and makes sure the schema exists.
func OpenDB(config Config) (*sql.DB, error) {
	if config.Url != "" {
		u, err := url.Parse(config.Url)
		if err != nil {
			return nil, err
		}
		if config.AuthToken != "" {
			q := u.Query()
			q.Set("authToken", config.AuthToken)
			u.RawQuery = q.Encode()
		}
		db, err := sql.Open("libsql", u.String())
		if err != nil {
			return nil, err
		}
		return initDB(db)
	}

	if config.File == "" {
		return nil, fmt.Errorf("a database file or url was not specified")
	}
	db, err := sql.Open("sqlite", config.File)
	if err != nil {
		return nil, err
	}
	// see this stackoverflow post for information on why the following
	// lines exist: https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, err
	}
	return initDB(db)
}

func initDB(db *sql.DB) (*sql.DB, error) {
	if _, err := db.Exec(Schema); err != nil {
		return nil, err
	}
	return db, nil
}

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) Store {
	return Store{db: db}
}

func (s Store) Put(ctx context.Context, email, token string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session_tokens (email, token, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (email) DO UPDATE
		SET token = excluded.token, updated_at = excluded.updated_at`,
		email, token, time.Now().Unix(),
	)
	return err
}

func (s Store) Get(ctx context.Context, email string) (string, error) {
	var token string
	err := s.db.QueryRowContext(ctx,
		"SELECT token FROM session_tokens WHERE email = ?", email,
	).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

func (s Store) Delete(ctx context.Context, email string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM session_tokens WHERE email = ?", email)
	return err
}
