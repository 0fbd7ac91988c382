// internal/store/sqlite.go
//
// SQLite-backed Store.
// Responsibilities:
//   - Opening the database file with safe defaults (WAL, busy timeout).
//   - Applying the embedded migrations (idempotent, recorded in _migrations).
//   - Reading/writing the identifier slot scoped by API origin.
//
// Open failures are returned to the caller, who may fall back to memory.
// Once open, every failure is logged and treated as "no identifier".

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/numerito/apps/go-client/assets"
)

// SQLite stores the slot in a local database file.
type SQLite struct {
	db     *sql.DB
	origin string
}

// OpenSQLite opens (creating if missing) the database at path and migrates it.
func OpenSQLite(path, origin string) (*SQLite, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{db: db, origin: origin}, nil
}

// Close releases the database handle.
func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) Read(ctx context.Context) (string, bool) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM session_slot WHERE origin=? AND key=?`, s.origin, Key,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false
	}
	if err != nil {
		log.Warn().Err(err).Str("origin", s.origin).Msg("read session id")
		return "", false
	}
	return id, id != ""
}

func (s *SQLite) Write(ctx context.Context, id string) {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO session_slot (origin, key, value, updated_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(origin, key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		s.origin, Key, id, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		log.Warn().Err(err).Str("origin", s.origin).Msg("write session id")
	}
}

func (s *SQLite) Clear(ctx context.Context) {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM session_slot WHERE origin=? AND key=?`, s.origin, Key,
	); err != nil {
		log.Warn().Err(err).Str("origin", s.origin).Msg("clear session id")
	}
}

// openDB opens a SQLite database file, creating its parent directory for
// relative paths like ./data/numerito.db.
func openDB(dsn string) (*sql.DB, error) {
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", dsn+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	return db, nil
}

// migrate applies the embedded SQL migrations in lexical order, each inside
// its own transaction, skipping any already recorded in _migrations.
func migrate(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}

	files, err := assets.Migrations()
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	for _, f := range files {
		var done int
		err := db.QueryRow(`SELECT 1 FROM _migrations WHERE name=?`, f.Name).Scan(&done)
		if err == nil {
			log.Debug().Str("migration", f.Name).Msg("already applied")
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("query _migrations: %w", err)
		}

		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(f.Body)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", f.Name, err)
		}
		if _, err := tx.Exec(`INSERT INTO _migrations(name) VALUES (?)`, f.Name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", f.Name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", f.Name, err)
		}
		log.Debug().Str("migration", f.Name).Msg("applied")
	}
	return nil
}
