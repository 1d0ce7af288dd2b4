package engine

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - Initial schema (nodes table keyed by name + packed path)
const currentSchemaVersion = 1

// store is the write-through persistence layer behind the reference
// engine. Uses SQLite with WAL mode; the engine itself remains the
// authority on ordering, the store only holds bytes.
type store struct {
	db *sql.DB
}

// openStore creates or opens the node database at the given path,
// applying pragmas and schema migrations. Idempotent.
func openStore(path string) (*store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY under the bridge's serialized call discipline.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &store{db: db}, nil
}

func (s *store) close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// loadAll streams every persisted node to fn in unspecified order.
func (s *store) loadAll(fn func(name, packedPath, value string) error) error {
	rows, err := s.db.Query("SELECT name, path, value FROM nodes")
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var name, path, value string
		if err := rows.Scan(&name, &path, &value); err != nil {
			return err
		}
		if err := fn(name, path, value); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *store) upsert(name, packedPath, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO nodes (name, path, value) VALUES (?, ?, ?) ON CONFLICT(name, path) DO UPDATE SET value = excluded.value",
		name, packedPath, value,
	)
	return err
}

func (s *store) delete(name, packedPath string) error {
	_, err := s.db.Exec("DELETE FROM nodes WHERE name = ? AND path = ?", name, packedPath)
	return err
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version < currentSchemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}
	return nil
}
