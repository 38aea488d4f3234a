package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements DefinitionStore using SQLite
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a definition store at the given path.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// WAL keeps definition reads cheap while the gateway writes
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS mcp_servers (
			name TEXT PRIMARY KEY,
			command TEXT NOT NULL,
			args TEXT NOT NULL DEFAULT '[]',
			env TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);
	`

	_, err := s.db.Exec(schema)

	return err
}

// ListDefinitions returns every persisted definition, ordered by name.
func (s *SQLiteStore) ListDefinitions(ctx context.Context) ([]Definition, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name, command, args, env FROM mcp_servers ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("querying definitions: %w", err)
	}
	defer rows.Close()

	var defs []Definition

	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			return nil, err
		}

		defs = append(defs, def)
	}

	return defs, rows.Err()
}

// GetDefinition returns the definition for name, or ErrNotFound.
func (s *SQLiteStore) GetDefinition(ctx context.Context, name string) (Definition, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT name, command, args, env FROM mcp_servers WHERE name = ?", name)

	def, err := scanDefinition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Definition{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	return def, err
}

// SaveDefinition inserts or replaces the definition for def.Name.
func (s *SQLiteStore) SaveDefinition(ctx context.Context, def Definition) error {
	args, err := json.Marshal(def.Args)
	if err != nil {
		return fmt.Errorf("serializing args: %w", err)
	}

	env, err := json.Marshal(def.Env)
	if err != nil {
		return fmt.Errorf("serializing env: %w", err)
	}

	now := time.Now().UTC()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO mcp_servers (name, command, args, env, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			command = excluded.command,
			args = excluded.args,
			env = excluded.env,
			updated_at = excluded.updated_at`,
		def.Name, def.Command, string(args), string(env), now, now)
	if err != nil {
		return fmt.Errorf("saving definition %q: %w", def.Name, err)
	}

	return nil
}

// DeleteDefinition removes the definition for name, or returns ErrNotFound.
func (s *SQLiteStore) DeleteDefinition(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM mcp_servers WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("deleting definition %q: %w", name, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDefinition(row rowScanner) (Definition, error) {
	var def Definition
	var argsJSON, envJSON string

	if err := row.Scan(&def.Name, &def.Command, &argsJSON, &envJSON); err != nil {
		return Definition{}, err
	}

	if err := json.Unmarshal([]byte(argsJSON), &def.Args); err != nil {
		return Definition{}, fmt.Errorf("parsing args for %q: %w", def.Name, err)
	}

	if err := json.Unmarshal([]byte(envJSON), &def.Env); err != nil {
		return Definition{}, fmt.Errorf("parsing env for %q: %w", def.Name, err)
	}

	return def, nil
}
