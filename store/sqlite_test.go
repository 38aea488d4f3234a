package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "bridge.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func TestDefinitionRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	def := Definition{
		Name:    "fs",
		Command: "fs-server",
		Args:    []string{"--root", "/data"},
		Env:     map[string]string{"LOG_LEVEL": "debug"},
	}

	require.NoError(t, s.SaveDefinition(ctx, def))

	got, err := s.GetDefinition(ctx, "fs")
	require.NoError(t, err)
	assert.Equal(t, def, got)
}

func TestGetMissingDefinition(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetDefinition(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveOverwritesExisting(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveDefinition(ctx, Definition{Name: "fs", Command: "old-server"}))
	require.NoError(t, s.SaveDefinition(ctx, Definition{Name: "fs", Command: "new-server", Args: []string{"-v"}}))

	got, err := s.GetDefinition(ctx, "fs")
	require.NoError(t, err)
	assert.Equal(t, "new-server", got.Command)
	assert.Equal(t, []string{"-v"}, got.Args)
}

func TestListDefinitionsOrdered(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"zeta", "alpha", "mike"} {
		require.NoError(t, s.SaveDefinition(ctx, Definition{Name: name, Command: name + "-server"}))
	}

	defs, err := s.ListDefinitions(ctx)
	require.NoError(t, err)
	require.Len(t, defs, 3)
	assert.Equal(t, "alpha", defs[0].Name)
	assert.Equal(t, "mike", defs[1].Name)
	assert.Equal(t, "zeta", defs[2].Name)
}

func TestDeleteDefinition(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveDefinition(ctx, Definition{Name: "fs", Command: "fs-server"}))
	require.NoError(t, s.DeleteDefinition(ctx, "fs"))

	_, err := s.GetDefinition(ctx, "fs")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.DeleteDefinition(ctx, "fs"), ErrNotFound)
}

func TestPersistenceAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bridge.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveDefinition(ctx, Definition{Name: "fs", Command: "fs-server"}))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetDefinition(ctx, "fs")
	require.NoError(t, err)
	assert.Equal(t, "fs-server", got.Command)
}
