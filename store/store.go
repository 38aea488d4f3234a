package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no definition exists for a requested name
var ErrNotFound = errors.New("definition not found")

// Definition describes how to launch one tool server. It is supplied at
// start time and immutable for the lifetime of a session; the bridge only
// borrows it to spawn.
type Definition struct {
	Name    string            `json:"name"`
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// DefinitionStore persists tool server definitions keyed by server name.
// The bridge core never writes definitions; writes come from the gateway's
// definition CRUD endpoints.
type DefinitionStore interface {
	ListDefinitions(ctx context.Context) ([]Definition, error)
	GetDefinition(ctx context.Context, name string) (Definition, error)
	SaveDefinition(ctx context.Context, def Definition) error
	DeleteDefinition(ctx context.Context, name string) error
	Close() error
}
