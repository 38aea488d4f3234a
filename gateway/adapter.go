package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rockerboo/mcp-bridge/interfaces"
	"rockerboo/mcp-bridge/session"
	"rockerboo/mcp-bridge/store"

	"github.com/mark3labs/mcp-go/mcp"
)

// ErrValidation marks a request rejected before reaching the bridge.
var ErrValidation = errors.New("invalid request")

// Adapter sits between the HTTP surface and the bridge registry. It resolves
// server definitions, validates inputs, and keeps the persistent definition
// store in sync with explicit start requests.
type Adapter struct {
	registry interfaces.BridgeRegistry
	defs     store.DefinitionStore
}

// NewAdapter wires the registry and definition store together.
func NewAdapter(registry interfaces.BridgeRegistry, defs store.DefinitionStore) *Adapter {
	return &Adapter{registry: registry, defs: defs}
}

// StartServer launches the named server. When def is nil the stored
// definition is used; when a definition is supplied it is persisted first so
// restarts pick it up.
func (a *Adapter) StartServer(ctx context.Context, name string, def *store.Definition) (session.Snapshot, error) {
	if err := validateName(name); err != nil {
		return session.Snapshot{}, err
	}

	if def == nil {
		stored, err := a.defs.GetDefinition(ctx, name)
		if err != nil {
			return session.Snapshot{}, err
		}

		def = &stored
	} else {
		def.Name = name

		if strings.TrimSpace(def.Command) == "" {
			return session.Snapshot{}, fmt.Errorf("%w: command is required", ErrValidation)
		}

		if err := a.defs.SaveDefinition(ctx, *def); err != nil {
			return session.Snapshot{}, err
		}
	}

	return a.registry.StartServer(ctx, name, *def)
}

// StopServer terminates the named server's process.
func (a *Adapter) StopServer(name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	return a.registry.StopServer(name)
}

// GetStatus reports one server's lifecycle state.
func (a *Adapter) GetStatus(name string) (session.Snapshot, error) {
	if err := validateName(name); err != nil {
		return session.Snapshot{}, err
	}

	return a.registry.GetStatus(name)
}

// ListStatuses reports every known server.
func (a *Adapter) ListStatuses() []session.Snapshot {
	return a.registry.ListStatuses()
}

// ListTools returns a running server's advertised tools.
func (a *Adapter) ListTools(name string) ([]mcp.Tool, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	return a.registry.ListTools(name)
}

// ExecuteTool forwards a tool invocation to a running server.
func (a *Adapter) ExecuteTool(ctx context.Context, name, tool string, args map[string]any) (*mcp.CallToolResult, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	if strings.TrimSpace(tool) == "" {
		return nil, fmt.Errorf("%w: tool name is required", ErrValidation)
	}

	return a.registry.ExecuteTool(ctx, name, tool, args)
}

// ListDefinitions returns every stored server definition.
func (a *Adapter) ListDefinitions(ctx context.Context) ([]store.Definition, error) {
	return a.defs.ListDefinitions(ctx)
}

// GetDefinition returns one stored server definition.
func (a *Adapter) GetDefinition(ctx context.Context, name string) (store.Definition, error) {
	if err := validateName(name); err != nil {
		return store.Definition{}, err
	}

	return a.defs.GetDefinition(ctx, name)
}

// SaveDefinition persists a server definition without starting it.
func (a *Adapter) SaveDefinition(ctx context.Context, def store.Definition) error {
	if err := validateName(def.Name); err != nil {
		return err
	}

	if strings.TrimSpace(def.Command) == "" {
		return fmt.Errorf("%w: command is required", ErrValidation)
	}

	return a.defs.SaveDefinition(ctx, def)
}

// DeleteDefinition removes a stored definition. A running server keeps
// running; only the persisted record is removed.
func (a *Adapter) DeleteDefinition(ctx context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	return a.defs.DeleteDefinition(ctx, name)
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: server name is required", ErrValidation)
	}

	return nil
}
