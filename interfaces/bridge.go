package interfaces

import (
	"context"

	"rockerboo/mcp-bridge/session"
	"rockerboo/mcp-bridge/store"

	"github.com/mark3labs/mcp-go/mcp"
)

// ServerSession is the per-server lifecycle surface the registry manages.
// Implemented by session.Session; faked in registry tests.
type ServerSession interface {
	Name() string
	Start(ctx context.Context) error
	AwaitReady(ctx context.Context) error
	Stop() error
	Status() session.Status
	Snapshot() session.Snapshot
	ListTools() ([]mcp.Tool, error)
	ExecuteTool(ctx context.Context, tool string, args map[string]any) (*mcp.CallToolResult, error)
}

// BridgeRegistry is the operation surface the gateway adapter consumes.
type BridgeRegistry interface {
	StartServer(ctx context.Context, name string, def store.Definition) (session.Snapshot, error)
	StopServer(name string) error
	GetStatus(name string) (session.Snapshot, error)
	ListStatuses() []session.Snapshot
	ListTools(name string) ([]mcp.Tool, error)
	ExecuteTool(ctx context.Context, name, tool string, args map[string]any) (*mcp.CallToolResult, error)
	ShutdownAll(ctx context.Context)
}
