package mocks

import (
	"context"

	"rockerboo/mcp-bridge/session"
	"rockerboo/mcp-bridge/store"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/mock"
)

// MockRegistry implements interfaces.BridgeRegistry for testing
type MockRegistry struct {
	mock.Mock
}

func (m *MockRegistry) StartServer(ctx context.Context, name string, def store.Definition) (session.Snapshot, error) {
	args := m.Called(ctx, name, def)
	return args.Get(0).(session.Snapshot), args.Error(1)
}

func (m *MockRegistry) StopServer(name string) error {
	args := m.Called(name)
	return args.Error(0)
}

func (m *MockRegistry) GetStatus(name string) (session.Snapshot, error) {
	args := m.Called(name)
	return args.Get(0).(session.Snapshot), args.Error(1)
}

func (m *MockRegistry) ListStatuses() []session.Snapshot {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}

	return args.Get(0).([]session.Snapshot)
}

func (m *MockRegistry) ListTools(name string) ([]mcp.Tool, error) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]mcp.Tool), args.Error(1)
}

func (m *MockRegistry) ExecuteTool(ctx context.Context, name, tool string, callArgs map[string]any) (*mcp.CallToolResult, error) {
	args := m.Called(ctx, name, tool, callArgs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*mcp.CallToolResult), args.Error(1)
}

func (m *MockRegistry) ShutdownAll(ctx context.Context) {
	m.Called(ctx)
}
