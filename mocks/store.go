package mocks

import (
	"context"

	"rockerboo/mcp-bridge/store"

	"github.com/stretchr/testify/mock"
)

// MockDefinitionStore implements store.DefinitionStore for testing
type MockDefinitionStore struct {
	mock.Mock
}

func (m *MockDefinitionStore) ListDefinitions(ctx context.Context) ([]store.Definition, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]store.Definition), args.Error(1)
}

func (m *MockDefinitionStore) GetDefinition(ctx context.Context, name string) (store.Definition, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(store.Definition), args.Error(1)
}

func (m *MockDefinitionStore) SaveDefinition(ctx context.Context, def store.Definition) error {
	args := m.Called(ctx, def)
	return args.Error(0)
}

func (m *MockDefinitionStore) DeleteDefinition(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockDefinitionStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
