package gateway

import (
	"testing"

	"rockerboo/mcp-bridge/mocks"

	"github.com/stretchr/testify/assert"
)

func TestSetupMCPServer(t *testing.T) {
	adapter := NewAdapter(&mocks.MockRegistry{}, &mocks.MockDefinitionStore{})

	mcpServer := SetupMCPServer(adapter)
	assert.NotNil(t, mcpServer)
}
