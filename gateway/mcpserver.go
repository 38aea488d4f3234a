package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"rockerboo/mcp-bridge/logger"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// SetupMCPServer exposes the bridge itself as an MCP server, so MCP clients
// can manage and call the supervised tool servers through one endpoint.
func SetupMCPServer(adapter *Adapter) *server.MCPServer {
	hooks := &server.Hooks{}

	hooks.AddBeforeAny(func(ctx context.Context, id any, method mcp.MCPMethod, message any) {
		logger.Debug("beforeAny:", method, id)
	})
	hooks.AddOnError(func(ctx context.Context, id any, method mcp.MCPMethod, message any, err error) {
		logger.Error("onError:", method, id, err)
	})

	mcpServer := server.NewMCPServer(
		"mcp-bridge",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithLogging(),
		server.WithHooks(hooks),
		server.WithInstructions(`This MCP server manages a fleet of stdio tool servers. List the
managed servers with list_servers, inspect a server's tools with
list_server_tools, and invoke a tool on a server with call_server_tool.`),
	)

	registerListServersTool(mcpServer, adapter)
	registerListServerToolsTool(mcpServer, adapter)
	registerCallServerToolTool(mcpServer, adapter)

	return mcpServer
}

// registerListServersTool registers the list_servers tool
func registerListServersTool(mcpServer *server.MCPServer, adapter *Adapter) {
	mcpServer.AddTool(mcp.NewTool("list_servers",
		mcp.WithDescription("List all managed tool servers and their status"),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		payload, err := json.MarshalIndent(adapter.ListStatuses(), "", "  ")
		if err != nil {
			logger.Error("list_servers: encoding failed", err)
			return mcp.NewToolResultError(err.Error()), nil
		}

		return mcp.NewToolResultText(string(payload)), nil
	})
}

// registerListServerToolsTool registers the list_server_tools tool
func registerListServerToolsTool(mcpServer *server.MCPServer, adapter *Adapter) {
	mcpServer.AddTool(mcp.NewTool("list_server_tools",
		mcp.WithDescription("List the tools advertised by a running server"),
		mcp.WithString("server", mcp.Description("Name of the managed server")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		serverName, err := request.RequireString("server")
		if err != nil {
			logger.Error("list_server_tools: server parsing failed", err)
			return mcp.NewToolResultError(err.Error()), nil
		}

		tools, err := adapter.ListTools(serverName)
		if err != nil {
			logger.Error("list_server_tools: listing failed", err)
			return mcp.NewToolResultError(err.Error()), nil
		}

		payload, err := json.MarshalIndent(tools, "", "  ")
		if err != nil {
			logger.Error("list_server_tools: encoding failed", err)
			return mcp.NewToolResultError(err.Error()), nil
		}

		return mcp.NewToolResultText(string(payload)), nil
	})
}

// registerCallServerToolTool registers the call_server_tool tool
func registerCallServerToolTool(mcpServer *server.MCPServer, adapter *Adapter) {
	mcpServer.AddTool(mcp.NewTool("call_server_tool",
		mcp.WithDescription("Invoke a tool on a managed server and return its result"),
		mcp.WithString("server", mcp.Description("Name of the managed server")),
		mcp.WithString("tool", mcp.Description("Name of the tool to invoke")),
		mcp.WithObject("arguments", mcp.Description("Arguments to pass to the tool")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		serverName, err := request.RequireString("server")
		if err != nil {
			logger.Error("call_server_tool: server parsing failed", err)
			return mcp.NewToolResultError(err.Error()), nil
		}

		toolName, err := request.RequireString("tool")
		if err != nil {
			logger.Error("call_server_tool: tool parsing failed", err)
			return mcp.NewToolResultError(err.Error()), nil
		}

		var args map[string]any
		if raw, ok := request.GetArguments()["arguments"]; ok {
			args, ok = raw.(map[string]any)
			if !ok {
				return mcp.NewToolResultError("arguments must be an object"), nil
			}
		}

		result, err := adapter.ExecuteTool(ctx, serverName, toolName, args)
		if err != nil {
			logger.Error("call_server_tool: execution failed", err)
			return mcp.NewToolResultError(err.Error()), nil
		}

		logger.Info("call_server_tool: invoked",
			fmt.Sprintf("Server: %s, Tool: %s", serverName, toolName),
		)

		return result, nil
	})
}
