package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"rockerboo/mcp-bridge/transport"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sourcegraph/jsonrpc2"
)

// MCP protocol method implementations.

type initializeParams struct {
	ProtocolVersion string                 `json:"protocolVersion"`
	Capabilities    mcp.ClientCapabilities `json:"capabilities"`
	ClientInfo      mcp.Implementation     `json:"clientInfo"`
}

type listToolsParams struct {
	Cursor string `json:"cursor,omitempty"`
}

type callToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// initialize performs the capability negotiation handshake and sends the
// initialized notification.
func (s *Session) initialize(ctx context.Context) (*mcp.InitializeResult, error) {
	params := initializeParams{
		ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
		Capabilities:    mcp.ClientCapabilities{},
		ClientInfo: mcp.Implementation{
			Name:    "mcp-bridge",
			Version: "1.0.0",
		},
	}

	var result mcp.InitializeResult
	if err := s.channel.Call(ctx, "initialize", params, &result, s.opts.StartTimeout); err != nil {
		return nil, err
	}

	if err := s.channel.Notify(ctx, "notifications/initialized", struct{}{}); err != nil {
		return nil, fmt.Errorf("failed to send initialized notification: %w", err)
	}

	return &result, nil
}

// discoverTools fetches the server's full tool list, following pagination
// cursors until exhausted.
func (s *Session) discoverTools(ctx context.Context) ([]mcp.Tool, error) {
	var tools []mcp.Tool
	var cursor string

	for {
		var result mcp.ListToolsResult

		err := s.channel.Call(ctx, "tools/list", listToolsParams{Cursor: cursor}, &result, s.opts.StartTimeout)
		if err != nil {
			return nil, err
		}

		tools = append(tools, result.Tools...)

		if result.NextCursor == "" {
			break
		}

		cursor = string(result.NextCursor)
	}

	return tools, nil
}

// callTool issues tools/call and maps transport and protocol failures to
// the session's error kinds.
func (s *Session) callTool(ctx context.Context, ch *transport.Channel, tool string, args map[string]any) (*mcp.CallToolResult, error) {
	params := callToolParams{Name: tool, Arguments: args}

	var raw json.RawMessage

	err := ch.Call(ctx, "tools/call", params, &raw, s.opts.CallTimeout)
	if err != nil {
		var rpcErr *jsonrpc2.Error
		if errors.As(err, &rpcErr) {
			upstream := &UpstreamError{
				Server:  s.name,
				Tool:    tool,
				Code:    rpcErr.Code,
				Message: rpcErr.Message,
			}
			if rpcErr.Data != nil {
				upstream.Data = *rpcErr.Data
			}

			return nil, upstream
		}

		if errors.Is(err, transport.ErrRequestTimeout) || errors.Is(err, transport.ErrTransportClosed) {
			return nil, fmt.Errorf("calling %q on server %q: %w", tool, s.name, err)
		}

		return nil, err
	}

	result, err := mcp.ParseCallToolResult(&raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse result of %q from server %q: %w", tool, s.name, err)
	}

	return result, nil
}
