package session

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotRunning is returned for list/execute operations against a session
// that is not in the running state.
var ErrNotRunning = errors.New("server is not running")

// ErrToolNotFound is returned when the requested tool name is absent from
// the session's discovered tool list.
var ErrToolNotFound = errors.New("tool not found")

// SpawnError reports that the server's executable could not be launched.
type SpawnError struct {
	Server string
	Err    error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn server %q: %v", e.Server, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// HandshakeError reports that the MCP initialization handshake did not
// complete. The partially-started process has been killed.
type HandshakeError struct {
	Server string
	Err    error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("initialization handshake with server %q failed: %v", e.Server, e.Err)
}

func (e *HandshakeError) Unwrap() error { return e.Err }

// DiscoveryError reports that tool discovery failed after a successful
// handshake. The process has been killed.
type DiscoveryError struct {
	Server string
	Err    error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("tool discovery on server %q failed: %v", e.Server, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// UpstreamError carries a protocol-level error object returned by the tool
// server, passed through to the caller verbatim.
type UpstreamError struct {
	Server  string
	Tool    string
	Code    int64
	Message string
	Data    json.RawMessage
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("server %q returned error %d calling %q: %s", e.Server, e.Code, e.Tool, e.Message)
}
