package session

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"rockerboo/mcp-bridge/logger"
	"rockerboo/mcp-bridge/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.InitWriter(io.Discard, "error")
	os.Exit(m.Run())
}

// helperDefinition builds a definition that re-executes the test binary as a
// scripted tool server.
func helperDefinition(scenario string) store.Definition {
	return store.Definition{
		Name:    "scripted",
		Command: os.Args[0],
		Args:    []string{"-test.run=TestHelperProcess", "--", scenario},
		Env:     map[string]string{"GO_WANT_HELPER_PROCESS": "1"},
	}
}

func testOptions() Options {
	return Options{
		StartTimeout: 5 * time.Second,
		CallTimeout:  5 * time.Second,
		StopGrace:    time.Second,
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := New("scripted", helperDefinition("server"), testOptions())

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	require.NoError(t, s.AwaitReady(context.Background()))
	assert.Equal(t, StatusRunning, s.Status())

	snap := s.Snapshot()
	assert.Equal(t, "scripted", snap.Name)
	assert.Equal(t, StatusRunning, snap.Status)
	assert.NotZero(t, snap.PID)
	assert.Equal(t, 2, snap.ToolCount) // discovery followed the pagination cursor

	tools, err := s.ListTools()
	require.NoError(t, err)
	require.Len(t, tools, 2)
	assert.Equal(t, "echo", tools[0].Name)
	assert.Equal(t, "fail", tools[1].Name)

	result, err := s.ExecuteTool(context.Background(), "echo", map[string]any{"message": "hello"})
	require.NoError(t, err)
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)

	require.NoError(t, s.Stop())
	assert.Equal(t, StatusStopped, s.Status())

	_, err = s.ExecuteTool(context.Background(), "echo", nil)
	assert.ErrorIs(t, err, ErrNotRunning)

	_, err = s.ListTools()
	assert.ErrorIs(t, err, ErrNotRunning)

	require.NoError(t, s.Stop()) // idempotent
}

func TestSessionUnknownToolRejectedLocally(t *testing.T) {
	s := New("scripted", helperDefinition("server"), testOptions())

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	_, err := s.ExecuteTool(context.Background(), "no_such_tool", nil)
	assert.ErrorIs(t, err, ErrToolNotFound)
}

func TestSessionUpstreamToolError(t *testing.T) {
	s := New("scripted", helperDefinition("server"), testOptions())

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	_, err := s.ExecuteTool(context.Background(), "fail", nil)
	require.Error(t, err)

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, int64(-32050), upstream.Code)
	assert.Equal(t, "tool exploded", upstream.Message)
	assert.Equal(t, "scripted", upstream.Server)
	assert.Equal(t, "fail", upstream.Tool)
}

func TestSessionSpawnFailure(t *testing.T) {
	def := store.Definition{Name: "ghost", Command: "/nonexistent/tool-server"}

	s := New("ghost", def, testOptions())

	err := s.Start(context.Background())
	require.Error(t, err)

	var spawnErr *SpawnError
	require.ErrorAs(t, err, &spawnErr)
	assert.Equal(t, StatusFailed, s.Status())

	// Awaiters observe the same outcome as the starter.
	assert.Equal(t, err, s.AwaitReady(context.Background()))

	snap := s.Snapshot()
	assert.NotEmpty(t, snap.LastError)
	assert.Zero(t, snap.ToolCount)
}

func TestSessionHandshakeFailure(t *testing.T) {
	s := New("scripted", helperDefinition("exit"), testOptions())

	err := s.Start(context.Background())
	require.Error(t, err)

	var handshakeErr *HandshakeError
	require.ErrorAs(t, err, &handshakeErr)
	assert.Equal(t, StatusFailed, s.Status())
}

func TestSessionProcessExitMarksFailed(t *testing.T) {
	s := New("scripted", helperDefinition("server"), testOptions())

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	_, err := s.ExecuteTool(context.Background(), "echo", map[string]any{"die": true})
	require.Error(t, err)

	require.Eventually(t, func() bool {
		return s.Status() == StatusFailed
	}, 3*time.Second, 20*time.Millisecond, "session never noticed the process exit")

	snap := s.Snapshot()
	assert.NotEmpty(t, snap.LastError)
}

func TestStatusMarshalJSON(t *testing.T) {
	payload, err := json.Marshal(Snapshot{Name: "a", Status: StatusRunning})
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"status":"running"`)
}

// TestHelperProcess is re-executed as the child tool server in the tests
// above. It speaks newline-delimited JSON-RPC on its standard streams.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	defer os.Exit(0)

	scenario := ""
	for i, arg := range os.Args {
		if arg == "--" && i+1 < len(os.Args) {
			scenario = os.Args[i+1]
		}
	}

	switch scenario {
	case "exit":
		return
	case "server":
		runScriptedServer()
	}
}

type helperRequest struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

func runScriptedServer() {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req helperRequest
		if err := json.Unmarshal(line, &req); err != nil {
			continue
		}

		switch req.Method {
		case "initialize":
			reply(req.ID, `{"protocolVersion":"2025-03-26","capabilities":{"tools":{}},"serverInfo":{"name":"scripted","version":"0.1.0"}}`)
		case "notifications/initialized":
			// notification, no reply
		case "tools/list":
			var params struct {
				Cursor string `json:"cursor"`
			}

			_ = json.Unmarshal(req.Params, &params)

			if params.Cursor == "" {
				reply(req.ID, `{"tools":[{"name":"echo","description":"echo a message","inputSchema":{"type":"object"}}],"nextCursor":"page2"}`)
			} else {
				reply(req.ID, `{"tools":[{"name":"fail","description":"always errors","inputSchema":{"type":"object"}}]}`)
			}
		case "tools/call":
			var params struct {
				Name      string         `json:"name"`
				Arguments map[string]any `json:"arguments"`
			}

			_ = json.Unmarshal(req.Params, &params)

			switch params.Name {
			case "echo":
				if die, ok := params.Arguments["die"].(bool); ok && die {
					os.Exit(1)
				}

				message, _ := params.Arguments["message"].(string)
				reply(req.ID, fmt.Sprintf(`{"content":[{"type":"text","text":%q}]}`, message))
			case "fail":
				replyError(req.ID, -32050, "tool exploded")
			default:
				replyError(req.ID, -32601, "unknown tool")
			}
		case "ping":
			reply(req.ID, `{}`)
		}
	}
}

func reply(id json.RawMessage, result string) {
	fmt.Fprintf(os.Stdout, `{"jsonrpc":"2.0","id":%s,"result":%s}`+"\n", id, result)
}

func replyError(id json.RawMessage, code int, message string) {
	fmt.Fprintf(os.Stdout, `{"jsonrpc":"2.0","id":%s,"error":{"code":%d,"message":%q}}`+"\n", id, code, message)
}
