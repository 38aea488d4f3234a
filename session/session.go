package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"rockerboo/mcp-bridge/logger"
	"rockerboo/mcp-bridge/store"
	"rockerboo/mcp-bridge/transport"

	"github.com/mark3labs/mcp-go/mcp"
)

// Options configures session timeouts.
type Options struct {
	StartTimeout time.Duration // bound on each handshake/discovery call
	CallTimeout  time.Duration // bound on each tool invocation
	StopGrace    time.Duration // bound on graceful process exit
}

// DefaultOptions provides the default session configuration
func DefaultOptions() Options {
	return Options{
		StartTimeout: 10 * time.Second,
		CallTimeout:  30 * time.Second,
		StopGrace:    2 * time.Second,
	}
}

// Session owns one tool server's full lifecycle: the child process, its
// transport channel, and the cached capability list discovered after the
// handshake. Status and the tool cache are mutated only by the session's own
// lifecycle transitions; concurrent tool calls take read locks.
type Session struct {
	name string
	def  store.Definition
	opts Options

	mu       sync.RWMutex
	status   Status
	lastErr  string
	channel  *transport.Channel
	tools    []mcp.Tool
	server   mcp.Implementation
	stopping bool

	ready    chan struct{}
	startErr error
}

// New creates a session for the given definition. The process is not
// spawned until Start.
func New(name string, def store.Definition, opts Options) *Session {
	if opts.StartTimeout <= 0 {
		opts.StartTimeout = DefaultOptions().StartTimeout
	}

	if opts.CallTimeout <= 0 {
		opts.CallTimeout = DefaultOptions().CallTimeout
	}

	return &Session{
		name:   name,
		def:    def,
		opts:   opts,
		status: StatusStarting,
		ready:  make(chan struct{}),
	}
}

// Name returns the server name this session was started for.
func (s *Session) Name() string { return s.name }

// Start spawns the process, performs the MCP initialization handshake, and
// populates the tool cache. On any failure the partially-started process is
// killed and the session becomes Failed. Start must be called exactly once;
// concurrent starters of the same server use AwaitReady.
func (s *Session) Start(ctx context.Context) error {
	ch, err := transport.Spawn(s.name, s.def.Command, s.def.Args, s.def.Env, transport.Options{
		StopGrace: s.opts.StopGrace,
		Notify:    s.handleNotification,
		OnClose:   s.transportClosed,
	})
	if err != nil {
		return s.fail(&SpawnError{Server: s.name, Err: err})
	}

	s.mu.Lock()
	s.channel = ch
	s.mu.Unlock()

	initResult, err := s.initialize(ctx)
	if err != nil {
		ch.Close()
		return s.fail(&HandshakeError{Server: s.name, Err: err})
	}

	tools, err := s.discoverTools(ctx)
	if err != nil {
		ch.Close()
		return s.fail(&DiscoveryError{Server: s.name, Err: err})
	}

	s.mu.Lock()
	s.tools = tools
	s.server = initResult.ServerInfo
	s.status = StatusRunning
	s.mu.Unlock()

	logger.Info(fmt.Sprintf("server %q running: %s %s, %d tools",
		s.name, initResult.ServerInfo.Name, initResult.ServerInfo.Version, len(tools)))

	close(s.ready)

	return nil
}

// fail records a fatal startup error and releases anyone awaiting readiness.
func (s *Session) fail(err error) error {
	s.mu.Lock()
	s.status = StatusFailed
	s.lastErr = err.Error()
	s.channel = nil
	s.mu.Unlock()

	logger.Error(fmt.Sprintf("server %q failed to start: %v", s.name, err))

	s.startErr = err
	close(s.ready)

	return err
}

// AwaitReady blocks until Start has finished, then reports its outcome.
func (s *Session) AwaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return s.startErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status returns the session's current lifecycle state.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.status
}

// Snapshot returns a read-only view of the session without blocking on I/O.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Name:      s.name,
		Status:    s.status,
		LastError: s.lastErr,
	}

	if s.status == StatusRunning {
		snap.ToolCount = len(s.tools)
	}

	if s.channel != nil {
		snap.PID = s.channel.PID()
	}

	return snap
}

// ListTools returns the cached tool descriptors discovered at startup.
func (s *Session) ListTools() ([]mcp.Tool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.status != StatusRunning {
		return nil, fmt.Errorf("%w: %q is %s", ErrNotRunning, s.name, s.status)
	}

	tools := make([]mcp.Tool, len(s.tools))
	copy(tools, s.tools)

	return tools, nil
}

// ExecuteTool forwards a tools/call request and returns the server's result
// payload. Concurrent calls on the same session are safe; the channel's
// correlation ids keep interleaved responses matched to their requests.
func (s *Session) ExecuteTool(ctx context.Context, tool string, args map[string]any) (*mcp.CallToolResult, error) {
	s.mu.RLock()

	if s.status != StatusRunning {
		s.mu.RUnlock()
		return nil, fmt.Errorf("%w: %q is %s", ErrNotRunning, s.name, s.status)
	}

	if !s.hasTool(tool) {
		s.mu.RUnlock()
		return nil, fmt.Errorf("%w: %q has no tool %q", ErrToolNotFound, s.name, tool)
	}

	ch := s.channel
	s.mu.RUnlock()

	return s.callTool(ctx, ch, tool, args)
}

// hasTool checks the cache; callers hold at least a read lock.
func (s *Session) hasTool(name string) bool {
	for _, t := range s.tools {
		if t.Name == name {
			return true
		}
	}

	return false
}

// Stop closes the transport, which terminates the process, and marks the
// session Stopped. Idempotent.
func (s *Session) Stop() error {
	s.mu.Lock()

	if s.status == StatusStopped {
		s.mu.Unlock()
		return nil
	}

	s.stopping = true
	ch := s.channel
	s.mu.Unlock()

	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error(fmt.Sprintf("error closing channel for %q: %v", s.name, err))
		}
	}

	s.mu.Lock()
	s.status = StatusStopped
	s.channel = nil
	s.tools = nil
	s.mu.Unlock()

	logger.Info(fmt.Sprintf("server %q stopped", s.name))

	return nil
}

// transportClosed runs when the channel stops serving. An unexpected close
// (process exit) marks the session Failed; every pending request on the
// channel has already been failed with a transport-closed error.
func (s *Session) transportClosed(cause error) {
	if cause == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopping || s.status == StatusStopped || s.status == StatusFailed {
		return
	}

	s.status = StatusFailed
	s.lastErr = cause.Error()
	s.tools = nil

	logger.Warn(fmt.Sprintf("server %q transport closed: %v", s.name, cause))
}

// handleNotification forwards server-initiated log and progress events to
// the diagnostic log.
func (s *Session) handleNotification(method string, params json.RawMessage) {
	switch method {
	case "notifications/message", "notifications/progress":
		logger.Info(fmt.Sprintf("[%s] %s: %s", s.name, method, string(params)))
	default:
		logger.Debug(fmt.Sprintf("[%s] %s: %s", s.name, method, string(params)))
	}
}
