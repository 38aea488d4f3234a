package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"rockerboo/mcp-bridge/async"
	"rockerboo/mcp-bridge/collections"
	"rockerboo/mcp-bridge/interfaces"
	"rockerboo/mcp-bridge/logger"
	"rockerboo/mcp-bridge/session"
	"rockerboo/mcp-bridge/store"

	"github.com/mark3labs/mcp-go/mcp"
)

// ErrServerNotFound indicates the named server has never been started.
var ErrServerNotFound = errors.New("server not found")

// SessionFactory builds a session for a definition. Swapped for fakes in tests.
type SessionFactory func(name string, def store.Definition) interfaces.ServerSession

// Registry tracks one session slot per server name and guarantees at most one
// active process per name. Stopped and failed sessions stay registered so
// status queries keep answering after the process is gone.
type Registry struct {
	factory SessionFactory

	mu       sync.Mutex
	sessions map[string]interfaces.ServerSession
}

// NewRegistry creates a registry that launches sessions with the given options.
func NewRegistry(opts session.Options) *Registry {
	return &Registry{
		factory: func(name string, def store.Definition) interfaces.ServerSession {
			return session.New(name, def, opts)
		},
		sessions: make(map[string]interfaces.ServerSession),
	}
}

// NewRegistryWithFactory creates a registry with a custom session factory.
func NewRegistryWithFactory(factory SessionFactory) *Registry {
	return &Registry{
		factory:  factory,
		sessions: make(map[string]interfaces.ServerSession),
	}
}

// StartServer launches the named server if it is not already active. A second
// start while the first is in flight does not spawn a new process; both
// callers observe the outcome of the single launch. A server that previously
// stopped or failed gets a fresh session with a new process.
func (r *Registry) StartServer(ctx context.Context, name string, def store.Definition) (session.Snapshot, error) {
	r.mu.Lock()

	if existing, ok := r.sessions[name]; ok {
		switch existing.Status() {
		case session.StatusStarting, session.StatusRunning:
			r.mu.Unlock()

			if err := existing.AwaitReady(ctx); err != nil {
				return existing.Snapshot(), err
			}

			return existing.Snapshot(), nil
		}
	}

	sess := r.factory(name, def)
	r.sessions[name] = sess
	r.mu.Unlock()

	logger.Info(fmt.Sprintf("starting server %q: %s %v", name, def.Command, def.Args))

	if err := sess.Start(ctx); err != nil {
		return sess.Snapshot(), err
	}

	return sess.Snapshot(), nil
}

// StopServer terminates the named server's process. Stopping a server that is
// already stopped is a no-op; stopping an unknown server is an error.
func (r *Registry) StopServer(name string) error {
	sess, ok := r.lookup(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrServerNotFound, name)
	}

	return sess.Stop()
}

// GetStatus reports the named server's current lifecycle state.
func (r *Registry) GetStatus(name string) (session.Snapshot, error) {
	sess, ok := r.lookup(name)
	if !ok {
		return session.Snapshot{}, fmt.Errorf("%w: %q", ErrServerNotFound, name)
	}

	return sess.Snapshot(), nil
}

// ListStatuses reports every registered server, ordered by name.
func (r *Registry) ListStatuses() []session.Snapshot {
	r.mu.Lock()

	sessions := make([]interfaces.ServerSession, 0, len(r.sessions))
	for _, name := range collections.SortedKeys(r.sessions) {
		sessions = append(sessions, r.sessions[name])
	}

	r.mu.Unlock()

	snapshots := make([]session.Snapshot, 0, len(sessions))
	for _, sess := range sessions {
		snapshots = append(snapshots, sess.Snapshot())
	}

	return snapshots
}

// ListTools returns the named server's cached tool descriptors.
func (r *Registry) ListTools(name string) ([]mcp.Tool, error) {
	sess, ok := r.lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrServerNotFound, name)
	}

	return sess.ListTools()
}

// ExecuteTool invokes a tool on the named server and returns its result.
func (r *Registry) ExecuteTool(ctx context.Context, name, tool string, args map[string]any) (*mcp.CallToolResult, error) {
	sess, ok := r.lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrServerNotFound, name)
	}

	return sess.ExecuteTool(ctx, tool, args)
}

// ShutdownAll stops every registered server concurrently and waits for all of
// them, bounded by the context.
func (r *Registry) ShutdownAll(ctx context.Context) {
	r.mu.Lock()

	sessions := make([]interfaces.ServerSession, 0, len(r.sessions))
	for _, sess := range r.sessions {
		sessions = append(sessions, sess)
	}

	r.mu.Unlock()

	if len(sessions) == 0 {
		return
	}

	logger.Info(fmt.Sprintf("shutting down %d servers", len(sessions)))

	ops := make([]func() (string, error), 0, len(sessions))

	for _, sess := range sessions {
		s := sess
		ops = append(ops, func() (string, error) {
			return s.Name(), s.Stop()
		})
	}

	results, err := async.Map(ctx, ops)
	if err != nil {
		logger.Warn("shutdown deadline reached before all servers stopped")
		return
	}

	for _, result := range results {
		if result.Error != nil {
			logger.Error(fmt.Sprintf("error stopping %q: %v", result.Value, result.Error))
		}
	}
}

func (r *Registry) lookup(name string) (interfaces.ServerSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[name]

	return sess, ok
}
