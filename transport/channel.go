package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"rockerboo/mcp-bridge/collections"
	"rockerboo/mcp-bridge/logger"

	"github.com/sourcegraph/jsonrpc2"
)

// Options configures a Channel.
type Options struct {
	// StopGrace bounds how long Close waits for the process to exit after
	// its stdin is closed before killing it.
	StopGrace time.Duration

	// Notify receives server-initiated notifications.
	Notify NotificationHandler

	// OnClose is invoked exactly once when the channel stops serving, with
	// the reason if the close was not requested.
	OnClose func(err error)
}

const defaultStopGrace = 2 * time.Second

// Channel owns one child process's stdin/stdout, frames newline-delimited
// JSON-RPC messages over them, and matches responses to pending requests.
// Request correlation (id assignment, the pending-request map, and failing
// every outstanding call when the stream closes) lives in the jsonrpc2
// connection.
type Channel struct {
	name string
	conn *jsonrpc2.Conn

	cancel context.CancelFunc

	cmd       *exec.Cmd
	waitDone  chan struct{}
	waitErr   error
	stopGrace time.Duration

	closeOnce  sync.Once
	closeReq   chan struct{} // closed when Close is requested
	notifyOnce sync.Once
	onClose    func(err error)
}

// Spawn launches the given command with an explicit argument vector and
// environment mapping and opens a Channel over its standard streams. The
// returned error indicates the executable could not be started; protocol
// failures surface later through calls.
func Spawn(name, command string, args []string, env map[string]string, opts Options) (*Channel, error) {
	logger.Info(fmt.Sprintf("spawning tool server %q: %s %v", name, command, args))

	cmd := exec.Command(command, args...)
	cmd.Env = mergedEnv(env)
	setProcAttributes(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		stdin.Close()
		stdout.Close()
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdout.Close()
		stderr.Close()
		return nil, fmt.Errorf("failed to start command: %w", err)
	}

	rwc := &stdioReadWriteCloser{stdin: stdin, stdout: stdout}
	ch := newChannel(name, rwc, opts)
	ch.cmd = cmd

	go ch.forwardStderr(stderr)
	go func() {
		ch.waitErr = cmd.Wait()
		close(ch.waitDone)
	}()

	return ch, nil
}

// NewChannel opens a Channel over an existing stream. Used by Spawn and by
// tests that substitute an in-process peer for a child process.
func NewChannel(name string, rwc io.ReadWriteCloser, opts Options) *Channel {
	ch := newChannel(name, rwc, opts)
	close(ch.waitDone)

	return ch
}

func newChannel(name string, rwc io.ReadWriteCloser, opts Options) *Channel {
	ctx, cancel := context.WithCancel(context.Background())

	stopGrace := opts.StopGrace
	if stopGrace <= 0 {
		stopGrace = defaultStopGrace
	}

	ch := &Channel{
		name:      name,
		cancel:    cancel,
		waitDone:  make(chan struct{}),
		stopGrace: stopGrace,
		closeReq:  make(chan struct{}),
		onClose:   opts.OnClose,
	}

	handler := &channelHandler{name: name, notify: opts.Notify}
	ch.conn = jsonrpc2.NewConn(ctx, newLineStream(name, rwc), handler)

	go ch.watchDisconnect()

	return ch
}

// Call sends a request and waits for the matching response, bounded by
// timeout. Concurrent calls are safe; responses are matched by correlation
// id, so out-of-order completion is expected.
func (c *Channel) Call(ctx context.Context, method string, params, result any, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	err := c.conn.Call(ctx, method, params, result)

	return c.mapCallError(err, method)
}

// Notify sends a one-way notification.
func (c *Channel) Notify(ctx context.Context, method string, params any) error {
	if method == "" {
		return errors.New("empty notification method")
	}

	return c.conn.Notify(ctx, method, params)
}

func (c *Channel) mapCallError(err error, method string) error {
	if err == nil {
		return nil
	}

	var rpcErr *jsonrpc2.Error
	if errors.As(err, &rpcErr) {
		// Protocol-level error object from the server; the session layer
		// attaches it to the caller's result.
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: no response to %s", ErrRequestTimeout, method)
	}

	if errors.Is(err, jsonrpc2.ErrClosed) || c.Closed() {
		return fmt.Errorf("%w: %s", ErrTransportClosed, method)
	}

	return err
}

// Closed reports whether the channel has stopped serving.
func (c *Channel) Closed() bool {
	select {
	case <-c.conn.DisconnectNotify():
		return true
	default:
		return false
	}
}

// Done is closed when the channel stops serving, whether by Close or by the
// process exiting on its own.
func (c *Channel) Done() <-chan struct{} {
	return c.conn.DisconnectNotify()
}

// PID returns the child's process id, or zero for stream-backed channels.
func (c *Channel) PID() int {
	if c.cmd == nil || c.cmd.Process == nil {
		return 0
	}

	return c.cmd.Process.Pid
}

// Close tears the channel down: the connection is closed (which closes the
// child's stdin, the conventional stdio shutdown signal), and the process is
// killed if it has not exited within the grace window. Safe to call from any
// exit path, any number of times.
func (c *Channel) Close() error {
	c.closeOnce.Do(func() {
		close(c.closeReq)

		if err := c.conn.Close(); err != nil && !errors.Is(err, jsonrpc2.ErrClosed) {
			logger.Debug(fmt.Sprintf("[%s] connection close: %v", c.name, err))
		}

		c.cancel()
		c.reap()
	})

	return nil
}

// reap guarantees process termination: wait for a graceful exit, then kill.
func (c *Channel) reap() {
	if c.cmd == nil || c.cmd.Process == nil {
		return
	}

	select {
	case <-c.waitDone:
	case <-time.After(c.stopGrace):
		logger.Warn(fmt.Sprintf("[%s] process did not exit within %s, killing", c.name, c.stopGrace))

		if err := c.cmd.Process.Kill(); err != nil {
			logger.Error(fmt.Sprintf("[%s] failed to kill process: %v", c.name, err))
		}

		<-c.waitDone
	}

	if c.waitErr != nil {
		logger.Debug(fmt.Sprintf("[%s] process exited: %v", c.name, c.waitErr))
	}
}

// watchDisconnect observes the connection closing, from either direction,
// and reports it upward exactly once.
func (c *Channel) watchDisconnect() {
	<-c.conn.DisconnectNotify()

	var cause error
	select {
	case <-c.closeReq:
		// Requested close; not a failure.
	default:
		cause = fmt.Errorf("%w: process ended the stream", ErrTransportClosed)
		logger.Warn(fmt.Sprintf("[%s] transport closed unexpectedly", c.name))

		// The read loop is gone; make sure the process does not linger.
		go c.Close()
	}

	c.notifyOnce.Do(func() {
		if c.onClose != nil {
			c.onClose(cause)
		}
	})
}

// forwardStderr copies the child's standard error to the diagnostic log,
// prefixed with the server name. Never parsed as protocol data.
func (c *Channel) forwardStderr(stderr io.ReadCloser) {
	defer stderr.Close()

	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		logger.Info(fmt.Sprintf("[%s] stderr: %s", c.name, scanner.Text()))
	}
}

// mergedEnv layers the definition's environment over the host's.
func mergedEnv(env map[string]string) []string {
	merged := os.Environ()

	for _, k := range collections.SortedKeys(env) {
		merged = append(merged, k+"="+env[k])
	}

	return merged
}
