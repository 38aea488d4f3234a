package transport

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"rockerboo/mcp-bridge/logger"
)

// lineStream frames JSON-RPC messages as newline-delimited JSON, the stdio
// framing convention MCP servers speak. It implements jsonrpc2.ObjectStream.
//
// Malformed lines (servers that print banners or stray output to stdout) are
// logged and skipped; they never terminate the read loop.
type lineStream struct {
	name string
	r    *bufio.Reader
	rwc  io.ReadWriteCloser

	wmu sync.Mutex
}

const readBufferSize = 64 * 1024

func newLineStream(name string, rwc io.ReadWriteCloser) *lineStream {
	return &lineStream{
		name: name,
		r:    bufio.NewReaderSize(rwc, readBufferSize),
		rwc:  rwc,
	}
}

// WriteObject serializes obj and writes it as a single newline-terminated
// line. Writes are serialized so concurrent requests never interleave.
func (s *lineStream) WriteObject(obj any) error {
	data, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	data = append(data, '\n')

	s.wmu.Lock()
	defer s.wmu.Unlock()

	if _, err := s.rwc.Write(data); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

// ReadObject reads lines until one parses as a JSON value, skipping blank and
// malformed lines. An I/O error (end of stream on process exit) is returned
// to the caller, which closes the connection.
func (s *lineStream) ReadObject(v any) error {
	for {
		line, readErr := s.r.ReadBytes('\n')

		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			if err := json.Unmarshal(line, v); err != nil {
				logger.Warn(fmt.Sprintf("[%s] skipping malformed line: %v", s.name, err))
			} else {
				return nil
			}
		}

		if readErr != nil {
			return readErr
		}
	}
}

func (s *lineStream) Close() error {
	return s.rwc.Close()
}
