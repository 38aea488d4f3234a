package session

import (
	"encoding/json"
	"fmt"
)

// Status represents the lifecycle state of a server session
type Status int

const (
	StatusStarting Status = iota
	StatusRunning
	StatusFailed
	StatusStopped
)

func (s Status) String() string {
	switch s {
	case StatusStarting:
		return "starting"
	case StatusRunning:
		return "running"
	case StatusFailed:
		return "failed"
	case StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the status as its lowercase name for API responses.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON parses the lowercase status name.
func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}

	switch name {
	case "starting":
		*s = StatusStarting
	case "running":
		*s = StatusRunning
	case "failed":
		*s = StatusFailed
	case "stopped":
		*s = StatusStopped
	default:
		return fmt.Errorf("unknown status %q", name)
	}

	return nil
}

// Snapshot is a read-only view of a session's state. Building one never
// blocks on network or process I/O.
type Snapshot struct {
	Name      string `json:"name"`
	Status    Status `json:"status"`
	PID       int    `json:"pid,omitempty"`
	ToolCount int    `json:"tool_count"`
	LastError string `json:"last_error,omitempty"`
}
