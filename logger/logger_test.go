package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	InitWriter(&buf, "warn")

	Debug("debug message")
	Info("info message")
	Warn("warn message")
	Error("error message")

	output := buf.String()

	if strings.Contains(output, "debug message") {
		t.Error("debug message should be filtered at warn level")
	}

	if strings.Contains(output, "info message") {
		t.Error("info message should be filtered at warn level")
	}

	if !strings.Contains(output, "warn message") {
		t.Error("warn message should be logged at warn level")
	}

	if !strings.Contains(output, "error message") {
		t.Error("error message should be logged at warn level")
	}
}

func TestDebugLevelLogsEverything(t *testing.T) {
	var buf bytes.Buffer

	InitWriter(&buf, "debug")

	Debug("debug message")
	Info("info message")

	output := buf.String()

	if !strings.Contains(output, "debug message") || !strings.Contains(output, "info message") {
		t.Errorf("expected both messages at debug level, got: %s", output)
	}
}

func TestInitLoggerCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "bridge.log")

	if err := InitLogger(LoggerConfig{LogPath: path, LogLevel: "info", MaxLogFiles: 2}); err != nil {
		t.Fatalf("InitLogger failed: %v", err)
	}

	Info("written to file")
	Close()

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}

	if !strings.Contains(string(contents), "written to file") {
		t.Errorf("log file missing entry, got: %s", contents)
	}
}
