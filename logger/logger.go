package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

type LoggerConfig struct {
	LogPath     string
	LogLevel    string // "debug", "info", "warn", "error"
	MaxLogFiles int    // Maximum number of log files to keep
}

var (
	config      LoggerConfig
	debugLogger *log.Logger
	infoLogger  *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
	logFile     *os.File
	logMutex    sync.Mutex
)

// DefaultConfig provides a default logging configuration
func DefaultConfig() LoggerConfig {
	return LoggerConfig{
		LogPath:     filepath.Join(os.TempDir(), "mcp-bridge.log"),
		LogLevel:    "info",
		MaxLogFiles: 5,
	}
}

// InitLogger sets up file-based logging with configuration
func InitLogger(cfg LoggerConfig) error {
	logMutex.Lock()
	defer logMutex.Unlock()

	if cfg.LogPath == "" {
		cfg = DefaultConfig()
	}

	if err := os.MkdirAll(filepath.Dir(cfg.LogPath), 0700); err != nil {
		return fmt.Errorf("failed to create log directory: %v", err)
	}

	rotateLogFiles(cfg)

	file, err := os.OpenFile(cfg.LogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open log file: %v", err)
	}

	logFile = file
	config = cfg

	initLoggers(file)

	return nil
}

// InitWriter directs log output to an arbitrary writer, primarily for tests.
func InitWriter(w io.Writer, level string) {
	logMutex.Lock()
	defer logMutex.Unlock()

	config = LoggerConfig{LogLevel: level}

	initLoggers(w)
}

func initLoggers(w io.Writer) {
	debugLogger = log.New(w, "DEBUG: ", log.Ldate|log.Ltime|log.Lshortfile)
	infoLogger = log.New(w, "INFO: ", log.Ldate|log.Ltime|log.Lshortfile)
	warnLogger = log.New(w, "WARN: ", log.Ldate|log.Ltime|log.Lshortfile)
	errorLogger = log.New(w, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
}

// rotateLogFiles manages log file rotation
func rotateLogFiles(cfg LoggerConfig) {
	if cfg.MaxLogFiles <= 0 {
		return
	}

	baseDir := filepath.Dir(cfg.LogPath)
	baseFileName := filepath.Base(cfg.LogPath)
	files, _ := filepath.Glob(filepath.Join(baseDir, baseFileName+".*"))

	if len(files) >= cfg.MaxLogFiles {
		sort.Slice(files, func(i, j int) bool {
			fiA, _ := os.Stat(files[i])
			fiB, _ := os.Stat(files[j])

			return fiA.ModTime().Before(fiB.ModTime())
		})

		for _, oldFile := range files[:len(files)-cfg.MaxLogFiles+1] {
			err := os.Remove(oldFile)
			if err != nil {
				Error(fmt.Errorf("failed to remove old log file: %v", err))
			}
		}
	}
}

func levelEnabled(level string) bool {
	switch config.LogLevel {
	case "debug", "":
		return true
	case "info":
		return level != "debug"
	case "warn":
		return level == "warn" || level == "error"
	case "error":
		return level == "error"
	default:
		return true
	}
}

// Debug logs a debug message with caller context
func Debug(v ...any) {
	if levelEnabled("debug") && debugLogger != nil {
		_ = debugLogger.Output(2, fmt.Sprintln(v...))
	}
}

// Info logs an informational message with caller context
func Info(v ...any) {
	if levelEnabled("info") && infoLogger != nil {
		_ = infoLogger.Output(2, fmt.Sprintln(v...))
	}
}

// Warn logs a warning message with caller context
func Warn(v ...any) {
	if levelEnabled("warn") && warnLogger != nil {
		_ = warnLogger.Output(2, fmt.Sprintln(v...))
	}
}

// Error logs an error message with caller context
func Error(v ...any) {
	if errorLogger != nil {
		_ = errorLogger.Output(2, fmt.Sprintln(v...))
	}
}

// Close closes the log file
func Close() {
	logMutex.Lock()
	defer logMutex.Unlock()

	if logFile != nil {
		err := logFile.Close()
		if err != nil {
			log.Printf("failed to close log file: %v", err)
		}
		logFile = nil
	}
}
