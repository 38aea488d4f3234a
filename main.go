package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"rockerboo/mcp-bridge/bridge"
	"rockerboo/mcp-bridge/config"
	"rockerboo/mcp-bridge/directories"
	"rockerboo/mcp-bridge/gateway"
	"rockerboo/mcp-bridge/logger"
	"rockerboo/mcp-bridge/session"
	"rockerboo/mcp-bridge/store"

	"github.com/mark3labs/mcp-go/server"
)

func main() {
	var confPath string
	var listenAddr string
	var dbPath string
	var logPath string
	var logLevel string
	flag.StringVar(&confPath, "config", "", "Path to bridge configuration file")
	flag.StringVar(&confPath, "c", "", "Path to bridge configuration file (short)")
	flag.StringVar(&listenAddr, "listen", "", "HTTP listen address (overrides config)")
	flag.StringVar(&dbPath, "db", "", "Path to the definition database (overrides config)")
	flag.StringVar(&logPath, "log-path", "", "Path to log file (overrides config)")
	flag.StringVar(&logPath, "l", "", "Path to log file (short)")
	flag.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	flag.Parse()

	dirResolver := directories.NewDirectoryResolver("mcp-bridge",
		directories.DefaultUserProvider{}, directories.DefaultEnvProvider{}, true)

	cfg := config.DefaultConfig()

	if confPath == "" {
		// Without an explicit flag, look for a config file in the user's
		// config directory.
		if configDir, err := dirResolver.GetConfigDirectory(); err == nil {
			candidate := filepath.Join(configDir, "config.json")
			if _, err := os.Stat(candidate); err == nil {
				confPath = candidate
			}
		}
	}

	if confPath != "" {
		loaded, err := config.LoadConfig(confPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "CRITICAL: Failed to load config from '%s': %v\n", confPath, err)
			os.Exit(1)
		}

		cfg = loaded
	} else {
		// No config file; place the database and logs per platform
		// conventions instead of the working directory.
		if dataDir, err := dirResolver.GetDataDirectory(); err == nil {
			cfg.DatabasePath = filepath.Join(dataDir, "mcp-bridge.db")
		}

		if logDir, err := dirResolver.GetLogDirectory(); err == nil {
			cfg.LogPath = filepath.Join(logDir, "mcp-bridge.log")
		}
	}

	// Command-line flags win over the config file
	if listenAddr != "" {
		cfg.ListenAddr = listenAddr
	}

	if dbPath != "" {
		cfg.DatabasePath = dbPath
	}

	if logPath != "" {
		cfg.LogPath = logPath
	}

	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logConfig := logger.LoggerConfig{
		LogPath:     cfg.LogPath,
		LogLevel:    cfg.LogLevel,
		MaxLogFiles: cfg.MaxLogFiles,
	}

	if err := logger.InitLogger(logConfig); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Close()

	logger.Info("Starting MCP Bridge...")

	defs, err := store.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		logger.Error("Failed to open definition store: " + err.Error())
		os.Exit(1)
	}
	defer defs.Close()

	registry := bridge.NewRegistry(session.Options{
		StartTimeout: cfg.StartTimeout(),
		CallTimeout:  cfg.CallTimeout(),
		StopGrace:    cfg.StopGrace(),
	})

	adapter := gateway.NewAdapter(registry, defs)

	if cfg.StartStoredServers {
		stored, err := defs.ListDefinitions(context.Background())
		if err != nil {
			logger.Error("Failed to list stored definitions: " + err.Error())
		} else {
			go bridge.StartAll(context.Background(), registry, stored, cfg.StartupStagger())
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/", gateway.NewHandler(adapter))
	mux.Handle("/mcp", server.NewStreamableHTTPServer(gateway.SetupMCPServer(adapter)))

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		logger.Info("HTTP server listening on " + cfg.ListenAddr)
		errCh <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info(fmt.Sprintf("Received %s, shutting down", sig))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error: " + err.Error())
	}

	registry.ShutdownAll(shutdownCtx)

	logger.Info("MCP Bridge stopped")
}
