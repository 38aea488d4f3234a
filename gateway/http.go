package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"rockerboo/mcp-bridge/bridge"
	"rockerboo/mcp-bridge/logger"
	"rockerboo/mcp-bridge/session"
	"rockerboo/mcp-bridge/store"
	"rockerboo/mcp-bridge/transport"

	"github.com/google/uuid"
)

// startRequest is the optional body of a start call. An empty body starts
// the stored definition under that name.
type startRequest struct {
	Command string            `json:"command,omitempty"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

type executeRequest struct {
	Arguments map[string]any `json:"arguments,omitempty"`
}

type errorResponse struct {
	Error string          `json:"error"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewHandler builds the HTTP API around the adapter.
func NewHandler(adapter *Adapter) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET /api/servers", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, adapter.ListStatuses())
	})

	mux.HandleFunc("GET /api/servers/{name}", func(w http.ResponseWriter, r *http.Request) {
		snap, err := adapter.GetStatus(r.PathValue("name"))
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, snap)
	})

	mux.HandleFunc("POST /api/servers/{name}/start", func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")

		var def *store.Definition

		var body startRequest
		switch err := json.NewDecoder(r.Body).Decode(&body); {
		case err == nil:
			if body.Command != "" {
				def = &store.Definition{Name: name, Command: body.Command, Args: body.Args, Env: body.Env}
			}
		case errors.Is(err, io.EOF):
		default:
			writeError(w, fmt.Errorf("%w: malformed JSON body: %v", ErrValidation, err))
			return
		}

		snap, err := adapter.StartServer(r.Context(), name, def)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, snap)
	})

	mux.HandleFunc("POST /api/servers/{name}/stop", func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")

		if err := adapter.StopServer(name); err != nil {
			writeError(w, err)
			return
		}

		snap, err := adapter.GetStatus(name)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, snap)
	})

	mux.HandleFunc("GET /api/servers/{name}/tools", func(w http.ResponseWriter, r *http.Request) {
		tools, err := adapter.ListTools(r.PathValue("name"))
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"tools": tools})
	})

	mux.HandleFunc("POST /api/servers/{name}/tools/{tool}", func(w http.ResponseWriter, r *http.Request) {
		var body executeRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, fmt.Errorf("%w: malformed JSON body: %v", ErrValidation, err))
			return
		}

		result, err := adapter.ExecuteTool(r.Context(), r.PathValue("name"), r.PathValue("tool"), body.Arguments)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, result)
	})

	mux.HandleFunc("GET /api/definitions", func(w http.ResponseWriter, r *http.Request) {
		defs, err := adapter.ListDefinitions(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, defs)
	})

	mux.HandleFunc("GET /api/definitions/{name}", func(w http.ResponseWriter, r *http.Request) {
		def, err := adapter.GetDefinition(r.Context(), r.PathValue("name"))
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, def)
	})

	mux.HandleFunc("PUT /api/definitions/{name}", func(w http.ResponseWriter, r *http.Request) {
		var def store.Definition
		if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
			writeError(w, fmt.Errorf("%w: malformed JSON body: %v", ErrValidation, err))
			return
		}

		def.Name = r.PathValue("name")

		if err := adapter.SaveDefinition(r.Context(), def); err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, def)
	})

	mux.HandleFunc("DELETE /api/definitions/{name}", func(w http.ResponseWriter, r *http.Request) {
		if err := adapter.DeleteDefinition(r.Context(), r.PathValue("name")); err != nil {
			writeError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	})

	return withRequestLogging(mux)
}

// withRequestLogging tags each request with an id and logs its duration.
func withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		start := time.Now()

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		recorder.Header().Set("X-Request-Id", requestID)

		next.ServeHTTP(recorder, r)

		logger.Info(fmt.Sprintf("[%s] %s %s -> %d (%s)",
			requestID, r.Method, r.URL.Path, recorder.status, time.Since(start)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(status int) {
	sr.status = status
	sr.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error(fmt.Sprintf("error encoding response: %v", err))
	}
}

// writeError maps bridge failures onto HTTP status codes. Unknown servers and
// tools are 404, rejected input is 400, calls against non-running servers are
// 409, timeouts are 504, and failures inside or beneath the child process are
// 502.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var spawnErr *session.SpawnError
	var handshakeErr *session.HandshakeError
	var discoveryErr *session.DiscoveryError
	var upstreamErr *session.UpstreamError

	switch {
	case errors.Is(err, ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, bridge.ErrServerNotFound),
		errors.Is(err, session.ErrToolNotFound):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrNotRunning):
		status = http.StatusConflict
	case errors.Is(err, transport.ErrRequestTimeout):
		status = http.StatusGatewayTimeout
	case errors.As(err, &spawnErr),
		errors.As(err, &handshakeErr),
		errors.As(err, &discoveryErr),
		errors.As(err, &upstreamErr),
		errors.Is(err, transport.ErrTransportClosed):
		status = http.StatusBadGateway
	}

	resp := errorResponse{Error: err.Error()}
	if upstreamErr != nil {
		// Pass the child's error payload through to the caller.
		resp.Data = upstreamErr.Data
	}

	writeJSON(w, status, resp)
}
