// Package server exposes the swarmdock REST API: swarm session CRUD, the
// execute endpoint with its server-sent-event log stream, memory operation
// logging, agent metrics, and templates.
package server

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"

	"github.com/swarmdock-dev/swarmdock/internal/eventlog"
	"github.com/swarmdock-dev/swarmdock/internal/runner"
	"github.com/swarmdock-dev/swarmdock/internal/store"
)

// Server is the swarmdock HTTP server.
type Server struct {
	store    *store.Store
	runner   *runner.Runner
	log      *eventlog.Logger
	listener net.Listener
	server   *http.Server
}

// NewServer creates a server bound to addr. Use an address like
// "127.0.0.1:0" to bind a random port (tests do this).
func NewServer(addr string, st *store.Store, run *runner.Runner, logger *eventlog.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("binding listener: %w", err)
	}

	s := &Server{
		store:    st,
		runner:   run,
		log:      logger,
		listener: ln,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /agents", s.handleListAgents)
	mux.HandleFunc("POST /swarm/create", s.handleCreateSwarm)
	mux.HandleFunc("POST /swarm/execute", s.handleExecuteSwarm)
	mux.HandleFunc("GET /swarm/sessions", s.handleListSessions)
	mux.HandleFunc("GET /swarm/session/{id}", s.handleGetSession)
	mux.HandleFunc("POST /swarm/abort/{id}", s.handleAbortSession)
	mux.HandleFunc("POST /swarm/worker/{id}", s.handleUpdateWorker)
	mux.HandleFunc("POST /memory/store", s.handleMemoryStore)
	mux.HandleFunc("POST /memory/query", s.handleMemoryQuery)
	mux.HandleFunc("GET /memory/operations", s.handleListMemoryOperations)
	mux.HandleFunc("GET /metrics/agents", s.handleListAgentMetrics)
	mux.HandleFunc("GET /templates", s.handleListTemplates)
	mux.HandleFunc("POST /templates", s.handleCreateTemplate)

	s.server = &http.Server{Handler: mux}
	return s, nil
}

// Addr returns the address the server is listening on (e.g. "127.0.0.1:8787").
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Start begins serving HTTP requests. Call in a goroutine.
func (s *Server) Start() error {
	return s.server.Serve(s.listener)
}

// Stop shuts down the server.
func (s *Server) Stop() error {
	return s.server.Close()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// --- Helpers ---

// ownerFromRequest extracts the owner identity from the bearer token.
// Authentication proper is out of scope; the token is the owner reference.
func ownerFromRequest(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil {
		return true
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, fmt.Sprintf("encoding response: %v", err), http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) logEvent(event eventlog.Event) {
	if s.log == nil {
		return
	}
	if err := s.log.Append(event); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to log %s: %v\n", event.Event, err)
	}
}
