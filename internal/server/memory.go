package server

import (
	"net/http"
	"strings"

	"github.com/swarmdock-dev/swarmdock/internal/eventlog"
	"github.com/swarmdock-dev/swarmdock/internal/store"
)

func (s *Server) handleMemoryStore(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	var req MemoryStoreRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.Namespace == "" || req.Key == "" {
		writeError(w, http.StatusBadRequest, "namespace and key are required")
		return
	}

	args := []string{"memory", "store", req.Key, req.Content, "--namespace", req.Namespace}
	_, latency, runErr := s.runner.RunOnce(r.Context(), owner, args, req.ProjectPath)

	op := store.MemoryOperation{
		Owner:     owner,
		Kind:      store.MemoryStore,
		Namespace: req.Namespace,
		Key:       req.Key,
		LatencyMs: latency.Milliseconds(),
		Success:   runErr == nil,
		SessionID: req.SessionID,
	}
	if runErr == nil {
		op.ResultCount = 1
	} else {
		op.ErrorText = runErr.Error()
	}
	if _, err := s.store.AppendMemoryOperation(op); err != nil {
		writeErrorFor(w, err)
		return
	}

	s.logEvent(eventlog.Event{
		Event:      eventlog.EventMemoryOperation,
		Owner:      owner,
		Namespace:  req.Namespace,
		Status:     op.Kind,
		DurationMs: op.LatencyMs,
		Error:      op.ErrorText,
	})

	resp := MemoryStoreResponse{
		Success:   runErr == nil,
		Namespace: req.Namespace,
		Key:       req.Key,
		Latency:   latency.Milliseconds(),
	}
	if runErr != nil {
		resp.Error = runErr.Error()
	}
	writeJSON(w, resp)
}

func (s *Server) handleMemoryQuery(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	var req MemoryQueryRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.Namespace == "" || req.Query == "" {
		writeError(w, http.StatusBadRequest, "namespace and query are required")
		return
	}

	kind := req.OperationType
	switch kind {
	case "":
		kind = store.MemoryQuery
	case store.MemoryQuery, store.MemorySearch, store.MemoryStore, store.MemoryVectorStore:
	default:
		writeError(w, http.StatusBadRequest, "unknown operationType")
		return
	}

	args := []string{"memory", "query", req.Query, "--namespace", req.Namespace}
	output, latency, runErr := s.runner.RunOnce(r.Context(), owner, args, req.ProjectPath)

	var results []string
	for _, line := range strings.Split(output, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			results = append(results, line)
		}
	}
	if results == nil {
		results = []string{}
	}

	op := store.MemoryOperation{
		Owner:       owner,
		Kind:        kind,
		Namespace:   req.Namespace,
		Query:       req.Query,
		ResultCount: len(results),
		LatencyMs:   latency.Milliseconds(),
		Success:     runErr == nil,
		SessionID:   req.SessionID,
	}
	if runErr != nil {
		op.ErrorText = runErr.Error()
	}
	if _, err := s.store.AppendMemoryOperation(op); err != nil {
		writeErrorFor(w, err)
		return
	}

	s.logEvent(eventlog.Event{
		Event:      eventlog.EventMemoryOperation,
		Owner:      owner,
		Namespace:  req.Namespace,
		Status:     kind,
		DurationMs: op.LatencyMs,
		Error:      op.ErrorText,
	})

	resp := MemoryQueryResponse{
		Success:     runErr == nil,
		Results:     results,
		ResultCount: len(results),
		Latency:     latency.Milliseconds(),
	}
	if runErr != nil {
		resp.Error = runErr.Error()
	}
	writeJSON(w, resp)
}

func (s *Server) handleListMemoryOperations(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	limit := queryInt(r, "limit", 50)
	ops, err := s.store.ListMemoryOperations(owner, limit, r.URL.Query().Get("namespace"))
	if err != nil {
		writeErrorFor(w, err)
		return
	}
	if ops == nil {
		ops = []store.MemoryOperation{}
	}

	writeJSON(w, ListMemoryOperationsResponse{Operations: ops, Count: len(ops)})
}
