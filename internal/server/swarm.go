package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/swarmdock-dev/swarmdock/internal/agents"
	"github.com/swarmdock-dev/swarmdock/internal/eventlog"
	"github.com/swarmdock-dev/swarmdock/internal/runner"
	"github.com/swarmdock-dev/swarmdock/internal/store"
)

func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	if _, ok := ownerFromRequest(r); !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	writeJSON(w, map[string]any{"categories": agents.Catalog()})
}

func (s *Server) handleCreateSwarm(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	var req CreateSwarmRequest
	if !readJSON(w, r, &req) {
		return
	}

	// A template can pre-fill the swarm kind, agent roster, namespace, and
	// task text. Explicit request fields win over template values.
	if req.TemplateID != "" {
		tmpl, err := s.store.GetTemplate(req.TemplateID)
		if err != nil {
			writeErrorFor(w, err)
			return
		}
		if tmpl == nil {
			writeError(w, http.StatusNotFound, "template not found")
			return
		}
		if req.SwarmType == "" {
			req.SwarmType = tmpl.SwarmType
		}
		if len(req.AgentTypes) == 0 {
			req.AgentTypes = tmpl.AgentTypes
		}
		if req.Namespace == "" {
			req.Namespace = tmpl.Namespace
		}
		if req.TaskDescription == "" && tmpl.TaskTemplate != "" {
			req.TaskDescription = store.RenderTask(tmpl.TaskTemplate, map[string]string{
				"projectName": req.ProjectName,
			})
		}
	}

	if req.SwarmType != "" && req.SwarmType != store.SwarmQuick && req.SwarmType != store.SwarmHiveMind {
		writeError(w, http.StatusBadRequest, "swarmType must be \"quick\" or \"hive-mind\"")
		return
	}

	sess, err := s.store.CreateSession(
		owner, req.SwarmType, req.ProjectName, req.ProjectPath,
		req.TaskDescription, req.Namespace, string(req.Metadata),
	)
	if err != nil {
		writeErrorFor(w, err)
		return
	}

	for _, agentType := range req.AgentTypes {
		if _, err := s.store.CreateWorker(sess.ID, "", agentType, "", sess.Task, ""); err != nil {
			writeErrorFor(w, err)
			return
		}
	}

	s.logEvent(eventlog.Event{
		Event:     eventlog.EventSessionCreated,
		SessionID: sess.ID,
		Owner:     owner,
		Project:   sess.ProjectName,
		SwarmType: sess.SwarmType,
		Namespace: sess.Namespace,
	})

	writeJSON(w, CreateSwarmResponse{
		SessionID:   sess.ID,
		Namespace:   sess.Namespace,
		SwarmType:   sess.SwarmType,
		ProjectName: sess.ProjectName,
		Status:      sess.Status,
	})
}

func (s *Server) handleExecuteSwarm(w http.ResponseWriter, r *http.Request) {
	if _, ok := ownerFromRequest(r); !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	var req ExecuteSwarmRequest
	if !readJSON(w, r, &req) {
		return
	}

	sess, err := s.store.GetSession(req.SessionID)
	if err != nil {
		writeErrorFor(w, err)
		return
	}
	if sess == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if req.SwarmType != "" {
		sess.SwarmType = req.SwarmType
	}

	// The subprocess must outlive a disconnected consumer: its lifecycle is
	// bound to the session, not the HTTP request, so the request context is
	// deliberately not used.
	ctx := context.Background()

	if req.Streaming {
		s.executeStreaming(ctx, w, sess, req.TaskDescription)
		return
	}

	result, err := s.runner.Execute(ctx, sess, req.TaskDescription, nil)
	if err != nil {
		writeErrorFor(w, err)
		return
	}

	resp := ExecuteSwarmResponse{
		Success:   result.Success,
		SessionID: sess.ID,
		Duration:  result.Duration.Milliseconds(),
		Output:    result.Output,
		Error:     result.ErrorText,
	}
	if !result.Success {
		// Process failure surfaces as 500 in non-streaming mode only; the
		// body still carries the full result.
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(resp)
		return
	}
	writeJSON(w, resp)
}

// executeStreaming drives an execution while relaying each output chunk as
// one server-sent event. Events for a single session preserve the
// subprocess's emission order; a terminal event closes the stream.
func (s *Server) executeStreaming(ctx context.Context, w http.ResponseWriter, sess *store.Session, task string) {
	sse, err := newSSEWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	_, err = s.runner.Execute(ctx, sess, task, func(ev runner.Event) {
		_ = sse.WriteEvent(ev)
	})
	if err != nil && !sse.Started() {
		writeErrorFor(w, err)
		return
	}
	if err != nil {
		// The stream is already open; the best we can do is a terminal
		// error event.
		_ = sse.WriteEvent(runner.Event{Type: runner.EventError, Message: err.Error(), SessionID: sess.ID})
	}
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	limit := queryInt(r, "limit", 50)
	sessions, err := s.store.ListSessions(owner, r.URL.Query().Get("projectName"), limit)
	if err != nil {
		writeErrorFor(w, err)
		return
	}
	if sessions == nil {
		sessions = []store.Session{}
	}

	writeJSON(w, ListSessionsResponse{Sessions: sessions, Count: len(sessions)})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	if _, ok := ownerFromRequest(r); !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	sess, err := s.store.GetSession(r.PathValue("id"))
	if err != nil {
		writeErrorFor(w, err)
		return
	}
	if sess == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	workers, err := s.store.ListWorkersBySession(sess.ID)
	if err != nil {
		writeErrorFor(w, err)
		return
	}
	if workers == nil {
		workers = []store.Worker{}
	}

	writeJSON(w, SessionDetailsResponse{Session: sess, Workers: workers, WorkerCount: len(workers)})
}

func (s *Server) handleAbortSession(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	id := r.PathValue("id")
	if err := s.store.SetSessionStatus(id, store.StatusAborted, ""); err != nil {
		writeErrorFor(w, err)
		return
	}

	// Best effort: also terminate a live subprocess for this session. The
	// persisted status is already aborted either way.
	s.runner.Abort(id)

	s.logEvent(eventlog.Event{
		Event:     eventlog.EventSessionAborted,
		SessionID: id,
		Owner:     owner,
	})

	writeJSON(w, AbortSessionResponse{SessionID: id, Status: store.StatusAborted})
}

func (s *Server) handleUpdateWorker(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	var req UpdateWorkerRequest
	if !readJSON(w, r, &req) {
		return
	}

	id := r.PathValue("id")
	worker, err := s.store.GetWorker(id)
	if err != nil {
		writeErrorFor(w, err)
		return
	}
	if worker == nil {
		writeError(w, http.StatusNotFound, "worker not found")
		return
	}

	// Workers are reachable only through their session's owner.
	sess, err := s.store.GetSession(worker.SessionID)
	if err != nil {
		writeErrorFor(w, err)
		return
	}
	if sess == nil || sess.Owner != owner {
		writeError(w, http.StatusNotFound, "worker not found")
		return
	}

	if req.InputTokens != nil || req.OutputTokens != nil {
		input := worker.InputTokens
		output := worker.OutputTokens
		if req.InputTokens != nil {
			input = *req.InputTokens
		}
		if req.OutputTokens != nil {
			output = *req.OutputTokens
		}
		if err := s.store.SetWorkerTokens(id, input, output); err != nil {
			writeErrorFor(w, err)
			return
		}
	}

	if req.Status != "" {
		if err := s.store.SetWorkerStatus(id, req.Status, req.Result, req.Error); err != nil {
			writeErrorFor(w, err)
			return
		}
	}

	updated, err := s.store.GetWorker(id)
	if err != nil {
		writeErrorFor(w, err)
		return
	}

	// A worker reaching a terminal status feeds the running agent aggregate
	// exactly once. Repeating a terminal update is a no-op in the store, so a
	// worker that was already terminal must not be counted again.
	wasTerminal := worker.Status == store.WorkerCompleted || worker.Status == store.WorkerFailed
	terminal := req.Status == store.WorkerCompleted || req.Status == store.WorkerFailed
	if terminal && !wasTerminal && updated != nil {
		var completionMs int64
		if updated.StartedAt != nil && updated.CompletedAt != nil {
			completionMs = updated.CompletedAt.Sub(*updated.StartedAt).Milliseconds()
		}
		err := s.store.RecordAgentUsage(
			owner, updated.AgentType,
			updated.InputTokens, updated.OutputTokens,
			completionMs, req.Status == store.WorkerCompleted,
		)
		if err != nil {
			writeErrorFor(w, err)
			return
		}
	}

	writeJSON(w, map[string]any{"worker": updated})
}

// queryInt parses an integer query parameter, falling back to def when the
// parameter is absent or malformed.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
