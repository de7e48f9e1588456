package server

import (
	"net/http"

	"github.com/swarmdock-dev/swarmdock/internal/store"
)

func (s *Server) handleListAgentMetrics(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	metrics, err := s.store.ListAgentMetrics(owner, r.URL.Query().Get("agentType"))
	if err != nil {
		writeErrorFor(w, err)
		return
	}
	if metrics == nil {
		metrics = []store.AgentMetric{}
	}

	writeJSON(w, ListAgentMetricsResponse{Metrics: metrics, Count: len(metrics)})
}
