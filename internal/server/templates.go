package server

import (
	"net/http"

	"github.com/swarmdock-dev/swarmdock/internal/store"
)

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	templates, err := s.store.ListTemplates(owner)
	if err != nil {
		writeErrorFor(w, err)
		return
	}
	if templates == nil {
		templates = []store.Template{}
	}

	writeJSON(w, ListTemplatesResponse{Templates: templates, Count: len(templates)})
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	var req CreateTemplateRequest
	if !readJSON(w, r, &req) {
		return
	}

	if req.SwarmType != "" && req.SwarmType != store.SwarmQuick && req.SwarmType != store.SwarmHiveMind {
		writeError(w, http.StatusBadRequest, "swarmType must be \"quick\" or \"hive-mind\"")
		return
	}

	tmpl, err := s.store.CreateTemplate(owner, req.Name, req.SwarmType, req.AgentTypes, req.Namespace, req.TaskTemplate)
	if err != nil {
		writeErrorFor(w, err)
		return
	}

	writeJSON(w, tmpl)
}
