package server

import (
	"encoding/json"

	"github.com/swarmdock-dev/swarmdock/internal/store"
)

// CreateSwarmRequest is the body of POST /swarm/create.
type CreateSwarmRequest struct {
	ProjectName     string          `json:"projectName"`
	ProjectPath     string          `json:"projectPath"`
	TaskDescription string          `json:"taskDescription"`
	SwarmType       string          `json:"swarmType"`
	AgentTypes      []string        `json:"agentTypes"`
	Namespace       string          `json:"namespace,omitempty"`
	TemplateID      string          `json:"templateId,omitempty"`
	Metadata        json.RawMessage `json:"metadata,omitempty"`
}

// CreateSwarmResponse is the body returned by POST /swarm/create.
type CreateSwarmResponse struct {
	SessionID   string `json:"sessionId"`
	Namespace   string `json:"namespace"`
	SwarmType   string `json:"swarmType"`
	ProjectName string `json:"projectName"`
	Status      string `json:"status"`
}

// ExecuteSwarmRequest is the body of POST /swarm/execute.
type ExecuteSwarmRequest struct {
	SessionID       string `json:"sessionId"`
	TaskDescription string `json:"taskDescription,omitempty"`
	SwarmType       string `json:"swarmType,omitempty"`
	Streaming       bool   `json:"streaming"`
}

// ExecuteSwarmResponse is the non-streaming body returned by POST /swarm/execute.
type ExecuteSwarmResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"sessionId"`
	Duration  int64  `json:"duration"` // milliseconds
	Output    string `json:"output,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ListSessionsResponse is the body returned by GET /swarm/sessions.
type ListSessionsResponse struct {
	Sessions []store.Session `json:"sessions"`
	Count    int             `json:"count"`
}

// SessionDetailsResponse is the body returned by GET /swarm/session/{id}.
type SessionDetailsResponse struct {
	Session     *store.Session `json:"session"`
	Workers     []store.Worker `json:"workers"`
	WorkerCount int            `json:"workerCount"`
}

// AbortSessionResponse is the body returned by POST /swarm/abort/{id}.
type AbortSessionResponse struct {
	SessionID string `json:"sessionId"`
	Status    string `json:"status"`
}

// UpdateWorkerRequest is the body of POST /swarm/worker/{id}.
type UpdateWorkerRequest struct {
	Status       string `json:"status,omitempty"`
	Result       string `json:"result,omitempty"`
	Error        string `json:"error,omitempty"`
	InputTokens  *int   `json:"inputTokens,omitempty"`
	OutputTokens *int   `json:"outputTokens,omitempty"`
}

// MemoryStoreRequest is the body of POST /memory/store.
type MemoryStoreRequest struct {
	Namespace   string `json:"namespace"`
	Key         string `json:"key"`
	Content     string `json:"content"`
	ProjectPath string `json:"projectPath,omitempty"`
	SessionID   string `json:"sessionId,omitempty"`
}

// MemoryStoreResponse is the body returned by POST /memory/store.
type MemoryStoreResponse struct {
	Success   bool   `json:"success"`
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Latency   int64  `json:"latency"` // milliseconds
	Error     string `json:"error,omitempty"`
}

// MemoryQueryRequest is the body of POST /memory/query.
type MemoryQueryRequest struct {
	Namespace     string `json:"namespace"`
	Query         string `json:"query"`
	OperationType string `json:"operationType,omitempty"`
	ProjectPath   string `json:"projectPath,omitempty"`
	SessionID     string `json:"sessionId,omitempty"`
}

// MemoryQueryResponse is the body returned by POST /memory/query.
type MemoryQueryResponse struct {
	Success     bool     `json:"success"`
	Results     []string `json:"results"`
	ResultCount int      `json:"resultCount"`
	Latency     int64    `json:"latency"` // milliseconds
	Error       string   `json:"error,omitempty"`
}

// ListMemoryOperationsResponse is the body returned by GET /memory/operations.
type ListMemoryOperationsResponse struct {
	Operations []store.MemoryOperation `json:"operations"`
	Count      int                     `json:"count"`
}

// ListAgentMetricsResponse is the body returned by GET /metrics/agents.
type ListAgentMetricsResponse struct {
	Metrics []store.AgentMetric `json:"metrics"`
	Count   int                 `json:"count"`
}

// CreateTemplateRequest is the body of POST /templates.
type CreateTemplateRequest struct {
	Name         string   `json:"name"`
	SwarmType    string   `json:"swarmType"`
	AgentTypes   []string `json:"agentTypes"`
	Namespace    string   `json:"namespace,omitempty"`
	TaskTemplate string   `json:"taskTemplate,omitempty"`
}

// ListTemplatesResponse is the body returned by GET /templates.
type ListTemplatesResponse struct {
	Templates []store.Template `json:"templates"`
	Count     int              `json:"count"`
}
