// Package store provides SQLite-backed persistence for swarm sessions,
// workers, memory operations, agent metrics, and templates.
package store

import "time"

// Session statuses. A session starts active and moves to exactly one of the
// terminal statuses, after which it never changes again.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusAborted   = "aborted"
)

// Worker statuses.
const (
	WorkerPending   = "pending"
	WorkerActive    = "active"
	WorkerCompleted = "completed"
	WorkerFailed    = "failed"
)

// Swarm session kinds.
const (
	SwarmQuick    = "quick"
	SwarmHiveMind = "hive-mind"
)

// Memory operation kinds.
const (
	MemoryStore       = "store"
	MemoryQuery       = "query"
	MemoryVectorStore = "store-vector"
	MemorySearch      = "vector-search"
)

// TerminalStatus reports whether a session status is terminal.
func TerminalStatus(status string) bool {
	return status == StatusCompleted || status == StatusFailed || status == StatusAborted
}

// Session represents one unit of delegated swarm work tracked from creation
// through a terminal outcome.
type Session struct {
	ID          string     `json:"sessionId"`
	Owner       string     `json:"ownerId"`
	ProjectName string     `json:"projectName"`
	ProjectPath string     `json:"projectPath"`
	SwarmType   string     `json:"swarmType"`
	Task        string     `json:"taskDescription"`
	Status      string     `json:"status"`
	Namespace   string     `json:"namespace"`
	Metadata    string     `json:"metadata,omitempty"` // opaque serialized blob
	ErrorText   string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Worker represents one agent-type's sub-task within a session.
type Worker struct {
	ID           string     `json:"workerId"`
	SessionID    string     `json:"sessionId"`
	AgentType    string     `json:"agentType"`
	AgentName    string     `json:"agentName"`
	Task         string     `json:"task"`
	Status       string     `json:"status"`
	InputTokens  int        `json:"inputTokens"`
	OutputTokens int        `json:"outputTokens"`
	TotalTokens  int        `json:"totalTokens"`
	Result       string     `json:"result,omitempty"`
	ErrorText    string     `json:"error,omitempty"`
	Metadata     string     `json:"metadata,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	StartedAt    *time.Time `json:"startedAt,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

// MemoryOperation is one immutable entry in the memory operation log.
type MemoryOperation struct {
	ID          int64     `json:"id"`
	Owner       string    `json:"ownerId"`
	Kind        string    `json:"operationType"`
	Namespace   string    `json:"namespace"`
	Key         string    `json:"key,omitempty"`
	Query       string    `json:"query,omitempty"`
	ResultCount int       `json:"resultCount"`
	LatencyMs   int64     `json:"latencyMs"`
	Success     bool      `json:"success"`
	ErrorText   string    `json:"error,omitempty"`
	SessionID   string    `json:"sessionId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// AgentMetric is the running usage aggregate for one (owner, agent type) pair.
type AgentMetric struct {
	ID                int64     `json:"id"`
	Owner             string    `json:"ownerId"`
	AgentType         string    `json:"agentType"`
	UsageCount        int       `json:"usageCount"`
	TotalInputTokens  int64     `json:"totalInputTokens"`
	TotalOutputTokens int64     `json:"totalOutputTokens"`
	TotalTokens       int64     `json:"totalTokens"`
	AvgCompletionMs   float64   `json:"avgCompletionMs"`
	SuccessRate       float64   `json:"successRate"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Template is a named, reusable swarm configuration. A template with an empty
// owner is system-owned and visible to everyone.
type Template struct {
	ID           string    `json:"templateId"`
	Owner        string    `json:"ownerId,omitempty"`
	Name         string    `json:"name"`
	SwarmType    string    `json:"swarmType"`
	AgentTypes   []string  `json:"agentTypes"`
	Namespace    string    `json:"namespace,omitempty"`
	TaskTemplate string    `json:"taskTemplate,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}
