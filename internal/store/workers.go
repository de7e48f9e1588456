package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateWorker attaches a new worker to a session with status "pending".
// If workerID is empty a new one is generated.
func (s *Store) CreateWorker(sessionID, workerID, agentType, agentName, task, metadata string) (*Worker, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: sessionId is required", ErrValidation)
	}
	if agentType == "" {
		return nil, fmt.Errorf("%w: agentType is required", ErrValidation)
	}
	if workerID == "" {
		workerID = uuid.New().String()
	}
	if agentName == "" {
		agentName = agentType
	}
	now := time.Now()

	_, err := s.db.Exec(
		`INSERT INTO workers (id, session_id, agent_type, agent_name, task, status, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		workerID, sessionID, agentType, agentName, task, WorkerPending, metadata, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert worker: %w", err)
	}

	return &Worker{
		ID:        workerID,
		SessionID: sessionID,
		AgentType: agentType,
		AgentName: agentName,
		Task:      task,
		Status:    WorkerPending,
		Metadata:  metadata,
		CreatedAt: now,
	}, nil
}

const workerColumns = `id, session_id, agent_type, agent_name, task, status,
	input_tokens, output_tokens, total_tokens,
	COALESCE(result, ''), COALESCE(error_text, ''), COALESCE(metadata, ''),
	created_at, started_at, completed_at`

func scanWorker(row interface{ Scan(...any) error }) (*Worker, error) {
	var w Worker
	var startedAt, completedAt sql.NullTime
	err := row.Scan(
		&w.ID, &w.SessionID, &w.AgentType, &w.AgentName, &w.Task, &w.Status,
		&w.InputTokens, &w.OutputTokens, &w.TotalTokens,
		&w.Result, &w.ErrorText, &w.Metadata,
		&w.CreatedAt, &startedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}
	if startedAt.Valid {
		t := startedAt.Time
		w.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		w.CompletedAt = &t
	}
	return &w, nil
}

// GetWorker retrieves a worker by ID. Returns nil if no such worker exists.
func (s *Store) GetWorker(id string) (*Worker, error) {
	row := s.db.QueryRow(`SELECT `+workerColumns+` FROM workers WHERE id = ?`, id)

	w, err := scanWorker(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan worker: %w", err)
	}

	return w, nil
}

// ListWorkersBySession returns all workers for a session in creation order.
func (s *Store) ListWorkersBySession(sessionID string) ([]Worker, error) {
	rows, err := s.db.Query(
		`SELECT `+workerColumns+` FROM workers WHERE session_id = ? ORDER BY created_at ASC, id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query workers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var workers []Worker
	for rows.Next() {
		w, err := scanWorker(rows)
		if err != nil {
			return nil, fmt.Errorf("scan worker: %w", err)
		}
		workers = append(workers, *w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return workers, nil
}

// SetWorkerStatus transitions a worker. started_at is set only on the first
// transition into "active" (an existing value is never overwritten);
// completed_at is set when the status becomes completed or failed. A worker
// already in a terminal status is never changed. Returns ErrNotFound if the
// worker does not exist.
func (s *Store) SetWorkerStatus(id, status, result, errText string) error {
	now := time.Now()
	var res sql.Result
	var err error

	switch status {
	case WorkerActive:
		res, err = s.db.Exec(
			`UPDATE workers SET status = ?, started_at = COALESCE(started_at, ?)
			 WHERE id = ? AND status NOT IN (?, ?)`,
			status, now, id, WorkerCompleted, WorkerFailed,
		)
	case WorkerCompleted, WorkerFailed:
		res, err = s.db.Exec(
			`UPDATE workers
			 SET status = ?, result = ?, error_text = ?, completed_at = COALESCE(completed_at, ?)
			 WHERE id = ? AND status NOT IN (?, ?)`,
			status, result, errText, now, id, WorkerCompleted, WorkerFailed,
		)
	case WorkerPending:
		res, err = s.db.Exec(
			`UPDATE workers SET status = ? WHERE id = ? AND status NOT IN (?, ?)`,
			status, id, WorkerCompleted, WorkerFailed,
		)
	default:
		return fmt.Errorf("%w: unknown worker status %q", ErrValidation, status)
	}
	if err != nil {
		return fmt.Errorf("update worker status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if affected == 0 {
		var exists int
		err := s.db.QueryRow(`SELECT 1 FROM workers WHERE id = ?`, id).Scan(&exists)
		if err == sql.ErrNoRows {
			return fmt.Errorf("worker %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("check worker exists: %w", err)
		}
	}

	return nil
}

// SetWorkerTokens records a worker's token usage. The total is always
// recomputed as input + output, never stored independently.
func (s *Store) SetWorkerTokens(id string, inputTokens, outputTokens int) error {
	if inputTokens < 0 || outputTokens < 0 {
		return fmt.Errorf("%w: token counts must be non-negative", ErrValidation)
	}

	res, err := s.db.Exec(
		`UPDATE workers SET input_tokens = ?, output_tokens = ?, total_tokens = ? WHERE id = ?`,
		inputTokens, outputTokens, inputTokens+outputTokens, id,
	)
	if err != nil {
		return fmt.Errorf("update worker tokens: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("worker %s: %w", id, ErrNotFound)
	}

	return nil
}
