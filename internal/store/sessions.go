package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateSession inserts a new session with status "active". If namespace is
// empty it is derived from the project name and the creation time in epoch
// milliseconds. Returns ErrValidation if a required field is empty.
func (s *Store) CreateSession(owner, swarmType, projectName, projectPath, task, namespace, metadata string) (*Session, error) {
	switch {
	case projectName == "":
		return nil, fmt.Errorf("%w: projectName is required", ErrValidation)
	case projectPath == "":
		return nil, fmt.Errorf("%w: projectPath is required", ErrValidation)
	case task == "":
		return nil, fmt.Errorf("%w: taskDescription is required", ErrValidation)
	}
	if swarmType == "" {
		swarmType = SwarmQuick
	}

	id := uuid.New().String()
	now := time.Now()
	if namespace == "" {
		namespace = fmt.Sprintf("%s-%d", projectName, now.UnixMilli())
	}

	_, err := s.db.Exec(
		`INSERT INTO sessions (id, owner_id, project_name, project_path, swarm_type, task, status, namespace, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, owner, projectName, projectPath, swarmType, task, StatusActive, namespace, metadata, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	return &Session{
		ID:          id,
		Owner:       owner,
		ProjectName: projectName,
		ProjectPath: projectPath,
		SwarmType:   swarmType,
		Task:        task,
		Status:      StatusActive,
		Namespace:   namespace,
		Metadata:    metadata,
		CreatedAt:   now,
	}, nil
}

const sessionColumns = `id, owner_id, project_name, project_path, swarm_type, task, status, namespace,
	COALESCE(metadata, ''), COALESCE(error_text, ''), created_at, completed_at`

func scanSession(row interface{ Scan(...any) error }) (*Session, error) {
	var sess Session
	var completedAt sql.NullTime
	err := row.Scan(
		&sess.ID, &sess.Owner, &sess.ProjectName, &sess.ProjectPath, &sess.SwarmType,
		&sess.Task, &sess.Status, &sess.Namespace, &sess.Metadata, &sess.ErrorText,
		&sess.CreatedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t := completedAt.Time
		sess.CompletedAt = &t
	}
	return &sess, nil
}

// GetSession retrieves a session by ID. Returns nil if no such session exists.
func (s *Store) GetSession(id string) (*Session, error) {
	row := s.db.QueryRow(
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id,
	)

	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}

	return sess, nil
}

// ListSessions returns the owner's sessions, newest first, optionally
// filtered by project name. A non-positive limit defaults to 50.
func (s *Store) ListSessions(owner, projectName string, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE owner_id = ?`
	args := []any{owner}
	if projectName != "" {
		query += ` AND project_name = ?`
		args = append(args, projectName)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *sess)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return sessions, nil
}

// SetSessionStatus transitions a session to the given status. Terminal
// statuses (completed, failed, aborted) record errText and set completed_at
// once; a session already in a terminal status is never changed again.
// Non-terminal transitions ignore errText. Returns ErrNotFound if no session
// with the given ID exists.
func (s *Store) SetSessionStatus(id, status, errText string) error {
	var result sql.Result
	var err error

	if TerminalStatus(status) {
		result, err = s.db.Exec(
			`UPDATE sessions
			 SET status = ?, error_text = ?, completed_at = COALESCE(completed_at, ?)
			 WHERE id = ? AND status NOT IN (?, ?, ?)`,
			status, errText, time.Now(), id, StatusCompleted, StatusFailed, StatusAborted,
		)
	} else {
		// Non-terminal transitions leave error_text alone; only a terminal
		// outcome carries an error.
		result, err = s.db.Exec(
			`UPDATE sessions SET status = ?
			 WHERE id = ? AND status NOT IN (?, ?, ?)`,
			status, id, StatusCompleted, StatusFailed, StatusAborted,
		)
	}
	if err != nil {
		return fmt.Errorf("update session status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if affected == 0 {
		// Distinguish a missing row from one already in a terminal status:
		// the latter is a valid no-op, the former must be reported.
		var exists int
		err := s.db.QueryRow(`SELECT 1 FROM sessions WHERE id = ?`, id).Scan(&exists)
		if err == sql.ErrNoRows {
			return fmt.Errorf("session %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("check session exists: %w", err)
		}
	}

	return nil
}

// DeleteSession removes a session. Its workers cascade away and any memory
// operations referencing it keep their rows with the session link cleared.
func (s *Store) DeleteSession(id string) error {
	result, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return nil
}
