package store

import (
	"database/sql"
	"fmt"
	"time"
)

// AppendMemoryOperation inserts one immutable memory operation log entry.
// Entries are never updated after insertion. The SessionID link is optional;
// an empty value is stored as NULL so session deletion can detach it.
func (s *Store) AppendMemoryOperation(op MemoryOperation) (*MemoryOperation, error) {
	if op.Namespace == "" {
		return nil, fmt.Errorf("%w: namespace is required", ErrValidation)
	}
	if op.ResultCount < 0 || op.LatencyMs < 0 {
		return nil, fmt.Errorf("%w: resultCount and latencyMs must be non-negative", ErrValidation)
	}

	op.CreatedAt = time.Now()

	var sessionID any
	if op.SessionID != "" {
		sessionID = op.SessionID
	}

	result, err := s.db.Exec(
		`INSERT INTO memory_operations (owner_id, kind, namespace, key, query, result_count, latency_ms, success, error_text, session_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		op.Owner, op.Kind, op.Namespace, op.Key, op.Query,
		op.ResultCount, op.LatencyMs, op.Success, op.ErrorText, sessionID, op.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert memory operation: %w", err)
	}

	op.ID, err = result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return &op, nil
}

// ListMemoryOperations returns the owner's memory operations, newest first,
// optionally filtered by namespace. A non-positive limit defaults to 50.
func (s *Store) ListMemoryOperations(owner string, limit int, namespace string) ([]MemoryOperation, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, owner_id, kind, namespace, COALESCE(key, ''), COALESCE(query, ''),
		result_count, latency_ms, success, COALESCE(error_text, ''), session_id, created_at
		FROM memory_operations WHERE owner_id = ?`
	args := []any{owner}
	if namespace != "" {
		query += ` AND namespace = ?`
		args = append(args, namespace)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query memory operations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ops []MemoryOperation
	for rows.Next() {
		var op MemoryOperation
		var sessionID sql.NullString
		if err := rows.Scan(
			&op.ID, &op.Owner, &op.Kind, &op.Namespace, &op.Key, &op.Query,
			&op.ResultCount, &op.LatencyMs, &op.Success, &op.ErrorText, &sessionID, &op.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan memory operation: %w", err)
		}
		op.SessionID = sessionID.String
		ops = append(ops, op)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return ops, nil
}
