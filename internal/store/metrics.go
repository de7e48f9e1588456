package store

import (
	"fmt"
	"time"
)

// RecordAgentUsage folds one completed agent task into the running aggregate
// for (owner, agentType). The averages are recomputed as
// (old_avg * old_count + new_value) / new_count in a single upsert statement,
// so the stored success rate is always bounded by its inputs and stays
// within [0, 1].
func (s *Store) RecordAgentUsage(owner, agentType string, inputTokens, outputTokens int, completionMs int64, success bool) error {
	if agentType == "" {
		return fmt.Errorf("%w: agentType is required", ErrValidation)
	}
	if inputTokens < 0 || outputTokens < 0 || completionMs < 0 {
		return fmt.Errorf("%w: token counts and completion time must be non-negative", ErrValidation)
	}

	successValue := 0.0
	if success {
		successValue = 1.0
	}
	now := time.Now()

	_, err := s.db.Exec(
		`INSERT INTO agent_metrics (owner_id, agent_type, usage_count, total_input_tokens, total_output_tokens, total_tokens, avg_completion_ms, success_rate, updated_at)
		 VALUES (?, ?, 1, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (owner_id, agent_type) DO UPDATE SET
			usage_count = agent_metrics.usage_count + 1,
			total_input_tokens = agent_metrics.total_input_tokens + excluded.total_input_tokens,
			total_output_tokens = agent_metrics.total_output_tokens + excluded.total_output_tokens,
			total_tokens = agent_metrics.total_tokens + excluded.total_tokens,
			avg_completion_ms = (agent_metrics.avg_completion_ms * agent_metrics.usage_count + excluded.avg_completion_ms)
				/ (agent_metrics.usage_count + 1),
			success_rate = (agent_metrics.success_rate * agent_metrics.usage_count + excluded.success_rate)
				/ (agent_metrics.usage_count + 1),
			updated_at = excluded.updated_at`,
		owner, agentType, inputTokens, outputTokens, inputTokens+outputTokens,
		float64(completionMs), successValue, now,
	)
	if err != nil {
		return fmt.Errorf("record agent usage: %w", err)
	}

	return nil
}

// ListAgentMetrics returns the owner's agent metrics, optionally filtered to
// a single agent type, ordered by usage count descending.
func (s *Store) ListAgentMetrics(owner, agentType string) ([]AgentMetric, error) {
	query := `SELECT id, owner_id, agent_type, usage_count, total_input_tokens, total_output_tokens, total_tokens, avg_completion_ms, success_rate, updated_at
		FROM agent_metrics WHERE owner_id = ?`
	args := []any{owner}
	if agentType != "" {
		query += ` AND agent_type = ?`
		args = append(args, agentType)
	}
	query += ` ORDER BY usage_count DESC, agent_type ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query agent metrics: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var metrics []AgentMetric
	for rows.Next() {
		var m AgentMetric
		if err := rows.Scan(
			&m.ID, &m.Owner, &m.AgentType, &m.UsageCount,
			&m.TotalInputTokens, &m.TotalOutputTokens, &m.TotalTokens,
			&m.AvgCompletionMs, &m.SuccessRate, &m.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan agent metric: %w", err)
		}
		metrics = append(metrics, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return metrics, nil
}
