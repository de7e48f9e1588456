package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CreateTemplate inserts a reusable swarm configuration. An empty owner makes
// the template system-owned and visible to all owners.
func (s *Store) CreateTemplate(owner, name, swarmType string, agentTypes []string, namespace, taskTemplate string) (*Template, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if swarmType == "" {
		swarmType = SwarmQuick
	}

	id := uuid.New().String()
	now := time.Now()

	encoded, err := json.Marshal(agentTypes)
	if err != nil {
		return nil, fmt.Errorf("encode agent types: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO templates (id, owner_id, name, swarm_type, agent_types, namespace, task_template, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, owner, name, swarmType, string(encoded), namespace, taskTemplate, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert template: %w", err)
	}

	return &Template{
		ID:           id,
		Owner:        owner,
		Name:         name,
		SwarmType:    swarmType,
		AgentTypes:   agentTypes,
		Namespace:    namespace,
		TaskTemplate: taskTemplate,
		CreatedAt:    now,
	}, nil
}

const templateColumns = `id, owner_id, name, swarm_type, agent_types,
	COALESCE(namespace, ''), COALESCE(task_template, ''), created_at`

func scanTemplate(row interface{ Scan(...any) error }) (*Template, error) {
	var t Template
	var encoded string
	err := row.Scan(&t.ID, &t.Owner, &t.Name, &t.SwarmType, &encoded, &t.Namespace, &t.TaskTemplate, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(encoded), &t.AgentTypes); err != nil {
		return nil, fmt.Errorf("decode agent types: %w", err)
	}
	return &t, nil
}

// GetTemplate retrieves a template by ID. Returns nil if no such template exists.
func (s *Store) GetTemplate(id string) (*Template, error) {
	row := s.db.QueryRow(`SELECT `+templateColumns+` FROM templates WHERE id = ?`, id)

	t, err := scanTemplate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan template: %w", err)
	}

	return t, nil
}

// ListTemplates returns system templates plus the owner's own templates,
// system ones first, then by name.
func (s *Store) ListTemplates(owner string) ([]Template, error) {
	rows, err := s.db.Query(
		`SELECT `+templateColumns+` FROM templates
		 WHERE owner_id = '' OR owner_id = ?
		 ORDER BY owner_id ASC, name ASC`,
		owner,
	)
	if err != nil {
		return nil, fmt.Errorf("query templates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var templates []Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, *t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return templates, nil
}

// RenderTask substitutes {{placeholder}} occurrences in a template's task
// text with the given values. Unknown placeholders are left untouched.
func RenderTask(taskTemplate string, values map[string]string) string {
	rendered := taskTemplate
	for key, value := range values {
		rendered = strings.ReplaceAll(rendered, "{{"+key+"}}", value)
	}
	return rendered
}
