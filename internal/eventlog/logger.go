// Package eventlog provides structured event logging.
// This file appends JSON events to events.jsonl.
package eventlog

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Event type constants.
const (
	EventServerStarted   = "server_started"
	EventSessionCreated  = "session_created"
	EventExecuteStarted  = "execute_started"
	EventExecuteFinished = "execute_finished"
	EventSessionAborted  = "session_aborted"
	EventMemoryOperation = "memory_operation"
)

// Event represents a single structured event written to the log.
type Event struct {
	Time       time.Time      `json:"time"`
	Event      string         `json:"event"`
	SessionID  string         `json:"session,omitempty"`
	Owner      string         `json:"owner,omitempty"`
	Project    string         `json:"project,omitempty"`
	SwarmType  string         `json:"swarm_type,omitempty"`
	Namespace  string         `json:"namespace,omitempty"`
	Status     string         `json:"status,omitempty"`
	Error      string         `json:"error,omitempty"`
	DurationMs int64          `json:"duration_ms,omitempty"`
	ExitCode   int            `json:"exit_code,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
}

// Logger writes append-only JSONL events to a log file.
type Logger struct {
	path string
	mu   sync.Mutex
}

// NewLogger creates a Logger that writes to .swarmdock/events.jsonl inside dir.
// Creates the .swarmdock/ directory if it does not already exist.
// Does not truncate an existing log file.
func NewLogger(dir string) (*Logger, error) {
	logDir := filepath.Join(dir, ".swarmdock")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("create .swarmdock directory: %w", err)
	}

	return &Logger{
		path: filepath.Join(logDir, "events.jsonl"),
	}, nil
}

// Append writes a single Event as one JSON line to the log file.
// If event.Time is the zero value, it is automatically set to time.Now().UTC().
// The file is opened in append mode, written to, and then closed.
// Thread-safe via mutex.
func (l *Logger) Append(event Event) error {
	if event.Time.IsZero() {
		event.Time = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal log event: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write log event: %w", err)
	}

	return nil
}

// ReadAll reads and parses all events from the log file.
// Returns an empty slice (not an error) if the file does not exist.
func (l *Logger) ReadAll() ([]Event, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Event{}, nil
		}
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			return nil, fmt.Errorf("parse log line %d: %w", lineNum, err)
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log file: %w", err)
	}

	return events, nil
}
