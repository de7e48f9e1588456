// Package runner invokes the external swarm CLI as a subprocess, relays its
// output, and maps the exit code to a terminal session status.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/swarmdock-dev/swarmdock/internal/eventlog"
	"github.com/swarmdock-dev/swarmdock/internal/store"
)

// Stream event types. The first two are best-effort progress events; the
// last three are terminal and close the stream.
const (
	EventStatus    = "status"
	EventOutput    = "output"
	EventCompleted = "completed"
	EventFailed    = "failed"
	EventError     = "error"
)

// Event is one tagged record relayed to the streaming consumer.
type Event struct {
	Type      string `json:"type"`
	Message   string `json:"message,omitempty"`
	SessionID string `json:"sessionId"`
	Stderr    bool   `json:"stderr,omitempty"`
	Duration  int64  `json:"duration,omitempty"` // milliseconds, terminal events only
	ExitCode  int    `json:"exitCode,omitempty"`
}

// CredentialProvider looks up the API key for an owner. Lookups happen fresh
// on every call; implementations must not cache.
type CredentialProvider interface {
	Credential(owner string) (string, bool)
}

// ErrNoCredential is returned before any subprocess is spawned when the
// owner has no active credential configured.
var ErrNoCredential = errors.New("no credential configured")

// Result summarizes a finished execution.
type Result struct {
	Success   bool          `json:"success"`
	ExitCode  int           `json:"exitCode"` // -1 when the process never spawned
	Duration  time.Duration `json:"-"`
	Output    string        `json:"output,omitempty"`
	ErrorText string        `json:"error,omitempty"`
}

// Runner executes swarm sessions via the external CLI.
type Runner struct {
	store         *store.Store
	spawner       Spawner
	creds         CredentialProvider
	command       string
	credentialEnv string
	log           *eventlog.Logger

	mu   sync.Mutex
	live map[string]Handle // session id -> running subprocess
}

// New creates a Runner. logger may be nil to disable event logging.
func New(st *store.Store, spawner Spawner, creds CredentialProvider, command, credentialEnv string, logger *eventlog.Logger) *Runner {
	return &Runner{
		store:         st,
		spawner:       spawner,
		creds:         creds,
		command:       command,
		credentialEnv: credentialEnv,
		log:           logger,
		live:          make(map[string]Handle),
	}
}

// buildSwarmArgs constructs the CLI argument slice for a swarm invocation.
func buildSwarmArgs(swarmType, task string) []string {
	args := []string{"swarm", task, "--claude"}
	if swarmType == store.SwarmHiveMind {
		args = append(args, "--hive-mind")
	}
	return args
}

// Execute runs the swarm CLI for the given session and relays every output
// chunk through emit as it arrives. The owner's credential is resolved
// before any process is spawned. On exit the session is moved to a terminal
// status: exit code 0 means completed, anything else means failed with the
// accumulated stderr as the error text. A session aborted mid-run keeps its
// aborted status (terminal statuses are monotonic in the store).
//
// Process-level failures are reported in the Result, not the error return;
// the error return is reserved for the missing-credential check and for
// persistence failures. emit may be nil.
func (r *Runner) Execute(ctx context.Context, sess *store.Session, task string, emit func(Event)) (*Result, error) {
	if emit == nil {
		emit = func(Event) {}
	}

	cred, ok := r.creds.Credential(sess.Owner)
	if !ok {
		return nil, fmt.Errorf("owner %s: %w", sess.Owner, ErrNoCredential)
	}

	if task == "" {
		task = sess.Task
	}

	args := buildSwarmArgs(sess.SwarmType, task)
	env := append(os.Environ(), r.credentialEnv+"="+cred)

	r.logEvent(eventlog.Event{
		Event:     eventlog.EventExecuteStarted,
		SessionID: sess.ID,
		Owner:     sess.Owner,
		Project:   sess.ProjectName,
		SwarmType: sess.SwarmType,
	})

	start := time.Now()
	handle, err := r.spawner.Spawn(ctx, r.command, args, sess.ProjectPath, env)
	if err != nil {
		// Spawn-level failure: executable missing, permission denied, etc.
		// Reported distinctly from a nonzero exit but maps to the same
		// terminal state.
		duration := time.Since(start)
		errText := fmt.Sprintf("spawning %s: %v", r.command, err)
		if storeErr := r.store.SetSessionStatus(sess.ID, store.StatusFailed, errText); storeErr != nil {
			return nil, fmt.Errorf("marking session failed: %w", storeErr)
		}
		emit(Event{Type: EventError, Message: errText, SessionID: sess.ID, Duration: duration.Milliseconds(), ExitCode: -1})
		r.logFinished(sess, store.StatusFailed, errText, duration, -1)
		return &Result{Success: false, ExitCode: -1, Duration: duration, ErrorText: errText}, nil
	}

	r.register(sess.ID, handle)
	defer r.unregister(sess.ID)

	emit(Event{Type: EventStatus, Message: "swarm started", SessionID: sess.ID})

	var stdout, stderr strings.Builder
	for chunk := range handle.Output() {
		if chunk.Stderr {
			stderr.Write(chunk.Data)
		} else {
			stdout.Write(chunk.Data)
		}
		emit(Event{Type: EventOutput, Message: string(chunk.Data), SessionID: sess.ID, Stderr: chunk.Stderr})
	}

	waitErr := handle.Wait()
	duration := time.Since(start)

	if waitErr == nil {
		if err := r.store.SetSessionStatus(sess.ID, store.StatusCompleted, ""); err != nil {
			return nil, fmt.Errorf("marking session completed: %w", err)
		}
		emit(Event{Type: EventCompleted, SessionID: sess.ID, Duration: duration.Milliseconds()})
		r.logFinished(sess, store.StatusCompleted, "", duration, 0)
		return &Result{Success: true, ExitCode: 0, Duration: duration, Output: stdout.String()}, nil
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		exitCode = exitErr.ExitCode()
	}

	errText := strings.TrimSpace(stderr.String())
	if errText == "" {
		errText = waitErr.Error()
	}

	if err := r.store.SetSessionStatus(sess.ID, store.StatusFailed, errText); err != nil {
		return nil, fmt.Errorf("marking session failed: %w", err)
	}
	emit(Event{Type: EventFailed, Message: errText, SessionID: sess.ID, Duration: duration.Milliseconds(), ExitCode: exitCode})
	r.logFinished(sess, store.StatusFailed, errText, duration, exitCode)

	return &Result{
		Success:   false,
		ExitCode:  exitCode,
		Duration:  duration,
		Output:    stdout.String(),
		ErrorText: errText,
	}, nil
}

// RunOnce runs the CLI with the given arguments to completion without
// streaming, returning accumulated stdout and the wall-clock duration. Used
// for memory store/query operations. The owner's credential is injected when
// configured but is not required.
func (r *Runner) RunOnce(ctx context.Context, owner string, args []string, dir string) (string, time.Duration, error) {
	env := os.Environ()
	if cred, ok := r.creds.Credential(owner); ok {
		env = append(env, r.credentialEnv+"="+cred)
	}

	start := time.Now()
	handle, err := r.spawner.Spawn(ctx, r.command, args, dir, env)
	if err != nil {
		return "", time.Since(start), fmt.Errorf("spawning %s: %w", r.command, err)
	}

	var stdout, stderr strings.Builder
	for chunk := range handle.Output() {
		if chunk.Stderr {
			stderr.Write(chunk.Data)
		} else {
			stdout.Write(chunk.Data)
		}
	}

	if err := handle.Wait(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return stdout.String(), time.Since(start), fmt.Errorf("%s exited: %s", r.command, msg)
	}

	return stdout.String(), time.Since(start), nil
}

// Abort kills the live subprocess for a session, if one is running. The
// persisted status change is the caller's responsibility. Returns whether a
// process was found.
func (r *Runner) Abort(sessionID string) bool {
	r.mu.Lock()
	handle, ok := r.live[sessionID]
	r.mu.Unlock()
	if !ok {
		return false
	}
	_ = handle.Kill()
	return true
}

func (r *Runner) register(sessionID string, h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.live[sessionID] = h
}

func (r *Runner) unregister(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.live, sessionID)
}

func (r *Runner) logEvent(event eventlog.Event) {
	if r.log == nil {
		return
	}
	if err := r.log.Append(event); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to log %s: %v\n", event.Event, err)
	}
}

func (r *Runner) logFinished(sess *store.Session, status, errText string, duration time.Duration, exitCode int) {
	r.logEvent(eventlog.Event{
		Event:      eventlog.EventExecuteFinished,
		SessionID:  sess.ID,
		Owner:      sess.Owner,
		Status:     status,
		Error:      errText,
		DurationMs: duration.Milliseconds(),
		ExitCode:   exitCode,
	})
}
