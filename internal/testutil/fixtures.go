// Package testutil provides test helper utilities for swarmdock tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/swarmdock-dev/swarmdock/internal/runner"
	"github.com/swarmdock-dev/swarmdock/internal/store"
)

// TempStore opens a SQLite store backed by a temporary file and closes it
// when the test finishes.
func TempStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.NewStore(filepath.Join(t.TempDir(), "swarmdock.db"))
	if err != nil {
		t.Fatalf("opening temp store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// StaticCredentials is a map-backed credential provider for tests.
type StaticCredentials map[string]string

// Credential implements runner.CredentialProvider.
func (c StaticCredentials) Credential(owner string) (string, bool) {
	key, ok := c[owner]
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

// FakeSpawner scripts subprocess behavior without running a real process.
// Stdout and Stderr are emitted as single chunks; ExitErr is returned from
// Wait. SpawnErr, when set, fails the spawn itself and nothing is emitted.
type FakeSpawner struct {
	SpawnErr error
	Stdout   string
	Stderr   string
	ExitErr  error

	Spawned     int
	LastCommand string
	LastArgs    []string
	LastDir     string
	LastEnv     []string
}

// Spawn implements runner.Spawner.
func (f *FakeSpawner) Spawn(_ context.Context, command string, args []string, dir string, env []string) (runner.Handle, error) {
	f.LastCommand = command
	f.LastArgs = args
	f.LastDir = dir
	f.LastEnv = env
	if f.SpawnErr != nil {
		return nil, f.SpawnErr
	}
	f.Spawned++

	ch := make(chan runner.Chunk, 2)
	if f.Stdout != "" {
		ch <- runner.Chunk{Data: []byte(f.Stdout)}
	}
	if f.Stderr != "" {
		ch <- runner.Chunk{Data: []byte(f.Stderr), Stderr: true}
	}
	close(ch)

	return &fakeHandle{ch: ch, exitErr: f.ExitErr}, nil
}

type fakeHandle struct {
	ch      chan runner.Chunk
	exitErr error
}

func (h *fakeHandle) Output() <-chan runner.Chunk { return h.ch }
func (h *fakeHandle) Wait() error                 { return h.exitErr }
func (h *fakeHandle) Kill() error                 { return nil }
