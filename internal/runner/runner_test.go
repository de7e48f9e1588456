package runner_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/swarmdock-dev/swarmdock/internal/runner"
	"github.com/swarmdock-dev/swarmdock/internal/store"
	"github.com/swarmdock-dev/swarmdock/internal/testutil"
)

func newTestRunner(t *testing.T, spawner runner.Spawner, creds testutil.StaticCredentials) (*runner.Runner, *store.Store) {
	t.Helper()
	st := testutil.TempStore(t)
	return runner.New(st, spawner, creds, "claude-flow", "ANTHROPIC_API_KEY", nil), st
}

func createSession(t *testing.T, st *store.Store, swarmType string) *store.Session {
	t.Helper()
	sess, err := st.CreateSession("alice", swarmType, "acme", "/tmp/acme", "fix the bug", "", "")
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	return sess
}

func TestExecuteSuccess(t *testing.T) {
	fake := &testutil.FakeSpawner{Stdout: "swarm output\n"}
	r, st := newTestRunner(t, fake, testutil.StaticCredentials{"alice": "sk-test"})
	sess := createSession(t, st, store.SwarmQuick)

	var events []runner.Event
	result, err := r.Execute(context.Background(), sess, "", func(e runner.Event) {
		events = append(events, e)
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !result.Success || result.ExitCode != 0 {
		t.Errorf("result: got success=%v exit=%d, want success with exit 0", result.Success, result.ExitCode)
	}
	if result.Output != "swarm output\n" {
		t.Errorf("output: got %q", result.Output)
	}

	got, err := st.GetSession(sess.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.Status != store.StatusCompleted {
		t.Errorf("session status: got %q, want completed", got.Status)
	}

	if len(events) < 3 {
		t.Fatalf("got %d events, want status + output + completed", len(events))
	}
	if events[0].Type != runner.EventStatus {
		t.Errorf("first event: got %q, want status", events[0].Type)
	}
	last := events[len(events)-1]
	if last.Type != runner.EventCompleted {
		t.Errorf("last event: got %q, want completed", last.Type)
	}
}

func TestExecuteMissingCredential(t *testing.T) {
	fake := &testutil.FakeSpawner{Stdout: "should never run"}
	r, st := newTestRunner(t, fake, testutil.StaticCredentials{})
	sess := createSession(t, st, store.SwarmQuick)

	_, err := r.Execute(context.Background(), sess, "", nil)
	if !errors.Is(err, runner.ErrNoCredential) {
		t.Fatalf("got %v, want ErrNoCredential", err)
	}

	// The credential check happens before any process is spawned.
	if fake.Spawned != 0 || fake.LastCommand != "" {
		t.Errorf("subprocess spawned despite missing credential")
	}

	got, err := st.GetSession(sess.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.Status != store.StatusActive {
		t.Errorf("session status moved to %q without any execution", got.Status)
	}
}

func TestExecuteSpawnError(t *testing.T) {
	fake := &testutil.FakeSpawner{SpawnErr: errors.New("executable file not found")}
	r, st := newTestRunner(t, fake, testutil.StaticCredentials{"alice": "sk-test"})
	sess := createSession(t, st, store.SwarmQuick)

	var events []runner.Event
	result, err := r.Execute(context.Background(), sess, "", func(e runner.Event) {
		events = append(events, e)
	})
	if err != nil {
		t.Fatalf("Execute returned error for spawn failure: %v", err)
	}
	if result.Success || result.ExitCode != -1 {
		t.Errorf("result: got success=%v exit=%d, want failure with exit -1", result.Success, result.ExitCode)
	}
	if !strings.Contains(result.ErrorText, "spawning claude-flow") {
		t.Errorf("error text does not name the spawn failure: %q", result.ErrorText)
	}

	got, err := st.GetSession(sess.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.Status != store.StatusFailed {
		t.Errorf("session status: got %q, want failed", got.Status)
	}

	// Spawn failures are reported with the error event type, not failed.
	if len(events) != 1 || events[0].Type != runner.EventError {
		t.Errorf("events: got %v, want a single error event", events)
	}
}

func TestExecuteNonzeroExit(t *testing.T) {
	fake := &testutil.FakeSpawner{
		Stdout:  "partial progress\n",
		Stderr:  "something broke\n",
		ExitErr: errors.New("exit status 1"),
	}
	r, st := newTestRunner(t, fake, testutil.StaticCredentials{"alice": "sk-test"})
	sess := createSession(t, st, store.SwarmQuick)

	var events []runner.Event
	result, err := r.Execute(context.Background(), sess, "", func(e runner.Event) {
		events = append(events, e)
	})
	if err != nil {
		t.Fatalf("Execute returned error for process failure: %v", err)
	}
	if result.Success {
		t.Error("result marked success for nonzero exit")
	}
	if result.ErrorText != "something broke" {
		t.Errorf("error text: got %q, want captured stderr", result.ErrorText)
	}

	got, err := st.GetSession(sess.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.Status != store.StatusFailed || got.ErrorText != "something broke" {
		t.Errorf("session not failed with stderr: %+v", got)
	}

	last := events[len(events)-1]
	if last.Type != runner.EventFailed {
		t.Errorf("last event: got %q, want failed", last.Type)
	}
}

func TestExecuteBuildsSwarmArgs(t *testing.T) {
	cases := []struct {
		swarmType string
		want      []string
	}{
		{store.SwarmQuick, []string{"swarm", "fix the bug", "--claude"}},
		{store.SwarmHiveMind, []string{"swarm", "fix the bug", "--claude", "--hive-mind"}},
	}
	for _, tc := range cases {
		t.Run(tc.swarmType, func(t *testing.T) {
			fake := &testutil.FakeSpawner{}
			r, st := newTestRunner(t, fake, testutil.StaticCredentials{"alice": "sk-test"})
			sess := createSession(t, st, tc.swarmType)

			if _, err := r.Execute(context.Background(), sess, "", nil); err != nil {
				t.Fatalf("Execute failed: %v", err)
			}

			if fake.LastCommand != "claude-flow" {
				t.Errorf("command: got %q", fake.LastCommand)
			}
			if len(fake.LastArgs) != len(tc.want) {
				t.Fatalf("args: got %v, want %v", fake.LastArgs, tc.want)
			}
			for i := range tc.want {
				if fake.LastArgs[i] != tc.want[i] {
					t.Fatalf("args: got %v, want %v", fake.LastArgs, tc.want)
				}
			}
			if fake.LastDir != sess.ProjectPath {
				t.Errorf("dir: got %q, want project path %q", fake.LastDir, sess.ProjectPath)
			}

			var credInjected bool
			for _, kv := range fake.LastEnv {
				if kv == "ANTHROPIC_API_KEY=sk-test" {
					credInjected = true
				}
			}
			if !credInjected {
				t.Error("credential not injected into subprocess environment")
			}
		})
	}
}

func TestRunOnce(t *testing.T) {
	fake := &testutil.FakeSpawner{Stdout: "stored\n"}
	r, _ := newTestRunner(t, fake, testutil.StaticCredentials{"alice": "sk-test"})

	out, _, err := r.RunOnce(context.Background(), "alice", []string{"memory", "store", "k", "v"}, "")
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if out != "stored\n" {
		t.Errorf("output: got %q", out)
	}
	if len(fake.LastArgs) != 4 || fake.LastArgs[0] != "memory" {
		t.Errorf("args: got %v", fake.LastArgs)
	}
}

func TestRunOnceFailure(t *testing.T) {
	fake := &testutil.FakeSpawner{Stderr: "backend unavailable\n", ExitErr: errors.New("exit status 1")}
	r, _ := newTestRunner(t, fake, testutil.StaticCredentials{"alice": "sk-test"})

	_, _, err := r.RunOnce(context.Background(), "alice", []string{"memory", "query", "q"}, "")
	if err == nil {
		t.Fatal("RunOnce succeeded despite process failure")
	}
	if !strings.Contains(err.Error(), "backend unavailable") {
		t.Errorf("error does not carry stderr: %v", err)
	}
}

func TestAbortWithoutLiveProcess(t *testing.T) {
	r, _ := newTestRunner(t, &testutil.FakeSpawner{}, testutil.StaticCredentials{"alice": "sk-test"})

	if r.Abort("no-such-session") {
		t.Error("Abort reported a kill with no live process")
	}
}
