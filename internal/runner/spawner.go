// spawner.go manages spawning and lifecycle of swarm CLI processes.
package runner

import (
	"context"
	"io"
	"os/exec"
	"sync"
)

// Chunk is one piece of subprocess output, tagged with the channel it came
// from so consumers can tell stdout and stderr apart.
type Chunk struct {
	Data   []byte
	Stderr bool
}

// Handle is a live subprocess. Output delivers stdout/stderr chunks in the
// order the process emitted them on each pipe; the channel is closed once
// both pipes are drained. Wait blocks until exit and returns the process
// error (an *exec.ExitError for nonzero exits). Kill terminates the process.
type Handle interface {
	Output() <-chan Chunk
	Wait() error
	Kill() error
}

// Spawner starts subprocesses. It exists as an interface so tests can swap
// the real OS process for a scripted fake.
type Spawner interface {
	Spawn(ctx context.Context, command string, args []string, dir string, env []string) (Handle, error)
}

// ExecSpawner runs real OS processes via os/exec.
type ExecSpawner struct{}

// Spawn starts command with the given arguments, working directory, and
// environment. It returns once the process has started; output chunks are
// forwarded as they arrive with no buffering beyond the OS pipe.
func (ExecSpawner) Spawn(ctx context.Context, command string, args []string, dir string, env []string) (Handle, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = dir
	cmd.Env = env

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	h := &execHandle{
		cmd: cmd,
		ch:  make(chan Chunk, 16),
	}
	h.wg.Add(2)
	go h.drain(stdout, false)
	go h.drain(stderr, true)
	go func() {
		h.wg.Wait()
		close(h.ch)
	}()

	return h, nil
}

type execHandle struct {
	cmd *exec.Cmd
	ch  chan Chunk
	wg  sync.WaitGroup
}

func (h *execHandle) Output() <-chan Chunk {
	return h.ch
}

// Wait waits for both pipes to drain before calling cmd.Wait, which closes
// them. Must be called after consuming Output.
func (h *execHandle) Wait() error {
	h.wg.Wait()
	return h.cmd.Wait()
}

func (h *execHandle) Kill() error {
	if h.cmd.Process == nil {
		return nil
	}
	return h.cmd.Process.Kill()
}

func (h *execHandle) drain(r io.Reader, stderr bool) {
	defer h.wg.Done()
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			h.ch <- Chunk{Data: data, Stderr: stderr}
		}
		if err != nil {
			return
		}
	}
}
