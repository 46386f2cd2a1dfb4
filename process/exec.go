package process

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

const defaultGracePeriod = 5 * time.Second

// Command describes one invocation of an external tool such as ffmpeg or
// whisper-cli.
type Command struct {
	Binary string
	Args   []string
	// Stdin is piped to the tool when non-nil.
	Stdin io.Reader
	// GracePeriod is the delay between SIGTERM and SIGKILL on cancellation.
	GracePeriod time.Duration
}

// String renders the command line for logs.
func (c Command) String() string {
	return strings.TrimSpace(c.Binary + " " + strings.Join(c.Args, " "))
}

// Result is the captured outcome of a finished tool invocation.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int // -1 when killed by a signal
	Duration time.Duration
}

// StderrTail returns the last n non-empty lines of stderr. Tools like
// ffmpeg print their banner first and the actual failure last.
func (r *Result) StderrTail(n int) string {
	if r == nil || n <= 0 {
		return ""
	}
	var lines []string
	for _, line := range strings.Split(string(r.Stderr), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "; ")
}

// Run starts cmd in its own process group and waits for it. Cancelling ctx
// sends SIGTERM to the whole group and SIGKILL once the grace period ends.
func Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Binary == "" {
		return nil, fmt.Errorf("process: binary is required")
	}
	grace := cmd.GracePeriod
	if grace <= 0 {
		grace = defaultGracePeriod
	}

	var stdout, stderr bytes.Buffer
	c := exec.CommandContext(ctx, cmd.Binary, cmd.Args...) //nolint:gosec // arguments are built by the callers
	c.Stdin = cmd.Stdin
	c.Stdout = &stdout
	c.Stderr = &stderr
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		if c.Process == nil {
			return nil
		}
		return syscall.Kill(-c.Process.Pid, syscall.SIGTERM)
	}
	c.WaitDelay = grace

	start := time.Now()
	err := c.Run()
	res := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: c.ProcessState.ExitCode(),
		Duration: time.Since(start),
	}
	switch {
	case err == nil:
		return res, nil
	case ctx.Err() != nil:
		return res, fmt.Errorf("process: %s interrupted: %w", cmd.Binary, ctx.Err())
	case res.StderrTail(1) != "":
		return res, fmt.Errorf("process: %s exited with %d: %s: %w", cmd.Binary, res.ExitCode, res.StderrTail(1), err)
	default:
		return res, fmt.Errorf("process: %s exited with %d: %w", cmd.Binary, res.ExitCode, err)
	}
}
