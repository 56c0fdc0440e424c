package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrTimeout is returned when a host command does not finish within its deadline.
var ErrTimeout = errors.New("command timed out")

// RunOptions tunes a single host command invocation.
type RunOptions struct {
	// Env replaces the child environment when non-nil.
	Env []string
	// Stdin is fed to the process when non-empty.
	Stdin string
	// Timeout bounds the invocation. Zero means no extra deadline beyond ctx.
	Timeout time.Duration
	// Detach starts the process and reports success if it is still running
	// (or exited cleanly) after Grace. Used for screen lockers that block
	// until the session is unlocked.
	Detach bool
	Grace  time.Duration
}

// RunResult carries the captured output of a host command.
type RunResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes host tools. The relay never shells out except through a Runner,
// so every failure comes back as an error value instead of crossing into the
// dispatch loop.
type Runner interface {
	Run(ctx context.Context, name string, args []string, opts RunOptions) (RunResult, error)
	LookPath(file string) (string, error)
}

// ExecRunner is the os/exec backed Runner used in production.
type ExecRunner struct{}

// NewExecRunner returns a Runner that executes real processes.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// LookPath resolves an executable name without running it.
func (r *ExecRunner) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// Run executes name with args and captures stdout and stderr.
// It returns an error if the command cannot be started, exits non-zero or times out.
// The returned RunResult is populated in every case.
func (r *ExecRunner) Run(ctx context.Context, name string, args []string, opts RunOptions) (RunResult, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	if opts.Env != nil {
		cmd.Env = opts.Env
	}
	if opts.Stdin != "" {
		cmd.Stdin = strings.NewReader(opts.Stdin)
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if opts.Detach {
		return r.runDetached(ctx, cmd, name, opts.Grace, &stdoutBuf, &stderrBuf)
	}

	runErr := cmd.Run()
	res := RunResult{
		Stdout:   strings.TrimSpace(stdoutBuf.String()),
		Stderr:   strings.TrimSpace(stderrBuf.String()),
		ExitCode: exitCode(cmd),
	}
	if runErr != nil {
		return res, commandError(ctx, name, args, runErr, res.Stderr)
	}
	return res, nil
}

func (r *ExecRunner) runDetached(ctx context.Context, cmd *exec.Cmd, name string, grace time.Duration, stdout, stderr *bytes.Buffer) (RunResult, error) {
	if grace <= 0 {
		grace = time.Second
	}
	// A detached process must outlive the request context.
	detached := exec.Command(cmd.Path, cmd.Args[1:]...)
	detached.Env = cmd.Env
	detached.Stdin = cmd.Stdin
	detached.Stdout = stdout
	detached.Stderr = stderr

	if err := detached.Start(); err != nil {
		return RunResult{ExitCode: -1}, fmt.Errorf("failed to start '%s': %w", name, err)
	}

	done := make(chan error, 1)
	go func() { done <- detached.Wait() }()

	select {
	case err := <-done:
		res := RunResult{
			Stdout:   strings.TrimSpace(stdout.String()),
			Stderr:   strings.TrimSpace(stderr.String()),
			ExitCode: exitCode(detached),
		}
		if err != nil {
			return res, fmt.Errorf("'%s' exited early: %w. Stderr: %s", name, err, res.Stderr)
		}
		return res, nil
	case <-time.After(grace):
		return RunResult{}, nil
	case <-ctx.Done():
		return RunResult{}, fmt.Errorf("'%s': %w", name, ctx.Err())
	}
}

func exitCode(cmd *exec.Cmd) int {
	if cmd.ProcessState == nil {
		return -1
	}
	return cmd.ProcessState.ExitCode()
}

func commandError(ctx context.Context, name string, args []string, runErr error, stderr string) error {
	full := strings.TrimSpace(name + " " + strings.Join(args, " "))
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("'%s': %w", full, ErrTimeout)
	}
	if stderr == "" {
		return fmt.Errorf("failed to execute '%s': %w", full, runErr)
	}
	return fmt.Errorf("failed to execute '%s': %w. Stderr: %s", full, runErr, Tail(stderr, 300))
}
