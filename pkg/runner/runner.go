// Package runner executes external commands under a wall-clock timeout and
// classifies how they ended: success, non-zero exit or timeout.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// DefaultWaitDelay is used when Runner.WaitDelay is zero.
const DefaultWaitDelay = 5 * time.Second

// Runner starts external processes. It carries configuration only, so a
// single Runner may serve any number of concurrent Run calls.
type Runner struct {
	Stdout io.Writer // receives the child's stdout; nil discards
	Stderr io.Writer // receives the child's stderr; nil discards

	// WaitDelay bounds how long Run keeps waiting for output copying once the
	// child has exited or been killed.
	WaitDelay time.Duration
}

// New returns a Runner that discards child output.
func New() *Runner {
	return &Runner{}
}

// Run starts spec.Path with spec.Args and waits for it to exit or for
// spec.Timeout to elapse, whichever comes first.
//
// Timeouts and non-zero exits are reported through the returned Outcome.
// An error is returned only when no outcome exists: invalid spec, launch
// failure, or cancellation of ctx by the caller. In every case the child
// has been reaped before Run returns.
func (r *Runner) Run(ctx context.Context, spec CommandSpec, sink LogSink) (Outcome, error) {
	if spec.Timeout <= 0 {
		return Outcome{}, fmt.Errorf("%s: %w (got %v)", spec.label(), ErrInvalidTimeout, spec.Timeout)
	}
	if strings.TrimSpace(spec.Path) == "" {
		return Outcome{}, ErrEmptyPath
	}
	if err := ctx.Err(); err != nil {
		return Outcome{}, fmt.Errorf("%s: %w", spec.label(), err)
	}

	runCtx, cancel := context.WithTimeout(ctx, spec.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, spec.Path, append([]string(nil), spec.Args...)...)
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	if r.Stdout != nil {
		cmd.Stdout = r.Stdout
	}
	if r.Stderr != nil {
		cmd.Stderr = r.Stderr
	}
	setProcessGroup(cmd)
	cmd.Cancel = func() error { return killProcessGroup(cmd) }
	cmd.WaitDelay = r.waitDelay()

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Outcome{}, &LaunchError{Path: spec.Path, Err: err}
	}

	out := Outcome{PID: cmd.Process.Pid}
	waitErr := cmd.Wait()
	out.Duration = time.Since(start)

	// A clean exit wins even when the deadline fired while reaping.
	if waitErr == nil || (cmd.ProcessState != nil && cmd.ProcessState.Success()) {
		out.Status = Succeeded
		return out, nil
	}

	if err := ctx.Err(); err != nil {
		return out, fmt.Errorf("%s: %w", spec.label(), err)
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		out.Status = TimedOut
		out.ExitCode = -1
		if sink != nil {
			sink.WriteLine("%s timed out after %v seconds.", spec.label(), spec.Timeout.Seconds())
		}
		return out, nil
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		out.Status = Failed
		out.ExitCode = exitErr.ExitCode()
		return out, nil
	}

	return out, fmt.Errorf("waiting for %s: %w", spec.label(), waitErr)
}

func (r *Runner) waitDelay() time.Duration {
	if r.WaitDelay > 0 {
		return r.WaitDelay
	}
	return DefaultWaitDelay
}

func (s CommandSpec) label() string {
	if s.Name != "" {
		return s.Name
	}
	if s.Path == "" {
		return "command"
	}
	return filepath.Base(s.Path)
}

// String renders the command line with each argument quoted, for logs and
// dry-run output.
func (s CommandSpec) String() string {
	parts := make([]string, 0, len(s.Args)+1)
	parts = append(parts, Quote(s.Path))
	for _, a := range s.Args {
		parts = append(parts, Quote(a))
	}
	return strings.Join(parts, " ")
}

// Quote returns s unchanged when it is safe to paste into a POSIX shell,
// otherwise single-quoted.
func Quote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n\"'\\$`*?[]{}()<>|&;#~!") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
