package runner

import (
	"fmt"
	"time"
)

// Status is the tri-state result of a bounded execution.
type Status int

const (
	Succeeded Status = iota
	Failed
	TimedOut
)

func (s Status) String() string {
	switch s {
	case Succeeded:
		return "Succeeded"
	case Failed:
		return "Failed"
	case TimedOut:
		return "TimedOut"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Outcome holds the result of a single Run call.
type Outcome struct {
	Status   Status
	ExitCode int           // process exit code, meaningful when Status is Failed
	PID      int           // pid of the child that was started
	Duration time.Duration // wall-clock time from start until the child was reaped
}

func (o Outcome) String() string {
	if o.Status == Failed {
		return fmt.Sprintf("Failed(%d)", o.ExitCode)
	}
	return o.Status.String()
}

// CommandSpec describes one external invocation. Run never modifies it.
type CommandSpec struct {
	Name    string   // operation label for log lines; defaults to the base name of Path
	Path    string   // executable to start
	Args    []string // passed verbatim, one argv entry each
	Dir     string   // working directory, empty means the current one
	Env     []string // extra KEY=VALUE entries appended to the inherited environment
	Timeout time.Duration
}

// LogSink receives human-readable lines. The caller owns it.
type LogSink interface {
	WriteLine(format string, args ...any)
}
