package test

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"bclharness/pkg/log"
	"bclharness/pkg/model"
	"bclharness/pkg/runner"
)

// MockCommandRunner is a shared mock of the command runner used by steps.
// Commands are keyed by their quoted command line (runner.CommandSpec.String).
// Unknown commands succeed. It is safe for concurrent use.
type MockCommandRunner struct {
	mu           sync.Mutex
	Commands     []string                  // executed command lines, in call order
	Specs        []runner.CommandSpec      // executed specs, in call order
	Outcomes     map[string]runner.Outcome // outcome by command line
	Errors       map[string]error          // error by command line
	TimeoutLines bool                      // write the runner's timeout line for TimedOut outcomes

	// Hook, when set, runs before the outcome is looked up. Returning a
	// non-nil error short-circuits the call with that error.
	Hook func(ctx context.Context, spec runner.CommandSpec) error
}

// NewMockCommandRunner creates a new MockCommandRunner with initialized maps.
func NewMockCommandRunner() *MockCommandRunner {
	return &MockCommandRunner{
		Outcomes: make(map[string]runner.Outcome),
		Errors:   make(map[string]error),
	}
}

func (r *MockCommandRunner) Run(ctx context.Context, spec runner.CommandSpec, sink runner.LogSink) (runner.Outcome, error) {
	key := spec.String()
	r.mu.Lock()
	r.Commands = append(r.Commands, key)
	r.Specs = append(r.Specs, spec)
	hook := r.Hook
	r.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, spec); err != nil {
			return runner.Outcome{}, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.Errors[key]; ok {
		return runner.Outcome{}, err
	}
	out, ok := r.Outcomes[key]
	if !ok {
		return runner.Outcome{Status: runner.Succeeded}, nil
	}
	if out.Status == runner.TimedOut && r.TimeoutLines && sink != nil {
		sink.WriteLine("%s timed out after %v seconds.", spec.Name, spec.Timeout.Seconds())
	}
	return out, nil
}

// SetOutcome configures the outcome for a command line.
func (r *MockCommandRunner) SetOutcome(commandLine string, out runner.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Outcomes[commandLine] = out
}

// SetError configures an error for a command line.
func (r *MockCommandRunner) SetError(commandLine string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Errors[commandLine] = err
}

// Executed returns a copy of the executed command lines.
func (r *MockCommandRunner) Executed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.Commands...)
}

// Count reports how many times commandLine was executed.
func (r *MockCommandRunner) Count(commandLine string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.Commands {
		if c == commandLine {
			n++
		}
	}
	return n
}

// MockSink records lines written through the runner's LogSink.
type MockSink struct {
	mu    sync.Mutex
	Lines []string
}

func (s *MockSink) WriteLine(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Lines = append(s.Lines, fmt.Sprintf(format, args...))
}

// Snapshot returns a copy of the recorded lines.
func (s *MockSink) Snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.Lines...)
}

// FakeGenerator returns canned descriptors.
type FakeGenerator struct {
	IOS    []model.ProjectDescriptor
	Mac    map[model.Platform][]model.ProjectDescriptor
	Err    error
	MacErr map[model.Platform]error
}

func (g *FakeGenerator) GenerateAllIOSTestProjects() ([]model.ProjectDescriptor, error) {
	if g.Err != nil {
		return nil, g.Err
	}
	return g.IOS, nil
}

func (g *FakeGenerator) GenerateAllMacTestProjects(platform model.Platform) ([]model.ProjectDescriptor, error) {
	if err := g.MacErr[platform]; err != nil {
		return nil, err
	}
	if g.Err != nil {
		return nil, g.Err
	}
	return g.Mac[platform], nil
}

// MockLogger is a shared mock implementation of Logger for testing.
// It captures logged messages for verification.
type MockLogger struct {
	mu       sync.Mutex
	Messages []string
	Level    slog.Level
}

// NewMockLogger creates a new MockLogger with the specified level.
func NewMockLogger(level slog.Level) *MockLogger {
	return &MockLogger{
		Messages: []string{},
		Level:    level,
	}
}

func (l *MockLogger) Debug(msg string, args ...any) {
	if l.Level <= slog.LevelDebug {
		l.captureMessage("DEBUG", msg, args...)
	}
}

func (l *MockLogger) Info(msg string, args ...any) {
	if l.Level <= slog.LevelInfo {
		l.captureMessage("INFO", msg, args...)
	}
}

func (l *MockLogger) Warn(msg string, args ...any) {
	if l.Level <= slog.LevelWarn {
		l.captureMessage("WARN", msg, args...)
	}
}

func (l *MockLogger) Error(msg string, args ...any) {
	if l.Level <= slog.LevelError {
		l.captureMessage("ERROR", msg, args...)
	}
}

func (l *MockLogger) captureMessage(level, msg string, args ...any) {
	buf := &bytes.Buffer{}
	buf.WriteString(level)
	buf.WriteString(": ")
	buf.WriteString(msg)
	for i := 0; i+1 < len(args); i += 2 {
		fmt.Fprintf(buf, " %v=%v", args[i], args[i+1])
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Messages = append(l.Messages, buf.String())
}

// Reset clears all captured messages.
func (l *MockLogger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Messages = []string{}
}

// HasMessage checks if any captured message contains the given substring.
func (l *MockLogger) HasMessage(substring string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, msg := range l.Messages {
		if strings.Contains(msg, substring) {
			return true
		}
	}
	return false
}

// SlogLogger creates a real slog logger for testing (alternative to mock).
func SlogLogger(level slog.Level) log.Logger {
	buf := &bytes.Buffer{}
	return log.NewSlogLogger(level, buf)
}
