// Package steps implements the dependency steps that run before a target:
// package restore and the prerequisite BCL build.
package steps

import (
	"context"
	"strings"

	"bclharness/pkg/runner"
)

// CommandRunner is the part of runner.Runner steps depend on.
type CommandRunner interface {
	Run(ctx context.Context, spec runner.CommandSpec, sink runner.LogSink) (runner.Outcome, error)
}

// Step is a prerequisite that must succeed before a target is executed.
type Step interface {
	// Description returns a human-readable string of what the step does.
	Description() string
	// Run executes the step. Failures are returned as *StepError.
	Run(ctx context.Context) error
	// ExecutionDetails returns a slice of strings describing the low-level operations.
	ExecutionDetails() []string
}

// Sequence runs its steps in order and stops at the first failure.
type Sequence []Step

func (s Sequence) Description() string {
	parts := make([]string, 0, len(s))
	for _, step := range s {
		parts = append(parts, step.Description())
	}
	return strings.Join(parts, ", then ")
}

func (s Sequence) Run(ctx context.Context) error {
	for _, step := range s {
		if err := step.Run(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s Sequence) ExecutionDetails() []string {
	var details []string
	for _, step := range s {
		details = append(details, step.ExecutionDetails()...)
	}
	return details
}
