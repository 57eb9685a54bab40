package steps

import (
	"context"
	"fmt"

	"bclharness/pkg/log"
	"bclharness/pkg/model"
	"bclharness/pkg/runner"
)

const (
	RestoreStepName = "Nuget restore"
	BuildStepName   = "BCL tests build"
)

// CommandStep runs one external command through the bounded runner.
type CommandStep struct {
	Summary string
	Spec    runner.CommandSpec
	Runner  CommandRunner
	Sink    runner.LogSink // harness log; receives the timeout line
	Logger  log.Logger
}

// NewRestoreStep restores the NuGet packages of projectPath.
func NewRestoreStep(cfg model.NugetConfig, projectPath string, r CommandRunner, sink runner.LogSink, logger log.Logger) *CommandStep {
	return &CommandStep{
		Summary: fmt.Sprintf("Restore NuGet packages for %s", projectPath),
		Spec: runner.CommandSpec{
			Name:    RestoreStepName,
			Path:    cfg.Path,
			Args:    []string{"restore", projectPath},
			Env:     cfg.Env,
			Timeout: cfg.Timeout,
		},
		Runner: r,
		Sink:   sink,
		Logger: logger,
	}
}

// NewBuildStep builds the BCL tests that mac targets depend on.
func NewBuildStep(cfg model.BuildConfig, r CommandRunner, sink runner.LogSink, logger log.Logger) *CommandStep {
	return &CommandStep{
		Summary: "Build BCL tests",
		Spec: runner.CommandSpec{
			Name:    BuildStepName,
			Path:    cfg.Path,
			Args:    cfg.Args,
			Dir:     cfg.Dir,
			Env:     cfg.Env,
			Timeout: cfg.Timeout,
		},
		Runner: r,
		Sink:   sink,
		Logger: logger,
	}
}

// Name is the operation name used in errors and log lines.
func (s *CommandStep) Name() string {
	return s.Spec.Name
}

func (s *CommandStep) Description() string {
	return s.Summary
}

func (s *CommandStep) Run(ctx context.Context) error {
	s.Logger.Info("Running dependency step", "step", s.Spec.Name, "command", s.Spec.String())
	out, err := s.Runner.Run(ctx, s.Spec, s.Sink)
	if stepErr := fromRun(s.Spec.Name, out, err); stepErr != nil {
		s.Logger.Error("Dependency step failed", "step", s.Spec.Name, "error", stepErr)
		return stepErr
	}
	s.Logger.Debug("Dependency step succeeded", "step", s.Spec.Name, "duration", out.Duration)
	return nil
}

func (s *CommandStep) ExecutionDetails() []string {
	details := []string{fmt.Sprintf("run: %s", s.Spec.String())}
	if s.Spec.Dir != "" {
		details = append(details, fmt.Sprintf("in: %s", s.Spec.Dir))
	}
	details = append(details, fmt.Sprintf("timeout: %s", s.Spec.Timeout))
	return details
}
