package steps

import (
	"context"
	"errors"
	"fmt"

	"bclharness/pkg/runner"
)

// Kind classifies why a step failed.
type Kind int

const (
	KindTimedOut Kind = iota + 1
	KindNonZeroExit
	KindLaunch
	KindCanceled
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindTimedOut:
		return "timed out"
	case KindNonZeroExit:
		return "non-zero exit"
	case KindLaunch:
		return "launch failure"
	case KindCanceled:
		return "canceled"
	case KindInvalid:
		return "invalid command"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// StepError is returned by every step that did not succeed.
type StepError struct {
	Step     string // operation name, e.g. "Nuget restore"
	Kind     Kind
	ExitCode int   // set for KindNonZeroExit
	Err      error // underlying cause for KindLaunch, KindCanceled and KindInvalid
}

func (e *StepError) Error() string {
	switch e.Kind {
	case KindTimedOut:
		return fmt.Sprintf("%s failed: TimedOut", e.Step)
	case KindNonZeroExit:
		return fmt.Sprintf("%s failed with exit code %d. Check the harness log for more details.", e.Step, e.ExitCode)
	default:
		return fmt.Sprintf("%s failed (%s): %v", e.Step, e.Kind, e.Err)
	}
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// KindOf reports the Kind of the first StepError in err's chain.
func KindOf(err error) (Kind, bool) {
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		return stepErr.Kind, true
	}
	return 0, false
}

// fromRun maps a runner result onto the step error taxonomy. It returns nil
// for a successful outcome.
func fromRun(step string, out runner.Outcome, err error) error {
	if err != nil {
		var launchErr *runner.LaunchError
		switch {
		case errors.As(err, &launchErr):
			return &StepError{Step: step, Kind: KindLaunch, Err: err}
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return &StepError{Step: step, Kind: KindCanceled, Err: err}
		case errors.Is(err, runner.ErrInvalidTimeout), errors.Is(err, runner.ErrEmptyPath):
			return &StepError{Step: step, Kind: KindInvalid, Err: err}
		default:
			// The process never produced an outcome.
			return &StepError{Step: step, Kind: KindLaunch, Err: err}
		}
	}

	switch out.Status {
	case runner.Succeeded:
		return nil
	case runner.TimedOut:
		return &StepError{Step: step, Kind: KindTimedOut}
	default:
		return &StepError{Step: step, Kind: KindNonZeroExit, ExitCode: out.ExitCode}
	}
}
