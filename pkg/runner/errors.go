package runner

import (
	"errors"
	"fmt"
)

// ErrInvalidTimeout is returned when a CommandSpec carries a zero or negative timeout.
var ErrInvalidTimeout = errors.New("timeout must be positive")

// ErrEmptyPath is returned when a CommandSpec has no executable path.
var ErrEmptyPath = errors.New("executable path is empty")

// LaunchError reports that the process could not be started at all.
type LaunchError struct {
	Path string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("starting %s: %v", e.Path, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}
