// Package targets turns generated test projects into harness targets, each
// carrying the dependency step that must succeed before it runs.
package targets

import (
	"context"
	"fmt"

	"bclharness/pkg/model"
	"bclharness/pkg/steps"
)

type Kind string

const (
	KindIOS Kind = "ios"
	KindMac Kind = "mac"
)

// Target is a test project plus the metadata the orchestrating harness
// needs to schedule it.
type Target struct {
	Name                 string
	ProjectPath          string
	Kind                 Kind
	Flavor               model.MacFlavor // mac targets only
	Platform             string          // build platform, "AnyCPU" for mac targets
	IsExecutableProject  bool
	GenerateVariations   bool
	SkipTvOSVariation    bool
	SkipWatchOSVariation bool
	FailureMessage       string
	Dependency           steps.Step
}

// Prepare runs the target's dependency step, if any.
func (t *Target) Prepare(ctx context.Context) error {
	if t.Dependency == nil {
		return nil
	}
	if err := t.Dependency.Run(ctx); err != nil {
		return fmt.Errorf("%s: %w", t.Name, err)
	}
	return nil
}

// targetName follows the harness naming scheme "[xUnit] Mono System".
func targetName(d model.ProjectDescriptor) string {
	return fmt.Sprintf("[%s] Mono %s", d.Framework(), d.Name)
}
