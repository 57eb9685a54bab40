package diff

import (
	"fmt"
	"strings"

	"bclharness/pkg/targets"
)

// ValidationError holds a list of target problems
type ValidationError struct {
	errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("target validation failed:\n  - %s", strings.Join(e.errors, "\n  - "))
}

// Problems returns the individual messages.
func (e *ValidationError) Problems() []string {
	return append([]string(nil), e.errors...)
}

// ValidateTargets checks a target list before it is handed to the harness:
// names must be unique and every target needs a project path and a
// dependency step.
func ValidateTargets(list []targets.Target) error {
	var errors []string

	errors = append(errors, validateNames(list)...)
	errors = append(errors, validateProjects(list)...)
	errors = append(errors, validateDependencies(list)...)

	if len(errors) > 0 {
		return &ValidationError{errors: errors}
	}

	return nil
}

func validateNames(list []targets.Target) []string {
	var errors []string

	// iOS and mac targets share names across flavors, so uniqueness is per
	// kind and flavor.
	seen := make(map[string]bool)
	for _, t := range list {
		if t.Name == "" {
			errors = append(errors, fmt.Sprintf("target for project '%s' has no name", t.ProjectPath))
			continue
		}
		key := string(t.Kind) + "/" + string(t.Flavor) + "/" + t.Name
		if seen[key] {
			errors = append(errors, fmt.Sprintf("duplicate %s target '%s'", kindLabel(t), t.Name))
		}
		seen[key] = true
	}

	return errors
}

func validateProjects(list []targets.Target) []string {
	var errors []string

	for _, t := range list {
		if t.ProjectPath == "" {
			errors = append(errors, fmt.Sprintf("target '%s' has no project path", t.Name))
		}
	}

	return errors
}

func validateDependencies(list []targets.Target) []string {
	var errors []string

	for _, t := range list {
		if t.Dependency == nil {
			errors = append(errors, fmt.Sprintf("target '%s' has no dependency step", t.Name))
		}
	}

	return errors
}

func kindLabel(t targets.Target) string {
	if t.Flavor != "" {
		return fmt.Sprintf("%s (%s)", t.Kind, t.Flavor)
	}
	return string(t.Kind)
}
