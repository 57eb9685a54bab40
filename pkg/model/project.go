package model

import (
	"fmt"
	"strings"
)

type Platform string

const (
	PlatformIOS         Platform = "ios"
	PlatformTvOS        Platform = "tvos"
	PlatformWatchOS     Platform = "watchos"
	PlatformMacOSFull   Platform = "macos-full"
	PlatformMacOSModern Platform = "macos-modern"
)

var validPlatforms = map[Platform]bool{
	PlatformIOS:         true,
	PlatformTvOS:        true,
	PlatformWatchOS:     true,
	PlatformMacOSFull:   true,
	PlatformMacOSModern: true,
}

func (p Platform) Valid() bool {
	return validPlatforms[p]
}

// MacFlavor selects which macOS framework a mac target builds against.
type MacFlavor string

const (
	MacFlavorFull   MacFlavor = "full"
	MacFlavorModern MacFlavor = "modern"
)

// MacFlavors lists every flavor in the order targets are produced.
var MacFlavors = []MacFlavor{MacFlavorFull, MacFlavorModern}

// Platform returns the generator platform for the flavor.
func (f MacFlavor) Platform() Platform {
	if f == MacFlavorFull {
		return PlatformMacOSFull
	}
	return PlatformMacOSModern
}

func ParseMacFlavor(s string) (MacFlavor, error) {
	switch MacFlavor(strings.ToLower(s)) {
	case MacFlavorFull:
		return MacFlavorFull, nil
	case MacFlavorModern:
		return MacFlavorModern, nil
	default:
		return "", fmt.Errorf("invalid mac flavor %q, must be one of: full, modern", s)
	}
}

// ProjectDescriptor is one test project produced by the generator.
type ProjectDescriptor struct {
	Name           string     `yaml:"name" json:"name"`
	Path           string     `yaml:"path" json:"path"`
	XUnit          bool       `yaml:"xunit,omitempty" json:"xunit"`
	Platforms      []Platform `yaml:"platforms,omitempty" json:"platforms,omitempty"`
	FailureMessage string     `yaml:"failure-message,omitempty" json:"failureMessage,omitempty"`
}

// Framework names the test framework the project runs under.
func (d ProjectDescriptor) Framework() string {
	if d.XUnit {
		return "xUnit"
	}
	return "NUnit"
}

func (d ProjectDescriptor) Supports(p Platform) bool {
	for _, candidate := range d.Platforms {
		if candidate == p {
			return true
		}
	}
	return false
}

// Manifest is the file the project generator leaves next to the generated projects.
type Manifest struct {
	IOS []ProjectDescriptor `yaml:"ios"`
	Mac []ProjectDescriptor `yaml:"mac"`
}

func (m *Manifest) Validate() ValidationErrors {
	var errs ValidationErrors
	errs = append(errs, validateDescriptors("ios", m.IOS)...)
	errs = append(errs, validateDescriptors("mac", m.Mac)...)
	return errs
}

func validateDescriptors(section string, descriptors []ProjectDescriptor) ValidationErrors {
	var errs ValidationErrors
	seen := make(map[string]int)

	for i, d := range descriptors {
		if strings.TrimSpace(d.Name) == "" {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("%s[%d].name", section, i), Message: "project name cannot be empty"})
		} else if first, dup := seen[d.Name]; dup {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("%s[%d].name", section, i), Message: fmt.Sprintf("duplicate project name '%s' (first defined at %s[%d])", d.Name, section, first)})
		} else {
			seen[d.Name] = i
		}
		if strings.TrimSpace(d.Path) == "" {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("%s[%d].path", section, i), Message: "project path cannot be empty"})
		}
		for j, p := range d.Platforms {
			if !p.Valid() {
				errs = append(errs, ValidationError{Field: fmt.Sprintf("%s[%d].platforms[%d]", section, i, j), Message: fmt.Sprintf("invalid platform '%s', must be one of: ios, tvos, watchos, macos-full, macos-modern", p)})
			}
		}
	}

	return errs
}
