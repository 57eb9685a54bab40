package model

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const (
	DefaultNugetPath      = "/Library/Frameworks/Mono.framework/Versions/Current/Commands/nuget"
	DefaultRestoreTimeout = 15 * time.Minute
	DefaultBuildPath      = "make"
	DefaultBuildTimeout   = 30 * time.Minute
	DefaultManifestName   = "projects.yaml"
)

// FailurePolicy decides how far a failed dependency step reaches.
type FailurePolicy string

const (
	// PolicyTarget fails only the target whose dependency failed.
	PolicyTarget FailurePolicy = "target"
	// PolicyBatch cancels every target that has not finished yet.
	PolicyBatch FailurePolicy = "batch"
)

func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(strings.ToLower(s)) {
	case PolicyTarget:
		return PolicyTarget, nil
	case PolicyBatch:
		return PolicyBatch, nil
	default:
		return "", fmt.Errorf("invalid failure policy %q, must be one of: target, batch", s)
	}
}

// HarnessConfig is the desired harness environment loaded from YAML.
type HarnessConfig struct {
	Includes       []string    `yaml:"includes,omitempty"` // config files merged underneath this one
	RootDirectory  string      `yaml:"root-directory"`
	MonoPath       string      `yaml:"mono-path,omitempty"`
	MonoSDKDestDir string      `yaml:"mono-sdk-destdir,omitempty"`
	Manifest       string      `yaml:"manifest,omitempty"`
	HarnessLog     string      `yaml:"harness-log,omitempty"`
	Nuget          NugetConfig `yaml:"nuget"`
	BCLBuild       BuildConfig `yaml:"bcl-build"`
	Batch          BatchConfig `yaml:"batch"`
}

type NugetConfig struct {
	Path    string        `yaml:"path,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
	Env     []string      `yaml:"env,omitempty"`
}

type BuildConfig struct {
	Path    string        `yaml:"path,omitempty"`
	Args    []string      `yaml:"args,omitempty"`
	Dir     string        `yaml:"dir,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
	Env     []string      `yaml:"env,omitempty"`
}

type BatchConfig struct {
	Policy      FailurePolicy `yaml:"policy,omitempty"`
	MaxParallel int           `yaml:"max-parallel,omitempty"`
}

// OutputDir is where the generator writes the BCL test projects.
func (c *HarnessConfig) OutputDir() string {
	return filepath.Clean(filepath.Join(c.RootDirectory, "bcl-test", "BCLTests"))
}

// ManifestPath resolves the manifest location. Relative paths are taken
// against the root directory.
func (c *HarnessConfig) ManifestPath() string {
	switch {
	case c.Manifest == "":
		return filepath.Join(c.OutputDir(), DefaultManifestName)
	case filepath.IsAbs(c.Manifest):
		return c.Manifest
	default:
		return filepath.Join(c.RootDirectory, c.Manifest)
	}
}

// ApplyDefaults fills every unset optional field.
func (c *HarnessConfig) ApplyDefaults() {
	if c.Nuget.Path == "" {
		c.Nuget.Path = DefaultNugetPath
	}
	if c.Nuget.Timeout == 0 {
		c.Nuget.Timeout = DefaultRestoreTimeout
	}
	if c.BCLBuild.Path == "" {
		c.BCLBuild.Path = DefaultBuildPath
	}
	if len(c.BCLBuild.Args) == 0 && c.BCLBuild.Path == DefaultBuildPath {
		c.BCLBuild.Args = []string{"-C", filepath.Join(c.RootDirectory, "bcl-test"), "all"}
	}
	if c.BCLBuild.Timeout == 0 {
		c.BCLBuild.Timeout = DefaultBuildTimeout
	}
	if c.Batch.Policy == "" {
		c.Batch.Policy = PolicyTarget
	}
	if c.Batch.MaxParallel == 0 {
		c.Batch.MaxParallel = 1
	}
}

func (c *HarnessConfig) Validate() ValidationErrors {
	var errs ValidationErrors

	for i, include := range c.Includes {
		if strings.TrimSpace(include) == "" {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("includes[%d]", i), Message: "include path cannot be empty"})
		}
	}

	if strings.TrimSpace(c.RootDirectory) == "" {
		errs = append(errs, ValidationError{Field: "root-directory", Message: "root directory is required"})
	} else if !filepath.IsAbs(c.RootDirectory) {
		errs = append(errs, ValidationError{Field: "root-directory", Message: "root directory must be absolute (start with '/')"})
	}

	if strings.TrimSpace(c.Nuget.Path) == "" {
		errs = append(errs, ValidationError{Field: "nuget.path", Message: "nuget path cannot be empty"})
	}
	if c.Nuget.Timeout <= 0 {
		errs = append(errs, ValidationError{Field: "nuget.timeout", Message: "timeout must be positive"})
	}
	errs = append(errs, validateEnv("nuget.env", c.Nuget.Env)...)

	if strings.TrimSpace(c.BCLBuild.Path) == "" {
		errs = append(errs, ValidationError{Field: "bcl-build.path", Message: "build command cannot be empty"})
	}
	if c.BCLBuild.Timeout <= 0 {
		errs = append(errs, ValidationError{Field: "bcl-build.timeout", Message: "timeout must be positive"})
	}
	errs = append(errs, validateEnv("bcl-build.env", c.BCLBuild.Env)...)

	if _, err := ParseFailurePolicy(string(c.Batch.Policy)); err != nil {
		errs = append(errs, ValidationError{Field: "batch.policy", Message: err.Error()})
	}
	if c.Batch.MaxParallel < 1 {
		errs = append(errs, ValidationError{Field: "batch.max-parallel", Message: "must be at least 1"})
	}

	return errs
}

func validateEnv(field string, env []string) ValidationErrors {
	var errs ValidationErrors
	for i, kv := range env {
		if k, _, ok := strings.Cut(kv, "="); !ok || k == "" {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("%s[%d]", field, i), Message: "environment entries must look like KEY=VALUE"})
		}
	}
	return errs
}
