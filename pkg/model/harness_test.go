package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHarnessConfig_ApplyDefaults(t *testing.T) {
	cfg := &HarnessConfig{RootDirectory: "/src/tests"}
	cfg.ApplyDefaults()

	assert.Equal(t, DefaultNugetPath, cfg.Nuget.Path)
	assert.Equal(t, 15*time.Minute, cfg.Nuget.Timeout)
	assert.Equal(t, "make", cfg.BCLBuild.Path)
	assert.Equal(t, []string{"-C", "/src/tests/bcl-test", "all"}, cfg.BCLBuild.Args)
	assert.Equal(t, DefaultBuildTimeout, cfg.BCLBuild.Timeout)
	assert.Equal(t, PolicyTarget, cfg.Batch.Policy)
	assert.Equal(t, 1, cfg.Batch.MaxParallel)
	assert.Empty(t, cfg.Validate())
}

func TestHarnessConfig_ApplyDefaultsKeepsCustomBuild(t *testing.T) {
	cfg := &HarnessConfig{RootDirectory: "/src/tests", BCLBuild: BuildConfig{Path: "/usr/local/bin/build-bcl"}}
	cfg.ApplyDefaults()

	assert.Equal(t, "/usr/local/bin/build-bcl", cfg.BCLBuild.Path)
	assert.Empty(t, cfg.BCLBuild.Args)
}

func TestHarnessConfig_Paths(t *testing.T) {
	cfg := &HarnessConfig{RootDirectory: "/src/tests"}
	assert.Equal(t, "/src/tests/bcl-test/BCLTests", cfg.OutputDir())
	assert.Equal(t, "/src/tests/bcl-test/BCLTests/projects.yaml", cfg.ManifestPath())

	cfg.Manifest = "generated/projects.yaml"
	assert.Equal(t, "/src/tests/generated/projects.yaml", cfg.ManifestPath())

	cfg.Manifest = "/tmp/projects.yaml"
	assert.Equal(t, "/tmp/projects.yaml", cfg.ManifestPath())
}

func TestHarnessConfig_Validate(t *testing.T) {
	cfg := &HarnessConfig{
		Includes:      []string{" "},
		RootDirectory: "relative/tests",
		Nuget:         NugetConfig{Path: "", Timeout: -time.Second, Env: []string{"NOVALUE"}},
		BCLBuild:      BuildConfig{Path: "make", Timeout: 0},
		Batch:         BatchConfig{Policy: "everything", MaxParallel: 0},
	}

	errs := cfg.Validate()
	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	assert.Equal(t, []string{
		"includes[0]",
		"root-directory",
		"nuget.path",
		"nuget.timeout",
		"nuget.env[0]",
		"bcl-build.timeout",
		"batch.policy",
		"batch.max-parallel",
	}, fields)
}

func TestParseFailurePolicy(t *testing.T) {
	p, err := ParseFailurePolicy("BATCH")
	require.NoError(t, err)
	assert.Equal(t, PolicyBatch, p)

	_, err = ParseFailurePolicy("")
	assert.Error(t, err)
}
