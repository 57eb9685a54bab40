//go:build integration
// +build integration

package integration

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bclharness/pkg/batch"
	"bclharness/pkg/config"
	"bclharness/pkg/diff"
	"bclharness/pkg/generator"
	"bclharness/pkg/log"
	"bclharness/pkg/runner"
	"bclharness/pkg/steps"
	"bclharness/pkg/targets"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNuget records every restore in calls.log and misbehaves for project
// paths that contain "hang" or "broken".
const fakeNuget = `#!/bin/sh
echo "$2" >> "$(dirname "$0")/calls.log"
case "$2" in
  *hang*) sleep 30 ;;
  *broken*) exit 4 ;;
esac
exit 0
`

const fakeMake = `#!/bin/sh
echo build >> "$(dirname "$0")/calls.log"
exit 0
`

type workspace struct {
	dir    string
	config string
}

func setupWorkspace(t *testing.T, projects string, nugetTimeout string) workspace {
	dir := t.TempDir()
	root := filepath.Join(dir, "tests")
	out := filepath.Join(root, "bcl-test", "BCLTests")
	require.NoError(t, os.MkdirAll(out, 0755))

	write := func(path, content string, mode os.FileMode) {
		require.NoError(t, os.WriteFile(path, []byte(content), mode))
	}
	write(filepath.Join(dir, "nuget"), fakeNuget, 0755)
	write(filepath.Join(dir, "make"), fakeMake, 0755)
	write(filepath.Join(out, "projects.yaml"), projects, 0644)

	cfg := fmt.Sprintf(`root-directory: %s
harness-log: %s
nuget:
  path: %s
  timeout: %s
bcl-build:
  path: %s
  args: [all]
  timeout: 1m
batch:
  policy: target
  max-parallel: 2
`, root, filepath.Join(dir, "harness.log"), filepath.Join(dir, "nuget"), nugetTimeout, filepath.Join(dir, "make"))
	write(filepath.Join(dir, "harness.yaml"), cfg, 0644)

	return workspace{dir: dir, config: filepath.Join(dir, "harness.yaml")}
}

func (w workspace) calls(t *testing.T) []string {
	data, err := os.ReadFile(filepath.Join(w.dir, "calls.log"))
	require.NoError(t, err)
	return strings.Fields(string(data))
}

func buildTargets(t *testing.T, w workspace, sink runner.LogSink) ([]targets.Target, *batch.Preparer) {
	logger := log.NewSlogLogger(slog.LevelDebug, &bytes.Buffer{})
	cfg, err := config.LoadConfig(w.config, logger)
	require.NoError(t, err)

	factory := targets.NewFactory(targets.EnvironmentFromConfig(cfg), generator.FromConfig(cfg, logger), runner.New(), sink, logger)
	list, err := factory.All()
	require.NoError(t, err)
	require.NoError(t, diff.ValidateTargets(list))
	return list, batch.FromConfig(cfg.Batch, logger)
}

func TestPipeline_PreparesEveryTarget(t *testing.T) {
	w := setupWorkspace(t, `ios:
  - name: System
    path: System/System.csproj
    platforms: [ios, tvos]
mac:
  - name: Xml
    path: mac/Xml.csproj
    platforms: [macos-full, macos-modern]
`, "1m")

	var sink bytes.Buffer
	list, preparer := buildTargets(t, w, log.NewWriterSink(&sink))
	require.Len(t, list, 3)

	report := preparer.Prepare(context.Background(), list)

	assert.True(t, report.OK(), "report: %+v", report.Results)
	calls := w.calls(t)
	assert.Len(t, calls, 4)
	assert.Equal(t, 1, strings.Count(strings.Join(calls, " "), "build"))
	assert.Empty(t, sink.String())
}

func TestPipeline_TimeoutAndFailure(t *testing.T) {
	w := setupWorkspace(t, `ios:
  - name: Hang
    path: hang/Hang.csproj
    platforms: [ios]
  - name: Broken
    path: broken/Broken.csproj
    platforms: [ios]
  - name: Fine
    path: fine/Fine.csproj
    platforms: [ios]
`, "1s")

	var sink bytes.Buffer
	list, preparer := buildTargets(t, w, log.NewWriterSink(&sink))

	start := time.Now()
	report := preparer.Prepare(context.Background(), list)
	assert.Less(t, time.Since(start), 10*time.Second)

	require.Len(t, report.Results, 3)
	assert.Equal(t, batch.StatusFailed, report.Results[0].Status)
	kind, ok := steps.KindOf(report.Results[0].Err)
	require.True(t, ok)
	assert.Equal(t, steps.KindTimedOut, kind)

	assert.Equal(t, batch.StatusFailed, report.Results[1].Status)
	assert.Contains(t, report.Results[1].Err.Error(), "Nuget restore failed with exit code 4")

	assert.Equal(t, batch.StatusPrepared, report.Results[2].Status)
	assert.Equal(t, "Nuget restore timed out after 1 seconds.\n", sink.String())
}
