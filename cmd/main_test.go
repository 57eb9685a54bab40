package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bclharness/pkg/runner"
	"bclharness/pkg/steps"
	"bclharness/pkg/system"
	"bclharness/pkg/test"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	root         = "/src/tests"
	configPath   = "/harness.yaml"
	manifestPath = root + "/bcl-test/BCLTests/projects.yaml"

	restoreSystem = "/usr/local/bin/nuget restore /src/tests/bcl-test/BCLTests/System/System.csproj"
	restoreCorlib = "/usr/local/bin/nuget restore /abs/Corlib/Corlib.csproj"
	restoreMacSys = "/usr/local/bin/nuget restore /src/tests/bcl-test/BCLTests/mac/System/System.csproj"
	restoreMacXml = "/usr/local/bin/nuget restore /src/tests/bcl-test/BCLTests/mac/Xml/Xml.csproj"
	buildBCLTests = "make -C /src/tests/bcl-test all"
)

// resetFlags puts every flag back to its default so tests do not leak
// values into each other through the package-level command tree.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func executeCommand(r steps.CommandRunner, args ...string) (string, string, error) {
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	resetFlags(rootCmd)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)

	cmdRunner = r

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func setupTest(t *testing.T) *test.MockCommandRunner {
	// Set up a mock file system for each test
	system.AppFs = afero.NewMemMapFs()
	t.Cleanup(func() {
		system.AppFs = afero.NewOsFs()
		cmdRunner = runner.New()
	})

	test.CreateTestFile(t, system.AppFs, configPath, test.SampleConfigYAML(root))
	test.CreateTestFile(t, system.AppFs, manifestPath, test.SampleManifestYAML())

	return test.NewMockCommandRunner()
}

func TestTargets_ListsAll(t *testing.T) {
	r := setupTest(t)

	out, _, err := executeCommand(r, "targets", "--config", configPath)
	require.NoError(t, err)

	assert.Contains(t, out, "=> [NUnit] Mono System\n   - project: /src/tests/bcl-test/BCLTests/System/System.csproj")
	assert.Contains(t, out, "=> [xUnit] Mono Corlib")
	assert.Contains(t, out, "   - skip tvOS variation")
	assert.Contains(t, out, "   - failure message: Known crash on watchOS")
	assert.Contains(t, out, "   - flavor: modern")
	assert.Contains(t, out, "   - dependency: Build BCL tests, then Restore NuGet packages for /src/tests/bcl-test/BCLTests/mac/Xml/Xml.csproj")
	assert.Empty(t, r.Executed(), "listing must not run commands")
}

func TestTargets_JSON(t *testing.T) {
	r := setupTest(t)

	out, _, err := executeCommand(r, "targets", "--config", configPath, "--kind", "mac", "--flavor", "full", "--json")
	require.NoError(t, err)

	var got []targetForJSON
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "[NUnit] Mono System", got[0].Name)
	assert.Equal(t, "full", got[0].Flavor)
	assert.Equal(t, "AnyCPU", got[0].Platform)
	assert.True(t, got[0].IsExecutableProject)
	assert.False(t, got[0].GenerateVariations)
	assert.Contains(t, got[0].Details, "run: "+buildBCLTests)
}

func TestTargets_InvalidSelection(t *testing.T) {
	r := setupTest(t)

	_, _, err := executeCommand(r, "targets", "--config", configPath, "--kind", "tvos")
	assert.EqualError(t, err, "invalid kind: tvos (expected ios, mac or all)")

	_, _, err = executeCommand(r, "targets", "--config", configPath, "--flavor", "full")
	assert.EqualError(t, err, "--flavor requires --kind mac")

	_, _, err = executeCommand(r, "targets", "--config", configPath, "--kind", "mac", "--flavor", "classic")
	assert.Error(t, err)
}

func TestTargets_MissingConfig(t *testing.T) {
	r := setupTest(t)

	_, _, err := executeCommand(r, "targets", "--config", "/nope.yaml")
	assert.Error(t, err)
}

func TestPrepare_DryRun(t *testing.T) {
	r := setupTest(t)

	out, _, err := executeCommand(r, "prepare", "--config", configPath, "--kind", "ios", "--dry-run")
	require.NoError(t, err)

	assert.Contains(t, out, "Dry run enabled. The following operations would be performed:")
	assert.Contains(t, out, "=> [xUnit] Mono Corlib: Restore NuGet packages for /abs/Corlib/Corlib.csproj")
	assert.Contains(t, out, "   - run: "+restoreCorlib)
	assert.Contains(t, out, "   - timeout: 10m0s")
	assert.Empty(t, r.Executed())
}

func TestPrepare_RunsIOSRestores(t *testing.T) {
	r := setupTest(t)

	out, _, err := executeCommand(r, "prepare", "--config", configPath, "--kind", "ios", "--parallel", "1")
	require.NoError(t, err)

	assert.Equal(t, []string{restoreSystem, restoreCorlib}, r.Executed())
	assert.Contains(t, out, "[prepared] [NUnit] Mono System")
	assert.Contains(t, out, "2 prepared, 0 failed, 0 skipped")
}

func TestPrepare_MacBuildsOnce(t *testing.T) {
	r := setupTest(t)

	_, _, err := executeCommand(r, "prepare", "--config", configPath, "--kind", "mac")
	require.NoError(t, err)

	assert.Equal(t, 1, r.Count(buildBCLTests))
	assert.Equal(t, 2, r.Count(restoreMacSys))
	assert.Equal(t, 1, r.Count(restoreMacXml))
	assert.Equal(t, buildBCLTests, r.Executed()[0])
}

func TestPrepare_FailureReported(t *testing.T) {
	r := setupTest(t)
	r.SetOutcome(restoreCorlib, runner.Outcome{Status: runner.Failed, ExitCode: 1})

	out, _, err := executeCommand(r, "prepare", "--config", configPath, "--kind", "ios", "--parallel", "1")
	require.Error(t, err)
	assert.Equal(t, "1 of 2 targets were not prepared", err.Error())

	assert.Contains(t, out, "[failed] [xUnit] Mono Corlib")
	assert.Contains(t, out, "Nuget restore failed with exit code 1. Check the harness log for more details.")
	assert.Contains(t, out, "1 prepared, 1 failed, 0 skipped")
}

func TestPrepare_BatchPolicyFromFlag(t *testing.T) {
	r := setupTest(t)
	r.SetOutcome(restoreSystem, runner.Outcome{Status: runner.Failed, ExitCode: 1})

	out, _, err := executeCommand(r, "prepare", "--config", configPath, "--kind", "ios",
		"--parallel", "1", "--policy", "batch", "--json")
	require.Error(t, err)

	var report reportForJSON
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Skipped)
	assert.NotEmpty(t, report.RunID)
	require.Len(t, report.Results, 2)
	assert.Equal(t, "failed", report.Results[0].Status)
	assert.Equal(t, "skipped", report.Results[1].Status)
	test.AssertCommandNotExecuted(t, r, restoreCorlib)
}

func TestPrepare_InvalidFlags(t *testing.T) {
	r := setupTest(t)

	_, _, err := executeCommand(r, "prepare", "--config", configPath, "--policy", "everything")
	assert.Error(t, err)

	_, _, err = executeCommand(r, "prepare", "--config", configPath, "--parallel", "0")
	assert.EqualError(t, err, "--parallel must be at least 1")
	assert.Empty(t, r.Executed())
}

func TestPrepare_TimeoutWrittenToHarnessLog(t *testing.T) {
	r := setupTest(t)
	r.TimeoutLines = true
	r.SetOutcome(restoreSystem, runner.Outcome{Status: runner.TimedOut, ExitCode: -1})
	cfg := test.SampleConfigYAML(root) + "harness-log: /logs/harness.log\n"
	test.CreateTestFile(t, system.AppFs, configPath, cfg)

	_, stderr, err := executeCommand(r, "prepare", "--config", configPath, "--kind", "ios")
	require.Error(t, err)

	data, err := afero.ReadFile(system.AppFs, "/logs/harness.log")
	require.NoError(t, err)
	assert.Equal(t, "Nuget restore timed out after 600 seconds.\n", string(data))
	assert.Contains(t, stderr, "Nuget restore timed out after 600 seconds.")
}

func TestDump_ToStdout(t *testing.T) {
	r := setupTest(t)

	out, _, err := executeCommand(r, "dump", "--config", configPath)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "targets:\n"))
	assert.Contains(t, out, "[xUnit] Mono Xml")
}

func TestDumpThenDiff(t *testing.T) {
	r := setupTest(t)

	_, _, err := executeCommand(r, "dump", "--config", configPath, "--output", "/snap/targets.yaml")
	require.NoError(t, err)

	out, _, err := executeCommand(r, "diff", "--config", configPath, "--snapshot", "/snap/targets.yaml")
	require.NoError(t, err)
	assert.Equal(t, "No changes since /snap/targets.yaml\n", out)

	// Drop Xml from the manifest.
	manifest := strings.Replace(test.SampleManifestYAML(), `  - name: Xml
    path: mac/Xml/Xml.csproj
    xunit: true
    platforms: [macos-modern]
`, "", 1)
	test.CreateTestFile(t, system.AppFs, manifestPath, manifest)

	out, _, err = executeCommand(r, "diff", "--config", configPath, "--snapshot", "/snap/targets.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "Changes since /snap/targets.yaml:")
	assert.Contains(t, out, "- mac:modern\t[xUnit] Mono Xml\t/src/tests/bcl-test/BCLTests/mac/Xml/Xml.csproj\texecutable,platform=AnyCPU")

	out, _, err = executeCommand(r, "diff", "--config", configPath, "--snapshot", "/snap/targets.yaml", "--json")
	require.NoError(t, err)
	var got diffForJSON
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.True(t, got.Changed)
}

func TestDiff_RequiresSnapshot(t *testing.T) {
	r := setupTest(t)

	_, _, err := executeCommand(r, "diff", "--config", configPath)
	assert.Error(t, err)

	_, _, err = executeCommand(r, "diff", "--config", configPath, "--snapshot", "/missing.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestRoot_InvalidLogLevel(t *testing.T) {
	r := setupTest(t)

	_, _, err := executeCommand(r, "targets", "--config", configPath, "--log-level", "loud")
	assert.Error(t, err)
}

// writeFailingNuget puts a nuget stand-in on the real filesystem that
// complains on stderr and exits 3.
func writeFailingNuget(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "nuget")
	script := "#!/bin/sh\necho \"unable to restore $2\" >&2\nexit 3\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}

func TestPrepare_ChildOutputGoesToStderr(t *testing.T) {
	setupTest(t)
	nuget := writeFailingNuget(t)
	cfg := strings.Replace(test.SampleConfigYAML(root), "/usr/local/bin/nuget", nuget, 1)
	test.CreateTestFile(t, system.AppFs, configPath, cfg)

	_, stderr, err := executeCommand(runner.New(), "prepare", "--config", configPath, "--kind", "ios", "--parallel", "1")
	require.Error(t, err)

	assert.Contains(t, stderr, "unable to restore /src/tests/bcl-test/BCLTests/System/System.csproj\n")
	assert.Contains(t, stderr, "unable to restore /abs/Corlib/Corlib.csproj\n")
	assert.Contains(t, stderr, "Nuget restore failed with exit code 3")
}

func TestPrepare_ChildOutputGoesToHarnessLog(t *testing.T) {
	setupTest(t)
	nuget := writeFailingNuget(t)
	cfg := strings.Replace(test.SampleConfigYAML(root), "/usr/local/bin/nuget", nuget, 1) +
		"harness-log: /logs/harness.log\n"
	test.CreateTestFile(t, system.AppFs, configPath, cfg)

	_, stderr, err := executeCommand(runner.New(), "prepare", "--config", configPath, "--kind", "ios", "--parallel", "1")
	require.Error(t, err)

	data, err := afero.ReadFile(system.AppFs, "/logs/harness.log")
	require.NoError(t, err)
	assert.Equal(t, "unable to restore /src/tests/bcl-test/BCLTests/System/System.csproj\n"+
		"unable to restore /abs/Corlib/Corlib.csproj\n", string(data))
	assert.NotContains(t, stderr, "unable to restore")
}
