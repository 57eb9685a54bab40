package targets

import (
	"fmt"

	"bclharness/pkg/generator"
	"bclharness/pkg/log"
	"bclharness/pkg/model"
	"bclharness/pkg/runner"
	"bclharness/pkg/steps"
)

// Environment is everything the factory needs from the harness. It is
// passed by value and never modified.
type Environment struct {
	Nuget    model.NugetConfig
	BCLBuild model.BuildConfig
}

// EnvironmentFromConfig extracts the factory environment from cfg.
func EnvironmentFromConfig(cfg *model.HarnessConfig) Environment {
	return Environment{
		Nuget:    cfg.Nuget,
		BCLBuild: cfg.BCLBuild,
	}
}

// Factory connects the project generator to the harness.
type Factory struct {
	env       Environment
	generator generator.ProjectGenerator
	runner    steps.CommandRunner
	sink      runner.LogSink
	logger    log.Logger

	// bclBuild is shared by every mac target of this factory.
	bclBuild *steps.Once
}

func NewFactory(env Environment, gen generator.ProjectGenerator, r steps.CommandRunner, sink runner.LogSink, logger log.Logger) *Factory {
	return &Factory{
		env:       env,
		generator: gen,
		runner:    r,
		sink:      sink,
		logger:    logger,
		bclBuild:  steps.NewOnce(steps.NewBuildStep(env.BCLBuild, r, sink, logger)),
	}
}

// IOSTargets returns one target per generated iOS project. tvOS and watchOS
// variations are skipped for projects that do not support them.
func (f *Factory) IOSTargets() ([]Target, error) {
	projects, err := f.generator.GenerateAllIOSTestProjects()
	if err != nil {
		return nil, fmt.Errorf("generating iOS test projects: %w", err)
	}

	result := make([]Target, 0, len(projects))
	for _, p := range projects {
		result = append(result, Target{
			Name:                 targetName(p),
			ProjectPath:          p.Path,
			Kind:                 KindIOS,
			GenerateVariations:   true,
			SkipTvOSVariation:    !p.Supports(model.PlatformTvOS),
			SkipWatchOSVariation: !p.Supports(model.PlatformWatchOS),
			FailureMessage:       p.FailureMessage,
			Dependency:           f.restore(p.Path),
		})
	}
	f.logger.Info("Generated iOS targets", "count", len(result))
	return result, nil
}

// MacTargets returns one target per generated mac project for flavor. Each
// dependency builds the BCL tests (once per factory) and then restores.
func (f *Factory) MacTargets(flavor model.MacFlavor) ([]Target, error) {
	projects, err := f.generator.GenerateAllMacTestProjects(flavor.Platform())
	if err != nil {
		return nil, fmt.Errorf("generating %s mac test projects: %w", flavor, err)
	}

	result := make([]Target, 0, len(projects))
	for _, p := range projects {
		result = append(result, Target{
			Name:                targetName(p),
			ProjectPath:         p.Path,
			Kind:                KindMac,
			Flavor:              flavor,
			Platform:            "AnyCPU",
			IsExecutableProject: true,
			GenerateVariations:  false,
			FailureMessage:      p.FailureMessage,
			Dependency:          steps.Sequence{f.bclBuild, f.restore(p.Path)},
		})
	}
	f.logger.Info("Generated mac targets", "flavor", flavor, "count", len(result))
	return result, nil
}

// AllMacTargets returns the mac targets of every flavor, Full first.
func (f *Factory) AllMacTargets() ([]Target, error) {
	var result []Target
	for _, flavor := range model.MacFlavors {
		targets, err := f.MacTargets(flavor)
		if err != nil {
			return nil, err
		}
		result = append(result, targets...)
	}
	return result, nil
}

// All returns iOS targets followed by every mac target.
func (f *Factory) All() ([]Target, error) {
	ios, err := f.IOSTargets()
	if err != nil {
		return nil, err
	}
	mac, err := f.AllMacTargets()
	if err != nil {
		return nil, err
	}
	return append(ios, mac...), nil
}

func (f *Factory) restore(projectPath string) steps.Step {
	return steps.NewRestoreStep(f.env.Nuget, projectPath, f.runner, f.sink, f.logger)
}
