package test

import (
	"time"

	"bclharness/pkg/model"
)

// SampleManifestYAML returns a generator manifest with two iOS projects and
// mac projects for both flavors.
func SampleManifestYAML() string {
	return `ios:
  - name: System
    path: System/System.csproj
    platforms: [ios, tvos, watchos]
  - name: Corlib
    path: /abs/Corlib/Corlib.csproj
    xunit: true
    platforms: [ios]
    failure-message: Known crash on watchOS
mac:
  - name: System
    path: mac/System/System.csproj
    platforms: [macos-full, macos-modern]
  - name: Xml
    path: mac/Xml/Xml.csproj
    xunit: true
    platforms: [macos-modern]
`
}

// SampleConfigYAML returns a harness config rooted at root.
func SampleConfigYAML(root string) string {
	return `root-directory: ` + root + `
mono-path: /src/mono
mono-sdk-destdir: /src/sdk
nuget:
  path: /usr/local/bin/nuget
  timeout: 10m
bcl-build:
  path: make
  args: [-C, ` + root + `/bcl-test, all]
  timeout: 20m
batch:
  policy: target
  max-parallel: 2
`
}

// SampleHarnessConfig mirrors SampleConfigYAML after defaults.
func SampleHarnessConfig(root string) *model.HarnessConfig {
	cfg := &model.HarnessConfig{
		RootDirectory:  root,
		MonoPath:       "/src/mono",
		MonoSDKDestDir: "/src/sdk",
		Nuget:          model.NugetConfig{Path: "/usr/local/bin/nuget", Timeout: 10 * time.Minute},
		BCLBuild: model.BuildConfig{
			Path:    "make",
			Args:    []string{"-C", root + "/bcl-test", "all"},
			Timeout: 20 * time.Minute,
		},
		Batch: model.BatchConfig{Policy: model.PolicyTarget, MaxParallel: 2},
	}
	cfg.ApplyDefaults()
	return cfg
}

// SampleIOSDescriptors returns descriptors covering both frameworks and
// partial platform support.
func SampleIOSDescriptors() []model.ProjectDescriptor {
	return []model.ProjectDescriptor{
		{Name: "System", Path: "/out/System/System.csproj", Platforms: []model.Platform{model.PlatformIOS, model.PlatformTvOS, model.PlatformWatchOS}},
		{Name: "Corlib", Path: "/out/Corlib/Corlib.csproj", XUnit: true, Platforms: []model.Platform{model.PlatformIOS}, FailureMessage: "Known crash on watchOS"},
	}
}

// SampleMacDescriptors returns descriptors keyed by mac platform.
func SampleMacDescriptors() map[model.Platform][]model.ProjectDescriptor {
	return map[model.Platform][]model.ProjectDescriptor{
		model.PlatformMacOSFull: {
			{Name: "System", Path: "/out/mac/System-full.csproj", Platforms: []model.Platform{model.PlatformMacOSFull}},
		},
		model.PlatformMacOSModern: {
			{Name: "System", Path: "/out/mac/System-modern.csproj", Platforms: []model.Platform{model.PlatformMacOSModern}},
			{Name: "Xml", Path: "/out/mac/Xml-modern.csproj", XUnit: true, Platforms: []model.Platform{model.PlatformMacOSModern}},
		},
	}
}
