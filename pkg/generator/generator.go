// Package generator supplies the project descriptors produced by the BCL
// test-project generator.
package generator

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"bclharness/pkg/log"
	"bclharness/pkg/model"
	"bclharness/pkg/system"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// ProjectGenerator produces the test projects targets are built from.
type ProjectGenerator interface {
	GenerateAllIOSTestProjects() ([]model.ProjectDescriptor, error)
	GenerateAllMacTestProjects(platform model.Platform) ([]model.ProjectDescriptor, error)
}

// Options mirrors what the generator is configured with.
type Options struct {
	OutputDir    string // directory holding the generated projects
	ManifestPath string // manifest written by the generator
	MonoPath     string
	SDKPath      string
}

// ManifestGenerator reads the generator's manifest from system.AppFs. The
// manifest is parsed once and cached.
type ManifestGenerator struct {
	opts   Options
	logger log.Logger

	once     sync.Once
	manifest *model.Manifest
	err      error
}

func NewManifestGenerator(opts Options, logger log.Logger) *ManifestGenerator {
	return &ManifestGenerator{opts: opts, logger: logger}
}

// FromConfig builds a ManifestGenerator for the locations in cfg.
func FromConfig(cfg *model.HarnessConfig, logger log.Logger) *ManifestGenerator {
	return NewManifestGenerator(Options{
		OutputDir:    cfg.OutputDir(),
		ManifestPath: cfg.ManifestPath(),
		MonoPath:     cfg.MonoPath,
		SDKPath:      cfg.MonoSDKDestDir,
	}, logger)
}

func (g *ManifestGenerator) GenerateAllIOSTestProjects() ([]model.ProjectDescriptor, error) {
	m, err := g.load()
	if err != nil {
		return nil, err
	}
	return g.resolve(m.IOS), nil
}

// GenerateAllMacTestProjects returns the mac projects that support platform.
func (g *ManifestGenerator) GenerateAllMacTestProjects(platform model.Platform) ([]model.ProjectDescriptor, error) {
	if platform != model.PlatformMacOSFull && platform != model.PlatformMacOSModern {
		return nil, fmt.Errorf("not a mac platform: %s", platform)
	}
	m, err := g.load()
	if err != nil {
		return nil, err
	}

	var matching []model.ProjectDescriptor
	for _, d := range m.Mac {
		if d.Supports(platform) {
			matching = append(matching, d)
		} else {
			g.logger.Debug("Skipping mac project for platform", "project", d.Name, "platform", platform)
		}
	}
	return g.resolve(matching), nil
}

func (g *ManifestGenerator) load() (*model.Manifest, error) {
	g.once.Do(func() {
		g.manifest, g.err = readManifest(g.opts.ManifestPath)
		if g.err == nil {
			g.logger.Debug("Loaded generator manifest", "path", g.opts.ManifestPath, "ios", len(g.manifest.IOS), "mac", len(g.manifest.Mac))
			g.logger.Info("Using generated BCL test projects", "output", g.opts.OutputDir, "mono", g.opts.MonoPath, "sdk", g.opts.SDKPath)
		}
	})
	return g.manifest, g.err
}

// resolve returns copies of descriptors with project paths made absolute
// against the output directory.
func (g *ManifestGenerator) resolve(descriptors []model.ProjectDescriptor) []model.ProjectDescriptor {
	result := make([]model.ProjectDescriptor, 0, len(descriptors))
	for _, d := range descriptors {
		if !filepath.IsAbs(d.Path) {
			d.Path = filepath.Join(g.opts.OutputDir, d.Path)
		}
		d.Platforms = append([]model.Platform(nil), d.Platforms...)
		result = append(result, d)
	}
	return result
}

func readManifest(path string) (*model.Manifest, error) {
	data, err := afero.ReadFile(system.AppFs, path)
	if err != nil {
		return nil, fmt.Errorf("reading generator manifest: %w", err)
	}

	var m model.Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing generator manifest %s: %w", path, err)
	}
	if errs := m.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("generator manifest %s: %w", path, errs)
	}
	return &m, nil
}

var _ ProjectGenerator = (*ManifestGenerator)(nil)
