package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"bclharness/pkg/log"
	"bclharness/pkg/model"
	"bclharness/pkg/system"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// LoadConfig reads filename, merges its includes, applies defaults and
// validates the result.
func LoadConfig(filename string, logger log.Logger) (*model.HarnessConfig, error) {
	cfg, err := loadConfigFile(filename)
	if err != nil {
		return nil, err
	}

	// Validate includes before processing
	if errs := validateIncludes(cfg.Includes); len(errs) > 0 {
		return nil, errs
	}

	if len(cfg.Includes) > 0 {
		cfg, err = processIncludes(cfg, filename, make(map[string]bool), logger)
		if err != nil {
			return nil, err
		}
	}

	cfg.ApplyDefaults()
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errs
	}

	logger.Debug("Loaded harness config", "file", filename, "root", cfg.RootDirectory, "manifest", cfg.ManifestPath())
	return &cfg, nil
}

// processIncludes merges every include underneath cfg, depth first. stack
// holds the files currently being expanded, so a file may be included from
// two siblings but never from itself.
func processIncludes(cfg model.HarnessConfig, baseFile string, stack map[string]bool, logger log.Logger) (model.HarnessConfig, error) {
	absBase, err := filepath.Abs(baseFile)
	if err != nil {
		return model.HarnessConfig{}, fmt.Errorf("failed to resolve absolute path for %s: %w", baseFile, err)
	}
	if stack[absBase] {
		return model.HarnessConfig{}, fmt.Errorf("circular include detected: %s", baseFile)
	}
	stack[absBase] = true
	defer delete(stack, absBase)

	result := model.HarnessConfig{}
	for _, includePath := range cfg.Includes {
		resolvedPath := resolveIncludePath(baseFile, includePath)

		includedCfg, err := loadConfigFile(resolvedPath)
		if err != nil {
			return model.HarnessConfig{}, fmt.Errorf("failed to load include '%s': %w", includePath, err)
		}

		if len(includedCfg.Includes) > 0 {
			includedCfg, err = processIncludes(includedCfg, resolvedPath, stack, logger)
			if err != nil {
				return model.HarnessConfig{}, err
			}
		}

		result = mergeConfigs(result, includedCfg, logger)
	}

	// The including file has the highest priority.
	result = mergeConfigs(result, cfg, logger)
	return result, nil
}

func loadConfigFile(filename string) (model.HarnessConfig, error) {
	f, err := afero.ReadFile(system.AppFs, filename)
	if err != nil {
		return model.HarnessConfig{}, err
	}

	var cfg model.HarnessConfig
	dec := yaml.NewDecoder(bytes.NewReader(f))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return model.HarnessConfig{}, fmt.Errorf("parsing %s: %w", filename, err)
	}
	return cfg, nil
}

func resolveIncludePath(baseFile, includePath string) string {
	if filepath.IsAbs(includePath) {
		return includePath
	}
	return filepath.Join(filepath.Dir(baseFile), includePath)
}

// mergeConfigs overlays override on base. Scalars are last-wins when set in
// override; lists are replaced, not appended. Includes are never merged.
func mergeConfigs(base, override model.HarnessConfig, logger log.Logger) model.HarnessConfig {
	result := base
	result.Includes = nil

	result.RootDirectory = mergeString(logger, "root-directory", base.RootDirectory, override.RootDirectory)
	result.MonoPath = mergeString(logger, "mono-path", base.MonoPath, override.MonoPath)
	result.MonoSDKDestDir = mergeString(logger, "mono-sdk-destdir", base.MonoSDKDestDir, override.MonoSDKDestDir)
	result.Manifest = mergeString(logger, "manifest", base.Manifest, override.Manifest)
	result.HarnessLog = mergeString(logger, "harness-log", base.HarnessLog, override.HarnessLog)

	result.Nuget.Path = mergeString(logger, "nuget.path", base.Nuget.Path, override.Nuget.Path)
	if override.Nuget.Timeout != 0 {
		result.Nuget.Timeout = override.Nuget.Timeout
	}
	if len(override.Nuget.Env) > 0 {
		result.Nuget.Env = override.Nuget.Env
	}

	result.BCLBuild.Path = mergeString(logger, "bcl-build.path", base.BCLBuild.Path, override.BCLBuild.Path)
	result.BCLBuild.Dir = mergeString(logger, "bcl-build.dir", base.BCLBuild.Dir, override.BCLBuild.Dir)
	if len(override.BCLBuild.Args) > 0 {
		result.BCLBuild.Args = override.BCLBuild.Args
	}
	if override.BCLBuild.Timeout != 0 {
		result.BCLBuild.Timeout = override.BCLBuild.Timeout
	}
	if len(override.BCLBuild.Env) > 0 {
		result.BCLBuild.Env = override.BCLBuild.Env
	}

	if override.Batch.Policy != "" {
		result.Batch.Policy = override.Batch.Policy
	}
	if override.Batch.MaxParallel != 0 {
		result.Batch.MaxParallel = override.Batch.MaxParallel
	}

	return result
}

func mergeString(logger log.Logger, field, base, override string) string {
	if override == "" {
		return base
	}
	if base != "" && base != override {
		logger.Warn("Config value overridden", "field", field, "was", base, "now", override)
	}
	return override
}

func validateIncludes(includes []string) model.ValidationErrors {
	var errs model.ValidationErrors
	for i, include := range includes {
		if strings.TrimSpace(include) == "" {
			errs = append(errs, model.ValidationError{Field: fmt.Sprintf("includes[%d]", i), Message: "include path cannot be empty"})
		}
	}
	return errs
}
