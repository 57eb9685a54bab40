// Package system holds the process-wide filesystem handle.
package system

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// AppFs is the filesystem that config, manifest, snapshot and log code go
// through. Tests replace it with afero.NewMemMapFs().
var AppFs afero.Fs = afero.NewOsFs()

// OpenAppend opens path for appending, creating the file and its parent
// directories when they are missing.
func OpenAppend(path string) (afero.File, error) {
	if err := AppFs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating directory for %s: %w", path, err)
	}
	f, err := AppFs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return f, nil
}

// WriteFile writes data to path, creating parent directories first.
func WriteFile(path string, data []byte) error {
	if err := AppFs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	return afero.WriteFile(AppFs, path, data, 0644)
}
