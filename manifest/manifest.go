// Package manifest handles lunet.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Manifest represents a lunet.toml project configuration.
type Manifest struct {
	Project     Project     `toml:"project"`
	Script      Script      `toml:"script"`
	Diagnostics Diagnostics `toml:"diagnostics"`
	Cache       Cache       `toml:"cache"`

	// Dir is the directory containing the lunet.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Script configures the script entry point.
type Script struct {
	Entry string `toml:"entry"`
}

// Diagnostics configures debugging output.
type Diagnostics struct {
	DumpBytecode bool `toml:"dump-bytecode"`
	Trace        bool `toml:"trace"`
}

// Cache configures the compiled-chunk cache.
type Cache struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Load parses a lunet.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "lunet.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if m.Script.Entry == "" {
		m.Script.Entry = "main.ln"
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find a lunet.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "lunet.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// EntryPath returns the absolute path of the configured entry script.
func (m *Manifest) EntryPath() string {
	if filepath.IsAbs(m.Script.Entry) {
		return m.Script.Entry
	}
	return filepath.Join(m.Dir, m.Script.Entry)
}

// CachePath returns the configured cache database path, or the default
// under .lunet/ when unset.
func (m *Manifest) CachePath() string {
	if m.Cache.Path == "" {
		return filepath.Join(m.Dir, ".lunet", "cache.db")
	}
	if filepath.IsAbs(m.Cache.Path) {
		return m.Cache.Path
	}
	return filepath.Join(m.Dir, m.Cache.Path)
}
