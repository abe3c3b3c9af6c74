package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the working and config directories.
const FileName = "nongrid.yaml"

// Load builds the configuration from defaults, then the config file named
// by -config or found by searchPaths, then the remaining flags. The result
// is validated.
func Load() (*Config, error) {
	cfg := Default()

	path := ConfigPath()
	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
	}

	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// searchPaths lists where a config file is picked up without -config,
// nearest first.
func searchPaths() []string {
	return []string{
		filepath.Join(".", FileName),
		filepath.Join(ConfigDir(), FileName),
	}
}

func findConfigFile() string {
	for _, path := range searchPaths() {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// ConfigDir returns the per-user directory holding nongrid.yaml. macOS and
// Windows get a capitalised folder name.
func ConfigDir() string {
	name := "nongrid"
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		name = "Nongrid"
	}
	base, err := os.UserConfigDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, name)
}

// loadFromFile overlays the keys present in a YAML file on cfg. Unknown
// keys are rejected; an empty file changes nothing.
func loadFromFile(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
