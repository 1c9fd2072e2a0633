package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Load reads the project config from the given repository root, trying
// .goosereview.yaml first and .goosereview.toml second. If neither exists,
// it returns a zero-value Config and nil error.
func Load(repoPath string) (*Config, error) {
	yamlPath := filepath.Join(repoPath, FileName)
	data, err := os.ReadFile(yamlPath) //nolint:gosec // user-provided repo path
	if err == nil {
		var cfg Config
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", FileName, err)
		}
		return &cfg, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	return loadTOML(filepath.Join(repoPath, TOMLFileName))
}

// loadTOML reads the TOML config variant. A missing file yields a zero-value
// Config and nil error.
func loadTOML(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided repo path
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return &cfg, nil
}

// LoadRaw reads a YAML config file into a generic map, preserving keys the
// typed Config would drop. A missing file yields an empty map and nil error.
func LoadRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided config path
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return make(map[string]any), nil
		}
		return nil, err
	}

	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	if m == nil {
		m = make(map[string]any)
	}
	return m, nil
}

// WriteFile marshals a raw config map to YAML and writes it to path.
func WriteFile(path string, data map[string]any) error {
	f, err := os.Create(path) //nolint:gosec // user-provided config path
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck // double close on the success path

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return f.Close()
}

// Write marshals the config to YAML and writes it to w.
func Write(w io.Writer, cfg *Config) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close() //nolint:errcheck // best-effort close
	enc.SetIndent(2)
	return enc.Encode(cfg)
}
