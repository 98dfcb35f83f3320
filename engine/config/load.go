package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// FileName is the config file name searched for when no explicit path is given.
const FileName = "oxy-gltf.yaml"

// Load loads configuration with priority: defaults < file.
// Command line overrides are applied by the caller on the returned value.
//
// Parameters:
//   - path: an explicit config file, empty to search the working directory then ConfigDir
//
// Returns:
//   - *Config: the merged configuration
//   - error: an error if an existing file cannot be read or parsed
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}

	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
	}

	return cfg, nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		filepath.Join(".", FileName),
		filepath.Join(ConfigDir(), FileName),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "OxyGLTF")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "OxyGLTF")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "oxy-gltf")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "oxy-gltf")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// SaveTo writes the config to a specific path, creating parent directories.
//
// Parameters:
//   - path: the destination file
//
// Returns:
//   - error: an error if the directory or file cannot be written
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
