package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Save writes gridview.yaml into ConfigDir, where Load finds it next run.
func (c *Config) Save() error {
	return c.SaveTo(filepath.Join(ConfigDir(), "gridview.yaml"))
}

// SaveTo writes the config as YAML to path. Missing directories are created.
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
