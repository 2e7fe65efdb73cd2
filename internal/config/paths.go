package config

import "path/filepath"

const (
	// HomeEnvVar overrides the nono home directory.
	HomeEnvVar = "NONO_HOME"

	ConfigFilePath = "config.toml"
)

func homeConfigPath(home string) string {
	return filepath.Join(home, ConfigFilePath)
}

func defaultHomePath(home string) string {
	return filepath.Join(home, ".config", "nono")
}

func (c *Config) ConfigPath() string {
	if c.File != "" {
		return c.File
	}
	return homeConfigPath(c.HomeDir)
}
