// Package config loads nono settings from $NONO_HOME/config.toml, exposing
// typed sections for sandbox defaults, logging, and user-defined profiles.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/go-viper/mapstructure/v2"
	"github.com/neoclaw-ai/nono/internal/logging"
	"github.com/neoclaw-ai/nono/internal/store"
	"github.com/spf13/viper"
)

// Config is the runtime configuration loaded from defaults and config.toml.
type Config struct {
	// HomeDir is runtime-resolved from NONO_HOME and not read from config.
	HomeDir string `mapstructure:"-"`
	// File is the config file that was read, or would have been.
	File     string                   `mapstructure:"-"`
	Sandbox  SandboxConfig            `mapstructure:"sandbox"`
	Log      LogConfig                `mapstructure:"log"`
	Profiles map[string]ProfileConfig `mapstructure:"profiles"`
}

// SandboxConfig sets defaults for every launch. Command-line flags win.
type SandboxConfig struct {
	NetAllow  bool `mapstructure:"net_allow"`
	Supervise bool `mapstructure:"supervise"`
}

// LogConfig controls stderr logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
	Color string `mapstructure:"color"`
}

// ProfileConfig is a user-defined launch preset. Paths may reference
// $WORKDIR, $HOME, $TMPDIR, $UID, or any environment variable.
type ProfileConfig struct {
	Description string   `mapstructure:"description"`
	Allow       []string `mapstructure:"allow"`
	Read        []string `mapstructure:"read"`
	Write       []string `mapstructure:"write"`
	AllowFile   []string `mapstructure:"allow_file"`
	ReadFile    []string `mapstructure:"read_file"`
	WriteFile   []string `mapstructure:"write_file"`
	NetAllow    bool     `mapstructure:"net_allow"`
	Command     string   `mapstructure:"command"`
}

var defaultConfig = Config{
	Sandbox: SandboxConfig{
		NetAllow:  false,
		Supervise: false,
	},
	Log: LogConfig{
		Level: "warn",
		Color: "auto",
	},
}

// homeDir returns the nono home directory.
// Uses NONO_HOME if set, otherwise ~/.config/nono.
func homeDir() (string, error) {
	if dir := os.Getenv(HomeEnvVar); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return defaultHomePath(home), nil
}

// Load merges hardcoded defaults and $NONO_HOME/config.toml in that order.
// A missing config file is not an error.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file path, which must exist.
// An empty path selects the default location.
func LoadFile(path string) (*Config, error) {
	homeDir, err := homeDir()
	if err != nil {
		return nil, err
	}
	required := path != ""
	if !required {
		path = homeConfigPath(homeDir)
	}
	v, err := readConfig(path, required)
	if err != nil {
		return nil, err
	}

	var cfg Config
	decodeHook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToSliceHookFunc(","),
	)
	if err := v.Unmarshal(&cfg, func(c *mapstructure.DecoderConfig) {
		c.DecodeHook = decodeHook
	}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.HomeDir = homeDir
	cfg.File = path
	if cfg.Profiles == nil {
		cfg.Profiles = map[string]ProfileConfig{}
	}
	return &cfg, nil
}

// Write writes the merged configuration (defaults overlaid by the config
// file at path) to w in TOML format. An empty path selects the default location.
func Write(w io.Writer, path string) error {
	if w == nil {
		return errors.New("writer is required")
	}
	if path == "" {
		homeDir, err := homeDir()
		if err != nil {
			return err
		}
		path = homeConfigPath(homeDir)
	}
	v, err := readConfig(path, false)
	if err != nil {
		return err
	}
	if err := v.WriteConfigTo(w); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// DefaultUserConfigTOML renders a starter config with one example profile.
func DefaultUserConfigTOML() (string, error) {
	v := viper.New()
	v.SetConfigType("toml")
	v.Set("sandbox.net_allow", defaultConfig.Sandbox.NetAllow)
	v.Set("sandbox.supervise", defaultConfig.Sandbox.Supervise)
	v.Set("log.level", defaultConfig.Log.Level)
	v.Set("log.color", defaultConfig.Log.Color)
	v.Set("profiles.example.description", "Read-only access to the current directory")
	v.Set("profiles.example.read", []string{"$WORKDIR"})
	v.Set("profiles.example.net_allow", false)

	var out bytes.Buffer
	if err := v.WriteConfigTo(&out); err != nil {
		return "", fmt.Errorf("write default user config: %w", err)
	}
	return out.String(), nil
}

// Init writes the starter config to path. It never replaces an existing file.
func Init(path string) error {
	text, err := DefaultUserConfigTOML()
	if err != nil {
		return err
	}
	if err := store.CreateFile(path, []byte(text), 0o600); err != nil {
		return fmt.Errorf("initialize config: %w", err)
	}
	return nil
}

func readConfig(path string, required bool) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case required:
			return nil, fmt.Errorf("read config file: %w", err)
		case errors.As(err, &notFound), errors.Is(err, fs.ErrNotExist):
		case errors.Is(err, fs.ErrPermission):
			// Inside a sandbox the nono home is usually not granted.
			logging.Logger().Debug("config file not readable; using defaults", "path", path, "err", err)
		default:
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("sandbox.net_allow", defaultConfig.Sandbox.NetAllow)
	v.SetDefault("sandbox.supervise", defaultConfig.Sandbox.Supervise)

	v.SetDefault("log.level", defaultConfig.Log.Level)
	v.SetDefault("log.color", defaultConfig.Log.Color)
}
