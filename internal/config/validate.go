package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/neoclaw-ai/nono/internal/logging"
)

// Validatable is implemented by config sections that can self-validate.
type Validatable interface {
	Validate() error
}

func (c SandboxConfig) Validate() error {
	return nil
}

func (c LogConfig) Validate() error {
	if _, err := logging.ParseLevel(c.Level); err != nil {
		return err
	}
	switch c.Color {
	case logging.ColorAuto, logging.ColorAlways, logging.ColorNever:
		return nil
	default:
		return fmt.Errorf("invalid color %q (allowed: %q, %q, %q)", c.Color, logging.ColorAuto, logging.ColorAlways, logging.ColorNever)
	}
}

func (c ProfileConfig) Validate() error {
	lists := []struct {
		key   string
		paths []string
	}{
		{"allow", c.Allow},
		{"read", c.Read},
		{"write", c.Write},
		{"allow_file", c.AllowFile},
		{"read_file", c.ReadFile},
		{"write_file", c.WriteFile},
	}
	for _, list := range lists {
		for _, p := range list.paths {
			if strings.TrimSpace(p) == "" {
				return fmt.Errorf("%s: empty path", list.key)
			}
		}
	}
	return nil
}

// Validate checks every section and returns all problems joined.
func (cfg *Config) Validate() error {
	var errs []error

	if err := cfg.Sandbox.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("sandbox: %w", err))
	}
	if err := cfg.Log.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}

	names := make([]string, 0, len(cfg.Profiles))
	for name := range cfg.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := cfg.Profiles[name].Validate(); err != nil {
			errs = append(errs, fmt.Errorf("profiles.%s: %w", name, err))
		}
	}

	return errors.Join(errs...)
}
