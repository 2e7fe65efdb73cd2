// Package profile holds named launch presets: the built-in ones shipped with
// nono and user-defined ones from config.toml.
package profile

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/google/shlex"
	"github.com/neoclaw-ai/nono/internal/capability"
	"github.com/neoclaw-ai/nono/internal/config"
	"github.com/neoclaw-ai/nono/internal/logging"
)

// ErrUnknownProfile is returned by Lookup for names that are not registered.
var ErrUnknownProfile = errors.New("unknown profile")

// Profile is a named set of grants plus an optional default command.
type Profile struct {
	Name        string
	Description string
	Allow       []string
	Read        []string
	Write       []string
	AllowFile   []string
	ReadFile    []string
	WriteFile   []string
	NetAllow    bool
	Command     string
	Builtin     bool
}

var builtins = []Profile{
	{
		Name:        "claude-code",
		Description: "Anthropic Claude Code CLI agent",
		Allow:       []string{"$WORKDIR", "$HOME/.claude"},
		AllowFile:   []string{"$HOME/.claude.json"},
		NetAllow:    true,
	},
	{
		Name:        "openclaw",
		Description: "OpenClaw messaging gateway",
		Allow:       []string{"$HOME/.openclaw", "$HOME/.config/openclaw", "$TMPDIR/openclaw-$UID"},
		NetAllow:    true,
	},
	{
		Name:        "opencode",
		Description: "OpenCode AI coding assistant",
		Allow:       []string{"$WORKDIR"},
		Read:        []string{"$HOME/.opencode"},
		NetAllow:    true,
	},
	{
		Name:        "cargo-build",
		Description: "Rust cargo build (no network)",
		Allow:       []string{"$WORKDIR"},
		Read:        []string{"$HOME/.cargo", "$HOME/.rustup"},
		NetAllow:    false,
	},
}

// FromConfig converts a user-defined profile section.
func FromConfig(name string, c config.ProfileConfig) Profile {
	return Profile{
		Name:        name,
		Description: c.Description,
		Allow:       c.Allow,
		Read:        c.Read,
		Write:       c.Write,
		AllowFile:   c.AllowFile,
		ReadFile:    c.ReadFile,
		WriteFile:   c.WriteFile,
		NetAllow:    c.NetAllow,
		Command:     c.Command,
	}
}

// Registry resolves profile names. User profiles replace built-ins of the same name.
type Registry struct {
	profiles map[string]Profile
}

// NewRegistry returns the built-ins overlaid with user profiles.
func NewRegistry(user map[string]config.ProfileConfig) *Registry {
	r := &Registry{profiles: make(map[string]Profile, len(builtins)+len(user))}
	for _, p := range builtins {
		p.Builtin = true
		r.profiles[p.Name] = p
	}
	for name, c := range user {
		r.profiles[name] = FromConfig(name, c)
	}
	return r
}

// Lookup returns the profile registered under name.
func (r *Registry) Lookup(name string) (Profile, error) {
	p, ok := r.profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w %q", ErrUnknownProfile, name)
	}
	return p, nil
}

// List returns all profiles sorted by name.
func (r *Registry) List() []Profile {
	out := make([]Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Vars supplies values for the variables a profile path may reference.
// Names not listed here are looked up with LookupEnv.
type Vars struct {
	WorkDir   string
	Home      string
	TmpDir    string
	UID       string
	LookupEnv func(string) (string, bool)
}

// DefaultVars resolves variables for the current process.
func DefaultVars() (Vars, error) {
	wd, err := os.Getwd()
	if err != nil {
		return Vars{}, fmt.Errorf("resolve working directory: %w", err)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return Vars{}, fmt.Errorf("resolve home dir: %w", err)
	}
	return Vars{
		WorkDir:   wd,
		Home:      home,
		TmpDir:    os.TempDir(),
		UID:       strconv.Itoa(os.Getuid()),
		LookupEnv: os.LookupEnv,
	}, nil
}

// Expand substitutes variables in s. Referencing an undefined variable is an
// error so that a typo cannot silently turn into a grant on the wrong path.
func (v Vars) Expand(s string) (string, error) {
	var missing []string
	out := os.Expand(s, func(name string) string {
		switch name {
		case "WORKDIR":
			return v.WorkDir
		case "HOME":
			return v.Home
		case "TMPDIR":
			return v.TmpDir
		case "UID":
			return v.UID
		}
		if v.LookupEnv != nil {
			if value, ok := v.LookupEnv(name); ok {
				return value
			}
		}
		missing = append(missing, name)
		return ""
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("undefined variable $%s in %q", missing[0], s)
	}
	return out, nil
}

// Declarations expands the profile's paths in declaration order: allow,
// read, write, allow_file, read_file, write_file. Paths that do not exist
// are skipped; presets list locations that a given machine may not have.
func (p Profile) Declarations(vars Vars, logger *slog.Logger) ([]capability.Declaration, error) {
	if logger == nil {
		logger = logging.Logger()
	}
	groups := []struct {
		paths  []string
		access capability.Access
		file   bool
	}{
		{p.Allow, capability.ReadWrite, false},
		{p.Read, capability.Read, false},
		{p.Write, capability.Write, false},
		{p.AllowFile, capability.ReadWrite, true},
		{p.ReadFile, capability.Read, true},
		{p.WriteFile, capability.Write, true},
	}

	var decls []capability.Declaration
	for _, g := range groups {
		for _, raw := range g.paths {
			path, err := vars.Expand(raw)
			if err != nil {
				return nil, fmt.Errorf("profile %s: %w", p.Name, err)
			}
			if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
				logger.Info("profile path does not exist; skipping", "profile", p.Name, "path", path)
				continue
			}
			decls = append(decls, capability.Declaration{Path: path, Access: g.access, File: g.file})
		}
	}
	return decls, nil
}

// CommandArgs splits the default command with shell word rules.
// It returns nil when the profile has no default command.
func (p Profile) CommandArgs() ([]string, error) {
	if strings.TrimSpace(p.Command) == "" {
		return nil, nil
	}
	args, err := shlex.Split(p.Command)
	if err != nil {
		return nil, fmt.Errorf("profile %s: parse command: %w", p.Name, err)
	}
	return args, nil
}
