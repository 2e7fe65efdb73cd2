package cli

import (
	"github.com/neoclaw-ai/nono/internal/capability"
	"github.com/neoclaw-ai/nono/internal/config"
	"github.com/neoclaw-ai/nono/internal/launcher"
	"github.com/neoclaw-ai/nono/internal/logging"
	"github.com/neoclaw-ai/nono/internal/profile"
	"github.com/spf13/cobra"
)

type launchFlags struct {
	allow     []string
	read      []string
	write     []string
	allowFile []string
	readFile  []string
	writeFile []string
	netAllow  bool
	netBlock  bool
	profile   string
	dryRun    bool
	supervise bool
}

func (f *launchFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringArrayVarP(&f.allow, "allow", "a", nil, "Directories to allow read+write access (recursive)")
	fs.StringArrayVarP(&f.read, "read", "r", nil, "Directories to allow read-only access (recursive)")
	fs.StringArrayVarP(&f.write, "write", "w", nil, "Directories to allow write-only access (recursive)")
	fs.StringArrayVar(&f.allowFile, "allow-file", nil, "Single files to allow read+write access")
	fs.StringArrayVar(&f.readFile, "read-file", nil, "Single files to allow read-only access")
	fs.StringArrayVar(&f.writeFile, "write-file", nil, "Single files to allow write-only access")
	fs.BoolVar(&f.netAllow, "net-allow", false, "Allow all outbound network access")
	fs.BoolVar(&f.netBlock, "net-block", false, "Block network access, overriding profile and config")
	fs.StringVarP(&f.profile, "profile", "p", "", "Apply a named profile (see 'nono profiles')")
	fs.BoolVar(&f.dryRun, "dry-run", false, "Show what would be sandboxed without executing")
	fs.BoolVar(&f.supervise, "supervise", false, "Stay as parent and explain a failed command")
}

// request turns flags, config, and positional args into a launch request.
// Profile grants come first, then flags in the order allow, read, write,
// allow-file, read-file, write-file.
func (f launchFlags) request(cfg *config.Config, args []string) (launcher.Request, error) {
	req := launcher.Request{
		NetAllow:  cfg.Sandbox.NetAllow,
		Command:   args,
		DryRun:    f.dryRun,
		Supervise: f.supervise || cfg.Sandbox.Supervise,
	}

	if f.profile != "" {
		p, err := profile.NewRegistry(cfg.Profiles).Lookup(f.profile)
		if err != nil {
			return launcher.Request{}, err
		}
		vars, err := profile.DefaultVars()
		if err != nil {
			return launcher.Request{}, err
		}
		decls, err := p.Declarations(vars, logging.Logger())
		if err != nil {
			return launcher.Request{}, err
		}
		req.Declarations = decls
		req.NetAllow = p.NetAllow
		if len(req.Command) == 0 {
			if req.Command, err = p.CommandArgs(); err != nil {
				return launcher.Request{}, err
			}
		}
	}

	groups := []struct {
		paths  []string
		access capability.Access
		file   bool
	}{
		{f.allow, capability.ReadWrite, false},
		{f.read, capability.Read, false},
		{f.write, capability.Write, false},
		{f.allowFile, capability.ReadWrite, true},
		{f.readFile, capability.Read, true},
		{f.writeFile, capability.Write, true},
	}
	for _, g := range groups {
		for _, path := range g.paths {
			req.Declarations = append(req.Declarations, capability.Declaration{Path: path, Access: g.access, File: g.file})
		}
	}

	if f.netAllow {
		req.NetAllow = true
	}
	if f.netBlock {
		req.NetAllow = false
	}
	return req, nil
}

func runLaunch(cmd *cobra.Command, cfg *config.Config, flags launchFlags, args []string) error {
	req, err := flags.request(cfg, args)
	if err != nil {
		return err
	}
	l := newLauncher(newStore())
	l.Stderr = cmd.ErrOrStderr()
	return l.Launch(cmd.Context(), req)
}
