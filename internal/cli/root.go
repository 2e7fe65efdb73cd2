// Package cli wires Cobra subcommands to application dependencies; it is a thin controller with no business logic.
package cli

import (
	"log/slog"

	"github.com/neoclaw-ai/nono/internal/config"
	"github.com/neoclaw-ai/nono/internal/launcher"
	"github.com/neoclaw-ai/nono/internal/logging"
	"github.com/neoclaw-ai/nono/internal/sandbox"
	"github.com/neoclaw-ai/nono/internal/state"
	"github.com/spf13/cobra"
)

var (
	newStore    = state.NewStore
	newLauncher = func(store *state.Store) *launcher.Launcher {
		return launcher.New(sandbox.New(), store, Version)
	}
)

const rootExample = `  # Allow read/write to current directory, run claude
  nono --allow . -- claude

  # Read-only access to src, write to output
  nono --read ./src --write ./output -- cargo build

  # With network access enabled
  nono --allow . --net-allow -- claude

  # Allow a single file in addition to a directory
  nono --allow . --write-file ~/.claude.json -- claude

  # Use a built-in profile and its grants
  nono --profile claude-code -- claude`

// NewRootCmd creates the root command and registers all subcommands.
func NewRootCmd() *cobra.Command {
	var (
		verbose    int
		configFile string
		cfg        *config.Config
		flags      launchFlags
	)

	root := &cobra.Command{
		Use:     "nono [flags] -- <command> [args...]",
		Short:   "nono - the opposite of yolo",
		Long:    "A capability-based shell for running untrusted AI agents and processes\nwith OS-enforced filesystem and network isolation.",
		Example: rootExample,
		Args:    cobra.ArbitraryArgs,
		// Let main handle fatal error rendering through structured logs.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// why runs inside the sandbox, where the nono home is usually not granted.
			// It reads only the hand-off file and must not depend on config.
			if cmd.Name() == "why" {
				logging.Configure(cmd.ErrOrStderr(), logging.ColorAuto)
				logging.SetLevel(logging.LevelForVerbosity(slog.LevelWarn, verbose))
				return nil
			}

			loaded, err := config.LoadFile(configFile)
			if err != nil {
				return err
			}
			if err := loaded.Validate(); err != nil {
				return err
			}
			base, _ := logging.ParseLevel(loaded.Log.Level)
			logging.Configure(cmd.ErrOrStderr(), loaded.Log.Color)
			logging.SetLevel(logging.LevelForVerbosity(base, verbose))
			cfg = loaded

			newStore().NewReaper().Run()
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLaunch(cmd, cfg, flags, args)
		},
	}
	// Everything after the first positional argument belongs to the target command.
	root.Flags().SetInterspersed(false)

	flags.register(root)
	root.PersistentFlags().CountVarP(&verbose, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path (default $NONO_HOME/config.toml)")

	loaded := func() *config.Config { return cfg }
	root.AddCommand(newWhyCmd())
	root.AddCommand(newProfilesCmd(loaded))
	root.AddCommand(newConfigCmd(loaded))
	root.AddCommand(newVersionCmd())

	return root
}
