package cli

import (
	"fmt"

	"github.com/neoclaw-ai/nono/internal/launcher"
	"github.com/neoclaw-ai/nono/internal/sandbox"
	"github.com/spf13/cobra"
)

// Set at build time via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version and the sandbox available on this host",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, launcher.Banner(Version))
			fmt.Fprintf(out, "commit:  %s\n", Commit)
			fmt.Fprintf(out, "sandbox: %s\n", sandbox.New().SupportInfo())
			return nil
		},
	}
}
