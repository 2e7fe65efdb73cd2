package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/neoclaw-ai/nono/internal/config"
	"github.com/neoclaw-ai/nono/internal/profile"
	"github.com/spf13/cobra"
)

func newProfilesCmd(loaded func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles [NAME]",
		Short: "List profiles, or show one profile's grants",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := profile.NewRegistry(loaded().Profiles)
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				p, err := registry.Lookup(args[0])
				if err != nil {
					return err
				}
				writeProfile(out, p)
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSOURCE\tNETWORK\tDESCRIPTION")
			for _, p := range registry.List() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Name, source(p), network(p.NetAllow), p.Description)
			}
			return tw.Flush()
		},
	}
}

func writeProfile(w io.Writer, p profile.Profile) {
	fmt.Fprintf(w, "%s (%s)\n", p.Name, source(p))
	if p.Description != "" {
		fmt.Fprintf(w, "  %s\n", p.Description)
	}
	lists := []struct {
		label string
		paths []string
	}{
		{"allow", p.Allow},
		{"read", p.Read},
		{"write", p.Write},
		{"allow-file", p.AllowFile},
		{"read-file", p.ReadFile},
		{"write-file", p.WriteFile},
	}
	for _, l := range lists {
		if len(l.paths) > 0 {
			fmt.Fprintf(w, "  --%s %s\n", l.label, strings.Join(l.paths, ", "))
		}
	}
	fmt.Fprintf(w, "  network: %s\n", network(p.NetAllow))
	if p.Command != "" {
		fmt.Fprintf(w, "  command: %s\n", p.Command)
	}
}

func source(p profile.Profile) string {
	if p.Builtin {
		return "built-in"
	}
	return "config"
}

func network(allowed bool) string {
	if allowed {
		return "allowed"
	}
	return "blocked"
}
