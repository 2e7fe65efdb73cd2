package cli

import (
	"fmt"

	"github.com/neoclaw-ai/nono/internal/config"
	"github.com/spf13/cobra"
)

func newConfigCmd(loaded func() *config.Config) *cobra.Command {
	var (
		starter bool
		initial bool
	)
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print merged configuration as TOML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch {
			case initial:
				path := loaded().ConfigPath()
				if err := config.Init(path); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote starter config to %s\n", path)
				return nil
			case starter:
				text, err := config.DefaultUserConfigTOML()
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), text)
				return err
			}
			return config.Write(cmd.OutOrStdout(), loaded().ConfigPath())
		},
	}
	cmd.Flags().BoolVar(&starter, "default", false, "Print a starter config instead of the merged one")
	cmd.Flags().BoolVar(&initial, "init", false, "Write a starter config file if none exists")
	cmd.MarkFlagsMutuallyExclusive("default", "init")
	return cmd
}
