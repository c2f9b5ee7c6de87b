package cmd

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/TFMV/assaynet/config"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or initialize the configuration",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return toml.NewEncoder(os.Stdout).Encode(cfg)
			},
		},
		&cobra.Command{
			Use:   "init",
			Short: "Write the default configuration file",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path := configPath
				if path == "" {
					path = config.Path()
				}
				if _, err := os.Stat(path); err == nil {
					Warn.Printf("  %s already exists\n", path)
					return nil
				}
				if err := config.Save(config.Default(), path); err != nil {
					return err
				}
				Good.Printf("  %s %s\n", StatusIcon(true), path)
				return nil
			},
		},
	)

	return cmd
}
