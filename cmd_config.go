package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"xmlannotator/internal/config"
	"xmlannotator/internal/erruser"
)

func newInitConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init-config [FILE]",
		Short: "Write a sample configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := ".xmlannotator.toml"
			if len(args) > 0 {
				filename = args[0]
			}
			if err := config.GenerateConfigFile(filename); err != nil {
				return erruser.New("Failed to generate config file.", err)
			}
			fmt.Fprintf(a.stdout, "%s Generated configuration file: %s\n", color.GreenString("✓"), filename)
			return nil
		},
	}
}

func newShowConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show-config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			cfg.PrintSummary(a.stdout)
			return nil
		},
	}
}
