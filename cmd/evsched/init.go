package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"evsched/internal/config"
	"evsched/internal/onboarding"
)

func newInitCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Interactively write the config file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			base, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			cfg, err := onboarding.NewWizard(cmd.InOrStdin(), cmd.OutOrStdout()).Run(base)
			if err != nil {
				return err
			}
			if err := config.Save(*configPath, cfg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("Configuration written to "+*configPath))
			return nil
		},
	}
}
