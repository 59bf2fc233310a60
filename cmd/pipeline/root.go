package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	rootCmd := &cobra.Command{
		Use:           "pipeline",
		Short:         "OCR, translate and persist uploaded documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (TOML)")

	rootCmd.AddCommand(newExtractCommand(&configFlag))
	rootCmd.AddCommand(newTranslateCommand(&configFlag))
	rootCmd.AddCommand(newPersistCommand(&configFlag))
	rootCmd.AddCommand(newTriggerCommand(&configFlag))

	return rootCmd
}
