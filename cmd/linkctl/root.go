package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var jsonOutput bool
	ctx := newCommandContext(&jsonOutput)

	rootCmd := &cobra.Command{
		Use:           "linkctl",
		Short:         "Inspect and manage recipe ingredient associations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")

	rootCmd.AddCommand(newListCommand(ctx))
	rootCmd.AddCommand(newCheckCommand(ctx))
	rootCmd.AddCommand(newGenerateCommand(ctx))
	rootCmd.AddCommand(newClearCommand(ctx))
	rootCmd.AddCommand(newShowCommand(ctx))

	return rootCmd
}
