package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "adforge",
		Short:         "adforge: turn one product photo into four vertical ad variants",
		Long:          "adforge runs ad generation sessions: upload a product photo, answer a few questions about audience, tone and message, and get four 9:16 ad images in different styles. Sessions can run locally (generate) or over HTTP (serve).",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newServeCmd(app),
		newGenerateCmd(app),
		newHistoryCmd(app),
		newKeyCmd(app),
	)

	return rootCmd
}
