package main

import (
	"github.com/spf13/cobra"
)

// Execute builds the command tree and runs it.
func Execute() error {
	var (
		configFlag string
		socketFlag string
	)

	ctx := newCommandContext(&configFlag, &socketFlag)

	rootCmd := &cobra.Command{
		Use:   "storyfeed",
		Short: "Story drip-feed queue and delivery control",
		Long: "storyfeed manages the story pipeline: submitted stories are " +
			"extracted, chunked into daily portions, and delivered one chunk " +
			"per day as EPUB email.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations["skipConfigLoad"] == "true" {
				return nil
			}
			return ctx.ensureConfig()
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&socketFlag, "socket", "", "path to daemon socket")

	rootCmd.AddCommand(
		newStartCommand(ctx),
		newStopCommand(ctx),
		newStatusCommand(ctx),
		newSubmitCommand(ctx),
		newSendCommand(ctx),
		newQueueCommand(ctx),
		newLogsCommand(ctx),
		newTestNotifyCommand(ctx),
		newConfigCommand(ctx),
	)

	return rootCmd.Execute()
}
