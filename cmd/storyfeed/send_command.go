package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"storyfeed/internal/delivery"
	"storyfeed/internal/notifications"
	"storyfeed/internal/queue"
)

func newSendCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "send",
		Short: "Deliver the next due chunk now",
		Long: "Deliver the next due chunk immediately instead of waiting for " +
			"the daily delivery pass. Oldest story first, lowest part first.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if client, err := ctx.dialClient(); err == nil {
				defer client.Close()
				resp, err := client.SendNext()
				if err != nil {
					return err
				}
				reportSend(cmd, resp.Sent, resp.QueueEmpty, resp.StoryTitle, resp.ChunkNumber, resp.TotalChunks)
				return nil
			}

			cfg, err := ctx.config()
			if err != nil {
				return err
			}
			store, err := queue.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			scheduler := delivery.NewScheduler(
				store,
				delivery.NewGenerator(cfg.Paths.ArtifactDir),
				delivery.NewSender(cfg, nil),
				notifications.NewService(cfg),
				nil,
			)
			outcome, err := scheduler.SendNext(cmd.Context())
			if err != nil {
				return err
			}

			title := ""
			chunkNumber, totalChunks := 0, 0
			if outcome.Chunk != nil {
				title = outcome.Chunk.StoryTitle
				chunkNumber = outcome.Chunk.ChunkNumber
				totalChunks = outcome.Chunk.TotalChunks
			}
			reportSend(cmd, outcome.Sent, outcome.QueueEmpty, title, chunkNumber, totalChunks)
			return nil
		},
	}
}

func reportSend(cmd *cobra.Command, sent, queueEmpty bool, title string, chunkNumber, totalChunks int) {
	switch {
	case sent:
		fmt.Fprintf(cmd.OutOrStdout(), "Sent part %d/%d of %q\n", chunkNumber, totalChunks, title)
	case queueEmpty:
		fmt.Fprintln(cmd.OutOrStdout(), "No unsent chunks are waiting")
	default:
		fmt.Fprintln(cmd.OutOrStdout(), "No chunk was sent")
	}
}
