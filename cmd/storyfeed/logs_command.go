package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"storyfeed/internal/ipc"
	"storyfeed/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines  int
		follow bool
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show daemon log output",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if client, err := ctx.dialClient(); err == nil {
				defer client.Close()
				return tailViaDaemon(cmd, client, lines, follow)
			}

			cfg, err := ctx.config()
			if err != nil {
				return err
			}
			return tailViaFile(cmd, filepath.Join(cfg.Paths.LogDir, "storyfeed.log"), lines, follow)
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "number of lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep streaming new lines")
	return cmd
}

func tailViaDaemon(cmd *cobra.Command, client *ipc.Client, lines int, follow bool) error {
	resp, err := client.LogTail(ipc.LogTailRequest{Offset: -1, Limit: lines})
	if err != nil {
		return err
	}
	printLines(cmd, resp.Lines)
	if !follow {
		return nil
	}

	offset := resp.Offset
	for {
		if err := cmd.Context().Err(); err != nil {
			return err
		}
		next, err := client.LogTail(ipc.LogTailRequest{
			Offset:     offset,
			Limit:      lines,
			Follow:     true,
			WaitMillis: 2000,
		})
		if err != nil {
			return err
		}
		printLines(cmd, next.Lines)
		offset = next.Offset
	}
}

func tailViaFile(cmd *cobra.Command, path string, lines int, follow bool) error {
	result, err := logs.Tail(cmd.Context(), path, logs.TailOptions{Offset: -1, Limit: lines})
	if err != nil {
		return err
	}
	printLines(cmd, result.Lines)
	if !follow {
		return nil
	}

	offset := result.Offset
	for {
		if err := cmd.Context().Err(); err != nil {
			return err
		}
		next, err := logs.Tail(cmd.Context(), path, logs.TailOptions{
			Offset: offset,
			Limit:  lines,
			Follow: true,
			Wait:   2 * time.Second,
		})
		if err != nil {
			return err
		}
		printLines(cmd, next.Lines)
		offset = next.Offset
	}
}

func printLines(cmd *cobra.Command, lines []string) {
	for _, line := range lines {
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
}
