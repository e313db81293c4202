package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"storyfeed/internal/queue"
	"storyfeed/internal/queueaccess"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the story queue",
	}

	cmd.AddCommand(
		newQueueListCommand(ctx),
		newQueueShowCommand(ctx),
		newQueueStatsCommand(ctx),
		newQueueHealthCommand(ctx),
		newQueueRetryCommand(ctx),
		newQueueResetStuckCommand(ctx),
		newQueueClearCommand(ctx),
	)
	return cmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var statusFilter []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued stories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, raw := range statusFilter {
				if _, ok := queue.ParseStatus(raw); !ok {
					return fmt.Errorf("unknown status %q (expected pending, processing, chunked, or failed)", raw)
				}
			}

			return withQueueSession(ctx, func(session queueaccess.Session) error {
				items, err := session.Access.List(cmd.Context(), statusFilter)
				if err != nil {
					return err
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}

				rows := make([][]string, 0, len(items))
				for _, item := range items {
					title := item.Title
					if title == "" {
						title = item.SourceID
					}
					rows = append(rows, []string{
						strconv.FormatInt(item.ID, 10),
						truncate(title, 40),
						item.Status,
						strconv.Itoa(item.RetryCount),
						item.ReceivedAt,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Title", "Status", "Retries", "Received"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&statusFilter, "status", nil, "filter by status (pending, processing, chunked, failed)")
	return cmd
}

func newQueueShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <story-id>",
		Short: "Show one story and its chunks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid story id %q", args[0])
			}

			return withQueueSession(ctx, func(session queueaccess.Session) error {
				desc, err := session.Access.Describe(cmd.Context(), id)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				item := desc.Item
				renderSectionHeader(out, fmt.Sprintf("Story %d", item.ID))
				renderStatusLine(out, "Source", item.SourceID, statusNeutral)
				renderStatusLine(out, "Title", orUnset(item.Title), statusNeutral)
				renderStatusLine(out, "Author", orUnset(item.Author), statusNeutral)
				renderStatusLine(out, "Status", item.Status, statusKindFor(item.Status))
				renderStatusLine(out, "Extraction", orUnset(item.ExtractionStrategy), statusNeutral)
				renderStatusLine(out, "Chunking", orUnset(item.ChunkingStrategy), statusNeutral)
				renderStatusLine(out, "Retries", strconv.Itoa(item.RetryCount), statusNeutral)
				renderStatusLine(out, "Received", item.ReceivedAt, statusNeutral)
				if item.ErrorMessage != "" {
					renderStatusLine(out, "Error", item.ErrorMessage, statusBad)
				}

				if len(desc.Chunks) == 0 {
					return nil
				}
				fmt.Fprintln(out)
				rows := make([][]string, 0, len(desc.Chunks))
				for _, chunk := range desc.Chunks {
					sent := "pending"
					if chunk.SentAt != "" {
						sent = chunk.SentAt
					}
					rows = append(rows, []string{
						fmt.Sprintf("%d/%d", chunk.ChunkNumber, chunk.TotalChunks),
						strconv.Itoa(chunk.WordCount),
						sent,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Part", "Words", "Sent"},
					rows,
					[]columnAlignment{alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
}

func newQueueStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show story counts per status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withQueueSession(ctx, func(session queueaccess.Session) error {
				stats, err := session.Access.Stats(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderStatsTable(stats))
				return nil
			})
		},
	}
}

func newQueueHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show queue health diagnostics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withQueueSession(ctx, func(session queueaccess.Session) error {
				health, err := session.Access.Health(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				renderSectionHeader(out, "Queue health")
				renderStatusLine(out, "Total", strconv.Itoa(health.Total), statusNeutral)
				renderStatusLine(out, "Pending", strconv.Itoa(health.Pending), statusNeutral)
				renderStatusLine(out, "Processing", strconv.Itoa(health.Processing), statusNeutral)
				renderStatusLine(out, "Chunked", strconv.Itoa(health.Chunked), statusOK)
				failedKind := statusOK
				if health.Failed > 0 {
					failedKind = statusWarn
				}
				renderStatusLine(out, "Failed", strconv.Itoa(health.Failed), failedKind)
				return nil
			})
		},
	}
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [story-id...]",
		Short: "Re-queue failed stories",
		Long:  "Re-queue failed stories for processing. Without arguments, every failed story is retried.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid story id %q", arg)
				}
				ids = append(ids, id)
			}

			return withQueueSession(ctx, func(session queueaccess.Session) error {
				updated, err := session.Access.Retry(cmd.Context(), ids)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Re-queued %d stories\n", updated)
				return nil
			})
		},
	}
}

func newQueueResetStuckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-stuck",
		Short: "Return in-flight stories to pending",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withQueueSession(ctx, func(session queueaccess.Session) error {
				updated, err := session.Access.ResetStuck(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %d stories to pending\n", updated)
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var (
		clearFailed  bool
		clearChunked bool
	)

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete stories from the queue",
		Long:  "Delete stories from the queue. Without flags, every story is removed.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var statuses []string
			if clearFailed {
				statuses = append(statuses, string(queue.StatusFailed))
			}
			if clearChunked {
				statuses = append(statuses, string(queue.StatusChunked))
			}

			return withQueueSession(ctx, func(session queueaccess.Session) error {
				removed, err := session.Access.Clear(cmd.Context(), statuses)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d stories\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearFailed, "failed", false, "only clear failed stories")
	cmd.Flags().BoolVar(&clearChunked, "chunked", false, "only clear chunked stories")
	return cmd
}

func withQueueSession(ctx *commandContext, fn func(queueaccess.Session) error) error {
	session, err := ctx.openQueueSession()
	if err != nil {
		return err
	}
	defer session.Close()
	return fn(session)
}

func statusKindFor(status string) statusKind {
	switch status {
	case string(queue.StatusChunked):
		return statusOK
	case string(queue.StatusFailed):
		return statusBad
	case string(queue.StatusProcessing):
		return statusWarn
	default:
		return statusNeutral
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return strings.TrimSpace(s[:max-3]) + "..."
}
