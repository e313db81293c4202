package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"storyfeed/internal/ipc"
	"storyfeed/internal/notifications"
	"storyfeed/internal/queue"
	"storyfeed/internal/workflow"
)

type submitFlags struct {
	subject  string
	from     string
	password string
	sourceID string
	sendNow  bool
}

func (f *submitFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.subject, "subject", "", "story subject line")
	cmd.Flags().StringVar(&f.from, "from", "", "author address, e.g. \"Jane Writer <jane@example.com>\"")
	cmd.Flags().StringVar(&f.password, "password", "", "password for protected story pages")
	cmd.Flags().StringVar(&f.sourceID, "source-id", "", "explicit source id for deduplication")
	cmd.Flags().BoolVar(&f.sendNow, "send-now", false, "deliver the first chunk immediately after chunking")
}

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a story for processing",
	}
	cmd.AddCommand(newSubmitURLCommand(ctx), newSubmitFileCommand(ctx))
	return cmd
}

func newSubmitURLCommand(ctx *commandContext) *cobra.Command {
	var flags submitFlags

	cmd := &cobra.Command{
		Use:   "url <address>",
		Short: "Submit a story by page URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := url.Parse(args[0])
			if err != nil || parsed.Scheme == "" || parsed.Host == "" {
				return fmt.Errorf("invalid story URL %q", args[0])
			}

			req := ipc.SubmitRequest{
				SourceID:        flags.sourceID,
				Subject:         flags.subject,
				From:            flags.from,
				URL:             parsed.String(),
				Password:        flags.password,
				SendImmediately: flags.sendNow,
			}
			return submitStory(cmd, ctx, req)
		},
	}

	flags.register(cmd)
	return cmd
}

func newSubmitFileCommand(ctx *commandContext) *cobra.Command {
	var flags submitFlags

	cmd := &cobra.Command{
		Use:   "file <path>",
		Short: "Submit a story from a local text or HTML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read story file: %w", err)
			}
			content := string(data)
			if strings.TrimSpace(content) == "" {
				return fmt.Errorf("story file %s is empty", args[0])
			}

			subject := flags.subject
			if subject == "" {
				base := filepath.Base(args[0])
				subject = strings.TrimSuffix(base, filepath.Ext(base))
			}

			req := ipc.SubmitRequest{
				SourceID:        flags.sourceID,
				Subject:         subject,
				From:            flags.from,
				SendImmediately: flags.sendNow,
			}
			if isHTMLFile(args[0]) {
				req.HTML = content
			} else {
				req.Text = content
			}
			return submitStory(cmd, ctx, req)
		},
	}

	flags.register(cmd)
	return cmd
}

// submitStory hands the story to the daemon when it is running and falls
// back to enqueueing directly against the store otherwise.
func submitStory(cmd *cobra.Command, ctx *commandContext, req ipc.SubmitRequest) error {
	if client, err := ctx.dialClient(); err == nil {
		defer client.Close()
		resp, err := client.Submit(req)
		if err != nil {
			return err
		}
		reportSubmission(cmd, resp.Item, resp.Duplicate)
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

	story, err := workflow.Submit(cmd.Context(), store, notifications.NewService(cfg), workflow.Submission{
		SourceID:        req.SourceID,
		Subject:         req.Subject,
		From:            req.From,
		Text:            req.Text,
		HTML:            req.HTML,
		URL:             req.URL,
		Password:        req.Password,
		SendImmediately: req.SendImmediately,
	})
	duplicate := errors.Is(err, queue.ErrDuplicateStory)
	if err != nil && !duplicate {
		return err
	}
	reportSubmission(cmd, ipc.FromStory(story), duplicate)
	fmt.Fprintln(cmd.OutOrStdout(), "Daemon is not running; the story will be processed after 'storyfeed start'")
	return nil
}

func reportSubmission(cmd *cobra.Command, item ipc.StoryItem, duplicate bool) {
	if duplicate {
		fmt.Fprintf(cmd.OutOrStdout(), "Story already queued as #%d (source %s)\n", item.ID, item.SourceID)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Queued story #%d (source %s)\n", item.ID, item.SourceID)
}

func isHTMLFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return true
	default:
		return false
	}
}
