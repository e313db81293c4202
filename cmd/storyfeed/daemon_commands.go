package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"storyfeed/internal/daemonctl"
)

const daemonExecutableName = "storyfeedd"

func newStartCommand(ctx *commandContext) *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the storyfeed daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			socket, err := ctx.socketPath()
			if err != nil {
				return err
			}
			executable, err := resolveDaemonExecutable()
			if err != nil {
				return err
			}

			opts := daemonctl.LaunchOptions{LogLevel: logLevel}
			if ctx.configFlag != nil {
				opts.ConfigPath = *ctx.configFlag
			}

			result, err := daemonctl.EnsureStarted(socket, executable, opts, 10*time.Second)
			if err != nil {
				return err
			}

			switch result.State {
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(cmd.OutOrStdout(), "Daemon already running")
			case daemonctl.StartStateStarted:
				fmt.Fprintln(cmd.OutOrStdout(), "Daemon started")
			default:
				msg := result.Message
				if msg == "" {
					msg = "start requested"
				}
				fmt.Fprintln(cmd.OutOrStdout(), msg)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&logLevel, "log-level", "", "daemon log level (debug, info, warn, error)")
	return cmd
}

func newStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the storyfeed daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			socket, err := ctx.socketPath()
			if err != nil {
				return err
			}
			cfg, err := ctx.config()
			if err != nil {
				return err
			}

			result, err := daemonctl.StopAndTerminate(socket, cfg, 10*time.Second)
			if err != nil {
				if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
					fmt.Fprintln(cmd.OutOrStdout(), "Daemon is not running")
					return nil
				}
				return err
			}

			if result.ForcedKill {
				fmt.Fprintf(cmd.OutOrStdout(), "Daemon did not exit cleanly, killed process %d\n", result.PID)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Daemon stopped")
			return nil
		},
	}
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and queue status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			cfg, err := ctx.config()
			if err != nil {
				return err
			}

			renderSectionHeader(out, "Daemon")

			client, dialErr := ctx.dialClient()
			if dialErr != nil {
				renderStatusLine(out, "Running", "no", statusBad)
				fmt.Fprintln(out)
				return renderOfflineQueue(cmd, ctx)
			}
			defer client.Close()

			status, err := client.Status()
			if err != nil {
				return fmt.Errorf("query daemon status: %w", err)
			}

			runningKind := statusBad
			if status.Running {
				runningKind = statusOK
			}
			renderStatusLine(out, "Running", yesNo(status.Running), runningKind)
			renderStatusLine(out, "PID", fmt.Sprintf("%d", status.PID), statusNeutral)
			renderStatusLine(out, "Queue database", status.QueueDBPath, statusNeutral)
			renderStatusLine(out, "Lock file", status.LockPath, statusNeutral)
			if status.LastError != "" {
				renderStatusLine(out, "Last error", status.LastError, statusWarn)
			}
			fmt.Fprintln(out)

			renderSectionHeader(out, "Queue")
			fmt.Fprintln(out, renderStatsTable(status.QueueStats))
			fmt.Fprintln(out)

			renderSectionHeader(out, "Delivery")
			deviceKind := statusWarn
			if cfg.Delivery.DeviceEmail != "" {
				deviceKind = statusOK
			}
			renderStatusLine(out, "Device email", orUnset(cfg.Delivery.DeviceEmail), deviceKind)
			renderStatusLine(out, "SMTP host", orUnset(cfg.Delivery.SMTPHost), statusNeutral)
			renderStatusLine(out, "Test mode", yesNo(cfg.Delivery.TestMode), statusNeutral)
			renderStatusLine(out, "Notifications", yesNo(cfg.Notifications.NtfyTopic != ""), statusNeutral)
			return nil
		},
	}
}

func renderOfflineQueue(cmd *cobra.Command, ctx *commandContext) error {
	session, err := ctx.openQueueSession()
	if err != nil {
		return err
	}
	defer session.Close()

	stats, err := session.Access.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("read queue stats: %w", err)
	}
	out := cmd.OutOrStdout()
	renderSectionHeader(out, "Queue")
	fmt.Fprintln(out, renderStatsTable(stats))
	return nil
}

func renderStatsTable(stats map[string]int) string {
	statuses := make([]string, 0, len(stats))
	for status := range stats {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)

	rows := make([][]string, 0, len(statuses))
	total := 0
	for _, status := range statuses {
		rows = append(rows, []string{status, fmt.Sprintf("%d", stats[status])})
		total += stats[status]
	}
	rows = append(rows, []string{"total", fmt.Sprintf("%d", total)})
	return renderTable([]string{"Status", "Stories"}, rows, []columnAlignment{alignLeft, alignRight})
}

func orUnset(v string) string {
	if v == "" {
		return "(not set)"
	}
	return v
}

// resolveDaemonExecutable looks for storyfeedd next to the CLI binary first
// so a local install works without PATH changes.
func resolveDaemonExecutable() (string, error) {
	if self, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(self), daemonExecutableName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	path, err := exec.LookPath(daemonExecutableName)
	if err != nil {
		return "", fmt.Errorf("locate %s executable: %w", daemonExecutableName, err)
	}
	return path, nil
}
