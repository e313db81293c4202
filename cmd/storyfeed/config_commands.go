package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"storyfeed/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage storyfeed configuration",
	}
	cmd.AddCommand(
		newConfigInitCommand(),
		newConfigValidateCommand(ctx),
		newConfigShowCommand(ctx),
	)
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var (
		path      string
		overwrite bool
	)

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			target := path
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return err
				}
				target = defaultPath
			}
			expanded, err := config.ExpandPath(target)
			if err != nil {
				return err
			}

			if _, err := os.Stat(expanded); err == nil && !overwrite {
				return fmt.Errorf("config file %s already exists (use --overwrite to replace it)", expanded)
			}
			if err := config.CreateSample(expanded); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample config to %s\n", expanded)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "where to write the config file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace an existing config file")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the active configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := ctx.config(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if ctx.configCreated() {
				fmt.Fprintf(out, "Created default config at %s\n", ctx.configPath())
			}
			fmt.Fprintf(out, "Config at %s is valid\n", ctx.configPath())
			return nil
		},
	}
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the active configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.config()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			renderSectionHeader(out, "Config")
			renderStatusLine(out, "File", ctx.configPath(), statusNeutral)
			renderStatusLine(out, "Data dir", cfg.Paths.DataDir, statusNeutral)
			renderStatusLine(out, "Log dir", cfg.Paths.LogDir, statusNeutral)
			renderStatusLine(out, "Artifact dir", cfg.Paths.ArtifactDir, statusNeutral)
			fmt.Fprintln(out)

			renderSectionHeader(out, "Pipeline")
			renderStatusLine(out, "Agent extraction", yesNo(cfg.Extraction.AgentEnabled), statusNeutral)
			renderStatusLine(out, "Agent chunking", yesNo(cfg.Chunking.AgentEnabled), statusNeutral)
			renderStatusLine(out, "LLM chunking", yesNo(cfg.Chunking.LLMEnabled), statusNeutral)
			renderStatusLine(out, "Target words", fmt.Sprintf("%d", cfg.Chunking.TargetWords), statusNeutral)
			fmt.Fprintln(out)

			renderSectionHeader(out, "Delivery")
			renderStatusLine(out, "Device email", orUnset(cfg.Delivery.DeviceEmail), statusNeutral)
			renderStatusLine(out, "From address", orUnset(cfg.Delivery.FromAddress), statusNeutral)
			renderStatusLine(out, "SMTP host", orUnset(cfg.Delivery.SMTPHost), statusNeutral)
			renderStatusLine(out, "Test mode", yesNo(cfg.Delivery.TestMode), statusNeutral)
			renderStatusLine(out, "Ntfy topic", orUnset(cfg.Notifications.NtfyTopic), statusNeutral)
			return nil
		},
	}
}
