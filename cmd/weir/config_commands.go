package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"weir/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the weir configuration file",
	}
	cmd.AddCommand(newConfigInitCommand(ctx))
	cmd.AddCommand(newConfigShowCommand(ctx))
	cmd.AddCommand(newConfigPathCommand(ctx))
	return cmd
}

func newConfigInitCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a sample configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configTargetPath(ctx)
			if err != nil {
				return err
			}
			if !force {
				if _, statErr := os.Stat(path); statErr == nil {
					return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
				}
			}
			if err := config.CreateSample(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample config to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			rows := [][]string{
				{"paths.output_dir", cfg.Paths.OutputDir},
				{"paths.log_dir", cfg.Paths.LogDir},
				{"paths.cookie_dir", cfg.Paths.CookieDir},
				{"download.mode", cfg.Download.Mode},
				{"download.format", orDefault(cfg.Download.Format, "(auto)")},
				{"download.album", orDefault(cfg.Download.Album, "(per source)")},
				{"download.keep_cover", fmt.Sprintf("%t", cfg.Download.KeepCover)},
				{"download.max_retries", fmt.Sprintf("%d", cfg.Download.MaxRetries)},
				{"cookies.auto_renew", fmt.Sprintf("%t", cfg.Cookies.AutoRenew)},
				{"cookies.sources", strings.Join(cfg.Cookies.Sources, ", ")},
				{"cookies.extractor_command", cfg.Cookies.ExtractorCommand},
				{"tools.yt_dlp", cfg.Tools.YtDlp},
				{"tools.ffmpeg", cfg.Tools.FFmpeg},
				{"tools.ffprobe", cfg.Tools.FFprobe},
				{"tools.ncm_decryptor", cfg.Tools.NCMDecryptor},
				{"logging.format", cfg.Logging.Format},
				{"logging.level", cfg.Logging.Level},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Setting", "Value"}, rows, nil))
			return nil
		},
	}
}

func newConfigPathCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the resolved configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configTargetPath(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

// configTargetPath resolves where the config file lives (or would live)
// without requiring it to parse.
func configTargetPath(ctx *commandContext) (string, error) {
	if ctx.configFlag != nil && strings.TrimSpace(*ctx.configFlag) != "" {
		return config.ExpandPath(strings.TrimSpace(*ctx.configFlag))
	}
	return config.DefaultConfigPath()
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
