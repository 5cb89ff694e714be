package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"weir/internal/queue"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		modeFlag      string
		formatFlag    string
		albumFlag     string
		keepCover     bool
		disableRenew  bool
		skipDepsCheck bool
	)

	cmd := &cobra.Command{
		Use:   "run <locator>",
		Short: "Resolve a locator and download, transcode, and tag its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if modeFlag != "" {
				cfg.Download.Mode = modeFlag
			}
			if formatFlag != "" {
				cfg.Download.Format = formatFlag
			}
			if albumFlag != "" {
				cfg.Download.Album = albumFlag
			}
			if cmd.Flags().Changed("keep-cover") {
				cfg.Download.KeepCover = keepCover
			}
			if disableRenew {
				cfg.Cookies.AutoRenew = false
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger, hub, err := ctx.buildLogger(cfg)
			if err != nil {
				return err
			}
			if !skipDepsCheck {
				if err := checkRequiredDeps(cfg, logger); err != nil {
					return err
				}
			}
			store, err := queue.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			manager := ctx.buildManager(cfg, store, logger, hub)
			report, err := manager.Run(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"Run %s finished: %d completed, %d skipped, %d failed (%d of %d entries valid)\n",
				report.RunID, report.Completed, report.Skipped, report.Failed,
				report.Resolved, report.RawCount)
			if report.Failed > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Some items failed; see `weir queue list` for details.")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&modeFlag, "mode", "", "Download mode: audio, video, or both")
	cmd.Flags().StringVar(&formatFlag, "format", "", "Target audio format: alac, aac, flac, mp3, wav, ogg")
	cmd.Flags().StringVar(&albumFlag, "album", "", "Album tag for transcoded files")
	cmd.Flags().BoolVar(&keepCover, "keep-cover", false, "Keep the downloaded cover image on disk")
	cmd.Flags().BoolVar(&disableRenew, "no-renew", false, "Disable automatic cookie renewal")
	cmd.Flags().BoolVar(&skipDepsCheck, "skip-deps-check", false, "Skip the external binary availability check")

	return cmd
}
