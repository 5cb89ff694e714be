package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDecryptCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "decrypt <file.ncm>...",
		Short: "Decrypt local .ncm files and convert them to the target format",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, _, err := ctx.buildLogger(cfg)
			if err != nil {
				return err
			}
			worker := ctx.buildNCMWorker(cfg, logger)

			failures := 0
			for _, path := range args {
				result, err := worker.Process(cmd.Context(), path)
				if err != nil {
					failures++
					fmt.Fprintf(cmd.OutOrStdout(), "FAILED %s: %v\n", path, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "OK %s -> %s\n", path, result.Output)
			}
			if failures > 0 {
				return fmt.Errorf("%d of %d files failed", failures, len(args))
			}
			return nil
		},
	}
}
