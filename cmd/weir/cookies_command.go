package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"weir/internal/source"
)

func newCookiesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cookies",
		Short: "Manage per-source cookie jars",
	}
	cmd.AddCommand(newCookiesRenewCommand(ctx))
	cmd.AddCommand(newCookiesPathCommand(ctx))
	return cmd
}

func newCookiesRenewCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "renew <source>",
		Short: "Refresh a source's cookie jar from a local browser",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			profile, err := source.ByName(args[0])
			if err != nil {
				return err
			}
			logger, _, err := ctx.buildLogger(cfg)
			if err != nil {
				return err
			}

			result, err := ctx.buildRenewer(cfg, logger).Renew(cmd.Context(), profile)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renewed %d cookies from %s into %s\n",
				result.Count, result.Source, result.JarPath)
			return nil
		},
	}
}

func newCookiesPathCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "path <source>",
		Short: "Print a source's cookie jar location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			profile, err := source.ByName(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cfg.CookieJarPath(profile.Name))
			return nil
		},
	}
}
