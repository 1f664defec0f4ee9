package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cacheClearCmd = &cobra.Command{
	Use:   "cache-clear",
	Short: "Drop every cached keyword and country resolution",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.Redis.Enabled {
			return fmt.Errorf("resolution cache is disabled (redis.enabled is false)")
		}
		ctx := cmd.Context()
		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()
		if a.cache == nil {
			return fmt.Errorf("redis at %s is unreachable", cfg.Redis.Addr)
		}
		removed, err := a.cache.Invalidate(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d cached resolutions\n", removed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheClearCmd)
}
