/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show entry counts and sizes of every store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := openDB(ctx, rootOpts)
			if err != nil {
				return err
			}
			defer db.Close()

			snap, err := db.Stats(ctx)
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), snap.Stores)
			}
			for _, name := range snap.StoreNames() {
				g := snap.Stores[name]
				fmt.Fprintf(cmd.OutOrStdout(), "%-32s %8d entries %10d bytes\n", name, g.Entries, g.Bytes)
			}
			return nil
		},
	}
}
