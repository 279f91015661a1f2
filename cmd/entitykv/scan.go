/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ScanRow is one printed row of a data store.
type ScanRow struct {
	Key      string `json:"key"`
	Path     string `json:"path"`
	Value    any    `json:"value"`
	Created  string `json:"created"`
	Modified string `json:"modified"`
}

func newScanCommand(rootOpts *RootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "scan <store>",
		Short: "Print the rows of a data store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := openDB(ctx, rootOpts)
			if err != nil {
				return err
			}
			defer db.Close()

			rows, err := db.Scan(ctx, args[0])
			if err != nil {
				return err
			}
			if limit > 0 && len(rows) > limit {
				rows = rows[:limit]
			}
			out := make([]ScanRow, len(rows))
			for i, r := range rows {
				out[i] = ScanRow{
					Key:      r.Key.String(),
					Path:     r.Path,
					Value:    r.Value,
					Created:  r.Metadata.CreatedAt().String(),
					Modified: r.Metadata.ModifiedAt().String(),
				}
			}
			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			for _, r := range out {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%v\n", r.Key, r.Path, r.Value)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "print at most n rows")
	return cmd
}
