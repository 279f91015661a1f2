/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/suparena/entitykv"
	"github.com/suparena/entitykv/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigFile string
	EnvFiles   []string
	Format     string // "json" | "text"
}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "entitykv",
		Short:         "Inspect entitykv schemas and stores",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Format != "text" && opts.Format != "json" {
				return fmt.Errorf("invalid format %q: must be text or json", opts.Format)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "config file (yaml)")
	cmd.PersistentFlags().StringSliceVar(&opts.EnvFiles, "env", nil, ".env files to read overrides from")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(newVersionCommand(opts))
	cmd.AddCommand(newSchemaCommand(opts))
	cmd.AddCommand(newStatsCommand(opts))
	cmd.AddCommand(newScanCommand(opts))

	return cmd
}

// openDB loads the configuration and opens a DB on the schema file it names.
func openDB(ctx context.Context, opts *RootOptions) (*entitykv.DB, error) {
	cfg, err := config.Load(opts.ConfigFile, opts.EnvFiles...)
	if err != nil {
		return nil, err
	}
	return entitykv.Open(ctx, cfg, nil)
}

func writeJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
