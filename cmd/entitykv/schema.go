/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suparena/entitykv/registry"
	"github.com/suparena/entitykv/schema"
)

// SchemaReport describes a validated schema file.
type SchemaReport struct {
	Valid    bool     `json:"valid"`
	Error    string   `json:"error,omitempty"`
	Entities []string `json:"entities,omitempty"`
	Stores   []string `json:"stores,omitempty"`
}

func newSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Work with schema files",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate <file>",
		Short: "Check that a schema file loads and every entity resolves",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report := validateSchema(args[0])
			if rootOpts.Format == "json" {
				if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			} else if report.Valid {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d entities, %d stores\n", args[0], len(report.Entities), len(report.Stores))
			}
			if !report.Valid {
				return fmt.Errorf("%s: %s", args[0], report.Error)
			}
			return nil
		},
	})
	return cmd
}

func validateSchema(path string) SchemaReport {
	sch, err := schema.LoadFile(path)
	if err != nil {
		return SchemaReport{Error: err.Error()}
	}
	if err := registry.NewResolver(sch).ResolveAll(); err != nil {
		return SchemaReport{Error: err.Error()}
	}
	return SchemaReport{Valid: true, Entities: sch.Paths(), Stores: sch.Stores()}
}
