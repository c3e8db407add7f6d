// Ticketbridge - Helpdesk Ticket to Work Board Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ticketbridge

package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tomtom215/ticketbridge/internal/config"
)

func newConfigCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or edit the configuration",
		Long: `Print the effective configuration or edit the YAML config file.

Edits only touch the keys named on the command line. Environment overrides
and built-in defaults are never written to the file.`,
	}

	cmd.AddCommand(
		newConfigViewCommand(opts),
		newConfigStatusesCommand(opts),
		newConfigAddStatusCommand(opts),
		newConfigRemoveStatusCommand(opts),
		newConfigSetColumnCommand(opts),
		newConfigSetMinDateCommand(opts),
	)

	return cmd
}

// editPath is the file the edit commands write: --config, then
// CONFIG_PATH, then the first default path.
func (o *rootOptions) editPath() string {
	if o.configPath != "" {
		return o.configPath
	}
	if p := os.Getenv(config.ConfigPathEnvVar); p != "" {
		return p
	}
	return config.DefaultConfigPaths[0]
}

func newConfigViewCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Print the effective configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			out, err := cfg.EffectiveYAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

func newConfigStatusesCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "statuses",
		Short: "List the ticket status to board status mapping in the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ed, err := config.OpenEditor(opts.editPath())
			if err != nil {
				return err
			}
			mapping := ed.StatusMapping()
			names := make([]string, 0, len(mapping))
			for name := range mapping {
				names = append(names, name)
			}
			sort.Strings(names)
			w := cmd.OutOrStdout()
			for _, name := range names {
				if _, err := fmt.Fprintf(w, "%s -> %s\n", name, mapping[name]); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// editCommand builds a config subcommand that applies one edit and saves.
func editCommand(opts *rootOptions, use, short string, args int, edit func(ed *config.Editor, args []string) (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(args),
		RunE: func(cmd *cobra.Command, args []string) error {
			ed, err := config.OpenEditor(opts.editPath())
			if err != nil {
				return err
			}
			msg, err := edit(ed, args)
			if err != nil {
				return err
			}
			if err := ed.Save(); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", msg, ed.Path())
			return err
		},
	}
}

func newConfigAddStatusCommand(opts *rootOptions) *cobra.Command {
	return editCommand(opts, "add-status <ticket-status> <board-status>", "Map a ticket status to a board status", 2,
		func(ed *config.Editor, args []string) (string, error) {
			if err := ed.AddStatus(args[0], args[1]); err != nil {
				return "", err
			}
			return fmt.Sprintf("Mapped %q to %q", args[0], args[1]), nil
		})
}

func newConfigRemoveStatusCommand(opts *rootOptions) *cobra.Command {
	return editCommand(opts, "remove-status <ticket-status>", "Remove a ticket status mapping", 1,
		func(ed *config.Editor, args []string) (string, error) {
			if err := ed.RemoveStatus(args[0]); err != nil {
				return "", err
			}
			return fmt.Sprintf("Removed %q", args[0]), nil
		})
}

func newConfigSetColumnCommand(opts *rootOptions) *cobra.Command {
	return editCommand(opts, "set-column <field> <column-id>",
		"Set a board column id ("+strings.Join(config.ColumnFields, ", ")+")", 2,
		func(ed *config.Editor, args []string) (string, error) {
			if err := ed.SetColumn(args[0], args[1]); err != nil {
				return "", err
			}
			return fmt.Sprintf("Set columns.%s to %q", args[0], args[1]), nil
		})
}

func newConfigSetMinDateCommand(opts *rootOptions) *cobra.Command {
	return editCommand(opts, "set-min-date <YYYY-MM-DD>", "Set the ticket cutoff date", 1,
		func(ed *config.Editor, args []string) (string, error) {
			if err := ed.SetMinCreateDate(args[0]); err != nil {
				return "", err
			}
			return fmt.Sprintf("Set sync.min_create_date to %s", args[0]), nil
		})
}
