// Package cmd provides CLI commands for the chocoflow binary.
package cmd

import "github.com/urfave/cli/v2"

// Shared flags for read-only commands (list, outdated, version).
var (
	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// NoColorFlag disables colored output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}

	// TUIFlag is the --tui switch. The commands that read it (list, outdated,
	// version, pack, push, pin list) reject it explicitly rather than failing
	// with a generic "flag not defined"; install, upgrade, uninstall and pin
	// accept it but do not read it, and their prompts do not depend on it.
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Request TUI mode (commands without TUI support reject it)",
	}
)

// ReadOnlyFlags returns the shared flags for all read-only commands.
// Includes --tui so that unsupported commands can provide explicit error messages
// instead of generic "flag not defined" errors.
func ReadOnlyFlags() []cli.Flag {
	return []cli.Flag{
		FormatFlag,
		NoColorFlag,
		TUIFlag,
	}
}

// TUIReadOnlyFlags returns flags for commands that support TUI mode.
// This is an alias for ReadOnlyFlags, kept for documentation clarity.
func TUIReadOnlyFlags() []cli.Flag {
	return ReadOnlyFlags()
}
