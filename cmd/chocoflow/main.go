// Package main provides the chocoflow CLI entrypoint.
//
// Usage:
//
//	chocoflow <command> [options] <package[;package...]>
//
// Reserved exit codes (spec.md §4.5's "Published CLI contract"):
//   - 0: success
//   - 1: generic failure
//   - 2: outdated packages found (only with --use-enhanced-exit-codes)
//   - 350x: a package install signaled a pending reboot suspend
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/chocoflow/cli/cmd"
	"github.com/justapithecus/chocoflow/types"
)

// Commit is set via ldflags at build time.
var commit = "unknown"

func main() {
	app := &cli.App{
		Name:           "chocoflow",
		Usage:          "Windows package operation orchestrator",
		Version:        fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			cmd.InstallCommand(),
			cmd.UpgradeCommand(),
			cmd.UninstallCommand(),
			cmd.ListCommand(),
			cmd.OutdatedCommand(),
			cmd.PinCommand(),
			cmd.PackCommand(),
			cmd.PushCommand(),
			cmd.VersionCommand("", commit),
		},
	}

	if err := app.Run(os.Args); err != nil {
		// ExitErrHandler already handled the exit for cli.ExitCoder errors.
		// This branch handles unexpected errors that weren't wrapped.
		os.Exit(1)
	}
}

// exitErrHandler handles errors from the CLI, preserving exit codes from cli.Exit().
// This ensures the reserved exit codes documented above this package's doc
// comment are the process's actual exit status, not just the error urfave/cli
// would otherwise print and exit(1) on.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}

	// Check for ExitCoder (from cli.Exit), handles wrapped errors
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()

		// Only print if there's a real message (not just "exit status N")
		// cli.Exit("", N).Error() returns "exit status N", so skip those
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}

	// Unexpected error - print and exit with code 1
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
