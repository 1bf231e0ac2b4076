package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/justapithecus/chocoflow/render"
	"github.com/justapithecus/chocoflow/report"
	"github.com/justapithecus/chocoflow/types"
)

// OutdatedCommand reports packages with a newer version available. With
// --source it restricts the check to a single source kind (SPEC_FULL.md
// "Supplemented features"); without it, every registered source is
// checked. Its exit code is ExitCodeOutdatedFound when
// --use-enhanced-exit-codes is set and at least one outdated package was
// found (spec.md §4.5 "Published CLI contract").
func OutdatedCommand() *cli.Command {
	return &cli.Command{
		Name:  "outdated",
		Usage: "List packages with a newer version available",
		Flags: append(ReadOnlyFlags(),
			&cli.StringFlag{Name: "source", Usage: "Restrict the check to a single source kind"},
			&cli.StringFlag{Name: "install-root", Value: defaultInstallRoot},
			&cli.StringFlag{Name: "cache-location"},
			&cli.StringFlag{Name: "config", Usage: "Path to a chocoflow.yaml defaults file"},
			&cli.BoolFlag{Name: "use-enhanced-exit-codes", Usage: "Exit 2 when outdated packages are found"},
		),
		Action: outdatedAction,
	}
}

func outdatedAction(c *cli.Context) error {
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for the outdated command", 1)
	}

	cfg, fileCfg, err := buildConfiguration(c, "outdated")
	if err != nil {
		return cli.Exit(err.Error(), types.ExitCodeGenericFailure)
	}
	cfg.Features.UseEnhancedExitCodes = c.Bool("use-enhanced-exit-codes")

	rt, err := buildRuntime(c, cfg, fileCfg)
	if err != nil {
		return cli.Exit(err.Error(), types.ExitCodeGenericFailure)
	}

	summary, err := rt.Coordinator.Outdated(c.Context, cfg, rt.Dispatcher)
	if err != nil {
		return cli.Exit(err.Error(), types.ExitCodeGenericFailure)
	}

	r, rerr := render.NewRenderer(c)
	if rerr != nil {
		return rerr
	}
	if renderErr := r.RenderSummary(summary); renderErr != nil {
		return renderErr
	}

	return cli.Exit("", outdatedExitCode(summary, cfg.Features.UseEnhancedExitCodes))
}

// outdatedExitCode decides the outdated command's exit code. summary's
// Failures count doubles as the outdated-package count (coordinator.Outdated
// records a !r.Success PackageResult for every package with a newer version
// available) — summary.Total counts every package checked, outdated or not,
// so it must never gate ExitCodeOutdatedFound on its own.
func outdatedExitCode(summary report.Summary, useEnhancedExitCodes bool) int {
	if summary.Failures > 0 && useEnhancedExitCodes {
		return types.ExitCodeOutdatedFound
	}
	return types.ExitCodeSuccess
}
