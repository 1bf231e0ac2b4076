package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/justapithecus/chocoflow/listdoc"
	"github.com/justapithecus/chocoflow/render"
	"github.com/justapithecus/chocoflow/types"
)

// UpgradeCommand upgrades one or more already-installed packages. Unlike
// install, it rejects packages.config list documents outright (spec.md
// §4.3) and runs BeforeModify ahead of every dispatched package.
func UpgradeCommand() *cli.Command {
	return &cli.Command{
		Name:      "upgrade",
		Usage:     "Upgrade one or more installed packages",
		ArgsUsage: "<package[;package...]>",
		Flags:     operationFlags(),
		Action:    upgradeAction,
	}
}

func upgradeAction(c *cli.Context) error {
	cfg, fileCfg, err := buildConfiguration(c, "upgrade")
	if err != nil {
		return cli.Exit(err.Error(), types.ExitCodeGenericFailure)
	}
	if cfg.PackageNames == "" {
		return cli.Exit("upgrade requires at least one package name", types.ExitCodeGenericFailure)
	}

	rt, err := buildRuntime(c, cfg, fileCfg)
	if err != nil {
		return cli.Exit(err.Error(), types.ExitCodeGenericFailure)
	}

	summary, runErr := rt.Coordinator.Upgrade(c.Context, cfg, listdoc.New(), rt.Dispatcher)

	r, rerr := render.NewRenderer(c)
	if rerr != nil {
		return rerr
	}
	if renderErr := r.RenderSummary(summary); renderErr != nil {
		return renderErr
	}

	code := rt.Coordinator.ExitCode()
	if code == types.ExitCodeSuccess {
		code = exitCodeForSummary(summary.Failures)
	}
	if runErr != nil {
		return cli.Exit(runErr.Error(), code)
	}
	return cli.Exit("", code)
}
