package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/justapithecus/chocoflow/listdoc"
	"github.com/justapithecus/chocoflow/render"
	"github.com/justapithecus/chocoflow/types"
)

// UninstallCommand removes one or more installed packages via the
// uninstall pipeline (spec.md §4.5 "Uninstall pipeline" paragraph), which
// is always fatal to the command on a per-package failure.
func UninstallCommand() *cli.Command {
	return &cli.Command{
		Name:      "uninstall",
		Usage:     "Uninstall one or more installed packages",
		ArgsUsage: "<package[;package...]>",
		Flags:     operationFlags(),
		Action:    uninstallAction,
	}
}

func uninstallAction(c *cli.Context) error {
	cfg, fileCfg, err := buildConfiguration(c, "uninstall")
	if err != nil {
		return cli.Exit(err.Error(), types.ExitCodeGenericFailure)
	}
	if cfg.PackageNames == "" {
		return cli.Exit("uninstall requires at least one package name", types.ExitCodeGenericFailure)
	}

	rt, err := buildRuntime(c, cfg, fileCfg)
	if err != nil {
		return cli.Exit(err.Error(), types.ExitCodeGenericFailure)
	}

	summary, runErr := rt.Coordinator.Uninstall(c.Context, cfg, listdoc.New(), rt.Dispatcher)

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
