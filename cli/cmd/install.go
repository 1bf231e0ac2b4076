package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/justapithecus/chocoflow/listdoc"
	"github.com/justapithecus/chocoflow/render"
	"github.com/justapithecus/chocoflow/types"
)

// InstallCommand materializes and installs one or more packages, driving
// the full post-pipeline (spec.md §4.5 steps 1-15) per package.
func InstallCommand() *cli.Command {
	return &cli.Command{
		Name:      "install",
		Usage:     "Install one or more packages",
		ArgsUsage: "<package[;package...]|packages.config>",
		Flags:     operationFlags(),
		Action:    installAction,
	}
}

func installAction(c *cli.Context) error {
	cfg, fileCfg, err := buildConfiguration(c, "install")
	if err != nil {
		return cli.Exit(err.Error(), types.ExitCodeGenericFailure)
	}
	if cfg.PackageNames == "" {
		return cli.Exit("install requires at least one package name", types.ExitCodeGenericFailure)
	}

	rt, err := buildRuntime(c, cfg, fileCfg)
	if err != nil {
		return cli.Exit(err.Error(), types.ExitCodeGenericFailure)
	}

	summary, runErr := rt.Coordinator.Install(c.Context, cfg, listdoc.New(), rt.Dispatcher)

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
