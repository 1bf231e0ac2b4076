package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/justapithecus/chocoflow/listdoc"
	"github.com/justapithecus/chocoflow/render"
	"github.com/justapithecus/chocoflow/types"
)

// PinCommand marks an installed package as pinned (its persisted
// PackageInformation.IsPinned is set; the upgrade and uninstall pipelines do
// not consult that flag, and there is no unpin command), plus a "list"
// subcommand that enumerates
// every currently-pinned package (SPEC_FULL.md "Supplemented features").
// Pinning reuses the install pipeline's Config Expander/Coordinator path
// rather than being its own component.
func PinCommand() *cli.Command {
	return &cli.Command{
		Name:      "pin",
		Usage:     "Pin an installed package, or list pinned packages",
		ArgsUsage: "<package>",
		Flags:     operationFlags(),
		Action:    pinAction,
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List pinned packages",
				Flags: append(ReadOnlyFlags(),
					&cli.StringFlag{Name: "install-root", Value: defaultInstallRoot},
					&cli.StringFlag{Name: "cache-location"},
					&cli.StringFlag{Name: "config", Usage: "Path to a chocoflow.yaml defaults file"},
				),
				Action: pinListAction,
			},
		},
	}
}

func pinAction(c *cli.Context) error {
	cfg, fileCfg, err := buildConfiguration(c, "pin")
	if err != nil {
		return cli.Exit(err.Error(), types.ExitCodeGenericFailure)
	}
	if cfg.PackageNames == "" {
		return cli.Exit("pin requires a package name", types.ExitCodeGenericFailure)
	}

	rt, err := buildRuntime(c, cfg, fileCfg)
	if err != nil {
		return cli.Exit(err.Error(), types.ExitCodeGenericFailure)
	}

	summary, runErr := rt.Coordinator.Pin(c.Context, cfg, listdoc.New(), rt.Dispatcher)

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

func pinListAction(c *cli.Context) error {
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for pin list", 1)
	}

	cfg, fileCfg, err := buildConfiguration(c, "pin-list")
	if err != nil {
		return cli.Exit(err.Error(), types.ExitCodeGenericFailure)
	}

	rt, err := buildRuntime(c, cfg, fileCfg)
	if err != nil {
		return cli.Exit(err.Error(), types.ExitCodeGenericFailure)
	}

	pinned, err := rt.Coordinator.PinnedPackages(c.Context)
	if err != nil {
		return cli.Exit(err.Error(), types.ExitCodeGenericFailure)
	}

	r, rerr := render.NewRenderer(c)
	if rerr != nil {
		return rerr
	}
	return r.Render(pinned)
}
