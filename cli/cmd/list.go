package cmd

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/chocoflow/render"
	"github.com/justapithecus/chocoflow/types"
)

// listWarningThreshold is the result count above which list warns the user
// toward a narrower query, printed to stderr only on an interactive
// terminal to avoid noise in pipelines.
const listWarningThreshold = 100

// isStderrTTY returns true if stderr is a TTY.
func isStderrTTY() bool {
	info, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// ListCommand lists packages known to the resolved source, without running
// any post-pipeline step.
func ListCommand() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Usage:     "List packages known to a source",
		ArgsUsage: "[filter]",
		Flags: append(ReadOnlyFlags(),
			&cli.StringFlag{Name: "source", Usage: "Source kind/locator to query", Value: "normal"},
			&cli.StringFlag{Name: "install-root", Value: defaultInstallRoot},
			&cli.StringFlag{Name: "cache-location"},
			&cli.StringFlag{Name: "config", Usage: "Path to a chocoflow.yaml defaults file"},
		),
		Action: listAction,
	}
}

func listAction(c *cli.Context) error {
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for the list command", 1)
	}

	cfg, fileCfg, err := buildConfiguration(c, "list")
	if err != nil {
		return cli.Exit(err.Error(), types.ExitCodeGenericFailure)
	}

	rt, err := buildRuntime(c, cfg, fileCfg)
	if err != nil {
		return cli.Exit(err.Error(), types.ExitCodeGenericFailure)
	}

	summary, err := rt.Coordinator.List(c.Context, cfg, rt.Dispatcher)
	if err != nil {
		return cli.Exit(err.Error(), types.ExitCodeGenericFailure)
	}

	if summary.Total > listWarningThreshold && isStderrTTY() {
		fmt.Fprintf(os.Stderr, "Warning: returning %d results. Consider narrowing your query.\n\n", summary.Total)
	}

	r, rerr := render.NewRenderer(c)
	if rerr != nil {
		return rerr
	}
	return r.RenderSummary(summary)
}
