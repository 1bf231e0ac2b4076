package cmd

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/chocoflow/types"
)

// defaultPushSource is the push destination used when --source is absent.
const defaultPushSource = "https://push.chocoflow.local/api/v2/package"

// PushCommand uploads a previously-packed archive to a feed. It speaks
// nothing but a generic HTTP PUT of the archive's bytes: the orchestrator
// core never speaks a feed's own wire protocol (spec.md §1 Non-goals), and
// push stays a thin, protocol-agnostic file transfer rather than a client
// for any specific feed implementation.
func PushCommand() *cli.Command {
	return &cli.Command{
		Name:      "push",
		Usage:     "Push a packed archive to a feed",
		ArgsUsage: "<path-to-nupkg>",
		Flags: append(ReadOnlyFlags(),
			&cli.StringFlag{Name: "source", Usage: "Feed URL to push to", Value: defaultPushSource},
			&cli.StringFlag{Name: "api-key", Usage: "Feed API key, sent as X-API-Key"},
		),
		Action: pushAction,
	}
}

func pushAction(c *cli.Context) error {
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for the push command", 1)
	}

	path := c.Args().First()
	if path == "" {
		return cli.Exit("push requires a path to a .nupkg archive", types.ExitCodeGenericFailure)
	}

	f, err := os.Open(path)
	if err != nil {
		return cli.Exit(fmt.Sprintf("push: %s", err), types.ExitCodeGenericFailure)
	}
	defer f.Close()

	dest := c.String("source")
	req, err := http.NewRequestWithContext(c.Context, http.MethodPut, fmt.Sprintf("%s/%s", dest, filepath.Base(path)), f)
	if err != nil {
		return cli.Exit(fmt.Sprintf("push: %s", err), types.ExitCodeGenericFailure)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	if key := c.String("api-key"); key != "" {
		req.Header.Set("X-API-Key", key)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return cli.Exit(fmt.Sprintf("push: %s", err), types.ExitCodeGenericFailure)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return cli.Exit(fmt.Sprintf("push: feed returned status %d", resp.StatusCode), types.ExitCodeGenericFailure)
	}

	fmt.Fprintf(c.App.Writer, "Pushed %s to %s\n", filepath.Base(path), dest)
	return nil
}
