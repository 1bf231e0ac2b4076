package cmd

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/chocoflow/types"
)

// manifestExtension is the package manifest file pack looks for in the
// source directory before it will zip anything (spec.md §4.1's validator
// rejects a bare manifest path on install with "raise an error telling the
// user to pack first" — this command is that "pack").
const manifestExtension = ".nuspec"

// PackCommand builds a distributable package archive from a directory
// containing a manifest file. It only zips what is already on disk: the
// orchestrator core never parses package-archive contents (spec.md §1
// Non-goals), and pack does not either — it is a filesystem operation, not
// a feed-format one.
func PackCommand() *cli.Command {
	return &cli.Command{
		Name:      "pack",
		Usage:     "Build a package archive from a manifest directory",
		ArgsUsage: "<manifest-or-dir> [output-dir]",
		Flags:     ReadOnlyFlags(),
		Action:    packAction,
	}
}

func packAction(c *cli.Context) error {
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for the pack command", 1)
	}

	args := c.Args().Slice()
	if len(args) == 0 {
		return cli.Exit("pack requires a manifest path or directory", types.ExitCodeGenericFailure)
	}

	srcDir, manifest, err := resolveManifestDir(args[0])
	if err != nil {
		return cli.Exit(err.Error(), types.ExitCodeGenericFailure)
	}

	outputDir := "."
	if len(args) > 1 {
		outputDir = args[1]
	}

	name := strings.TrimSuffix(filepath.Base(manifest), manifestExtension)
	outputPath := filepath.Join(outputDir, name+".nupkg")

	if err := zipDirectory(srcDir, outputPath); err != nil {
		return cli.Exit(fmt.Sprintf("pack: %s", err), types.ExitCodeGenericFailure)
	}

	fmt.Fprintf(c.App.Writer, "Packed %s to %s\n", name, outputPath)
	return nil
}

// resolveManifestDir accepts either a directory (the first .nuspec file in
// it by file name is used; any others are ignored) or a direct path to the
// manifest file itself, and returns
// the directory to archive plus the manifest path found within it.
func resolveManifestDir(arg string) (dir string, manifest string, err error) {
	info, err := os.Stat(arg)
	if err != nil {
		return "", "", fmt.Errorf("resolve manifest: %w", err)
	}

	if !info.IsDir() {
		if filepath.Ext(arg) != manifestExtension {
			return "", "", fmt.Errorf("resolve manifest: %s is not a %s file", arg, manifestExtension)
		}
		return filepath.Dir(arg), arg, nil
	}

	entries, err := os.ReadDir(arg)
	if err != nil {
		return "", "", fmt.Errorf("resolve manifest: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == manifestExtension {
			return arg, filepath.Join(arg, e.Name()), nil
		}
	}
	return "", "", fmt.Errorf("resolve manifest: no %s file found in %s", manifestExtension, arg)
}

// zipDirectory writes every regular file under srcDir into outputPath as a
// zip archive, preserving relative paths.
func zipDirectory(srcDir, outputPath string) error {
	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outputPath, err)
	}
	defer out.Close()

	w := zip.NewWriter(out)
	defer w.Close()

	return filepath.WalkDir(srcDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}

		dst, err := w.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}

		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()

		_, err = io.Copy(dst, src)
		return err
	})
}
