// Package sideload implements the Sideload Installer (spec.md §4.6):
// packages whose name ends in a reserved suffix install their payload into
// a sibling tool directory (extensions/templates/hooks) instead of the
// packages root.
package sideload

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"

	"github.com/justapithecus/chocoflow/iox"
	"github.com/justapithecus/chocoflow/layout"
	"github.com/justapithecus/chocoflow/procstate"
	"github.com/justapithecus/chocoflow/types"
)

const (
	suffixExtension  = ".extension"
	suffixExtensions = ".extensions"
	suffixTemplate   = ".template"
	suffixHook       = ".hook"

	installLocationEnvVar = "ChocolateyPackageInstallLocation"
	uninstallCommand      = "uninstall"
)

type family int

const (
	familyNone family = iota
	familyExtension
	familyTemplate
	familyHook
)

// Installer stages and unstages sideload payloads.
type Installer struct {
	roots layout.Roots
	state *procstate.ProcessState
}

// New builds an Installer rooted at roots, recording environment writes on
// state.
func New(roots layout.Roots, state *procstate.ProcessState) *Installer {
	return &Installer{roots: roots, state: state}
}

// Applies reports whether name names a sideload package.
func Applies(name string) bool {
	_, _, ok := classify(name)
	return ok
}

// Run stages or unstages the sideload for r, per cfg.CommandName.
// installLocation is the package's materialized install directory.
func (in *Installer) Run(ctx context.Context, r *types.PackageResult, cfg *types.Configuration, installLocation string) error {
	f, slug, ok := classify(r.Name)
	if !ok {
		return nil
	}

	dstRoot := in.destinationRoot(f, slug)

	if strings.EqualFold(cfg.CommandName, uninstallCommand) {
		if err := removeDestinations(f, dstRoot); err != nil {
			return err
		}
		r.AddMessage(types.MessageNote, "Uninstalled "+slug)
		return nil
	}

	// "remove first" — tolerate failure, the stage below still proceeds.
	_ = removeDestinations(f, dstRoot)

	srcDir := filepath.Join(installLocation, subdirName(f))
	if fi, err := os.Stat(srcDir); err != nil || !fi.IsDir() {
		srcDir = installLocation
	}

	if err := copyTree(srcDir, dstRoot); err != nil {
		return err
	}

	if f == familyTemplate {
		if err := renameNuspecTemplates(dstRoot); err != nil {
			return err
		}
	}

	if in.state != nil {
		_ = in.state.SetEnv(installLocationEnvVar, dstRoot)
	}
	return nil
}

func classify(name string) (family, string, bool) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, suffixExtensions):
		return familyExtension, name[:len(name)-len(suffixExtensions)], true
	case strings.HasSuffix(lower, suffixExtension):
		return familyExtension, name[:len(name)-len(suffixExtension)], true
	case strings.HasSuffix(lower, suffixTemplate):
		return familyTemplate, name[:len(name)-len(suffixTemplate)], true
	case strings.HasSuffix(lower, suffixHook):
		return familyHook, name[:len(name)-len(suffixHook)], true
	}
	return familyNone, "", false
}

func subdirName(f family) string {
	switch f {
	case familyExtension:
		return "extensions"
	case familyTemplate:
		return "templates"
	case familyHook:
		return "hook"
	}
	return ""
}

func (in *Installer) destinationRoot(f family, slug string) string {
	switch f {
	case familyExtension:
		return filepath.Join(in.roots.ExtensionsRoot, slug)
	case familyTemplate:
		return filepath.Join(in.roots.TemplatesRoot, slug)
	case familyHook:
		return filepath.Join(in.roots.HooksRoot, slug)
	}
	return ""
}

// removeDestinations clears dstRoot and, for the extension family, the
// .extension/.extensions sibling variants — both slugs collide onto the
// same destination, so removal must clear both (spec.md §8).
func removeDestinations(f family, dstRoot string) error {
	if f != familyExtension {
		return iox.BestEffortRemoveAll(dstRoot)
	}

	var errs error
	errs = multierr.Append(errs, deleteExtensionDir(dstRoot))
	errs = multierr.Append(errs, iox.BestEffortRemoveAll(dstRoot+suffixExtension))
	errs = multierr.Append(errs, iox.BestEffortRemoveAll(dstRoot+suffixExtensions))
	return errs
}

// deleteExtensionDir implements the extensions deletion protocol (spec.md
// §4.6): extension DLLs may be loaded by this very process, so the current
// *.dll is rotated to *.dll.old rather than deleted outright. Each step is
// per-file error tolerant.
func deleteExtensionDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var errs error

	for _, e := range entries {
		if strings.HasSuffix(strings.ToLower(e.Name()), ".dll.old") {
			if _, removeErr := iox.BestEffortRemove(filepath.Join(dir, e.Name())); removeErr != nil {
				errs = multierr.Append(errs, removeErr)
			}
		}
	}

	for _, e := range entries {
		if strings.HasSuffix(strings.ToLower(e.Name()), ".dll") {
			src := filepath.Join(dir, e.Name())
			if renameErr := os.Rename(src, src+".old"); renameErr != nil {
				errs = multierr.Append(errs, renameErr)
			}
		}
	}

	remaining, err := os.ReadDir(dir)
	if err != nil {
		return multierr.Append(errs, err)
	}
	for _, e := range remaining {
		if strings.HasSuffix(strings.ToLower(e.Name()), ".dll.old") {
			continue
		}
		full := filepath.Join(dir, e.Name())
		if e.IsDir() {
			if removeErr := iox.BestEffortRemoveAll(full); removeErr != nil {
				errs = multierr.Append(errs, removeErr)
			}
			continue
		}
		if _, removeErr := iox.BestEffortRemove(full); removeErr != nil {
			errs = multierr.Append(errs, removeErr)
		}
	}

	return errs
}

func copyTree(srcDir, dstDir string) error {
	if _, err := os.Stat(srcDir); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	return filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		dst := filepath.Join(dstDir, rel)

		if d.IsDir() {
			return os.MkdirAll(dst, 0o755)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return err
		}
		return os.WriteFile(dst, data, 0o644)
	})
}

// renameNuspecTemplates renames *.nuspec.template to *.nuspec inside a
// staged template copy (spec.md §4.6).
func renameNuspecTemplates(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".nuspec.template") {
			return nil
		}
		dst := strings.TrimSuffix(path, ".template")
		return os.Rename(path, dst)
	})
}
