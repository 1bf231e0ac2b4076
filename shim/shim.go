// Package shim implements the ShimService (spec.md §6): it generates and
// removes the small redirect stubs chocoflow places on PATH so a package's
// own tools\*.exe files are runnable by name. The shim executable itself —
// a native PE redirector — is an external collaborator's concern (spec.md
// §1 names "the shim generator" out of scope); this package owns the
// config side of that contract: writing and clearing the per-exe ".shim"
// descriptor files that tell the redirector what to invoke.
package shim

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/justapithecus/chocoflow/iox"
	"github.com/justapithecus/chocoflow/types"
)

const shimDescriptorExt = ".shim"

// Service installs and removes shim descriptors for a package.
type Service interface {
	Install(ctx context.Context, r *types.PackageResult, cfg *types.Configuration, shimRoot string, ignore func(exePath string) bool) error
	Uninstall(ctx context.Context, r *types.PackageResult, cfg *types.Configuration, shimRoot string) error
}

// DefaultService is the default Service, writing plain-text descriptors
// (one "path=<target>" line) next to the shim executable's conventional
// location.
type DefaultService struct{}

// New returns the default ShimService.
func New() *DefaultService { return &DefaultService{} }

// Install walks <installLocation>/tools for *.exe files and writes one
// shim descriptor per file into shimRoot, skipping any exe for which
// ignore reports true (the architecture-ignore rule, spec.md §4.5.1, is
// the coordinator's concern — it supplies ignore).
func (DefaultService) Install(ctx context.Context, r *types.PackageResult, cfg *types.Configuration, shimRoot string, ignore func(exePath string) bool) error {
	toolsDir := filepath.Join(r.InstallLocation, "tools")
	if _, err := os.Stat(toolsDir); err != nil {
		return nil
	}

	return filepath.WalkDir(toolsDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".exe") {
			return nil
		}
		if ignore != nil && ignore(path) {
			return nil
		}

		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		descriptor := filepath.Join(shimRoot, name+".exe"+shimDescriptorExt)
		if err := os.MkdirAll(shimRoot, 0o755); err != nil {
			return err
		}
		return os.WriteFile(descriptor, []byte("path="+path+"\n"), 0o644)
	})
}

// Uninstall removes every shim descriptor pointing at an exe under
// r.InstallLocation.
func (DefaultService) Uninstall(ctx context.Context, r *types.PackageResult, cfg *types.Configuration, shimRoot string) error {
	entries, err := os.ReadDir(shimRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), shimDescriptorExt) {
			continue
		}
		path := filepath.Join(shimRoot, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if strings.Contains(string(data), "path="+r.InstallLocation) ||
			strings.HasPrefix(strings.TrimPrefix(string(data), "path="), r.InstallLocation) {
			if _, err := iox.BestEffortRemove(path); err != nil {
				r.AddMessage(types.MessageWarning, "could not remove shim "+path+": "+err.Error())
			}
		}
	}
	return nil
}
