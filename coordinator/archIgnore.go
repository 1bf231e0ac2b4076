package coordinator

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/justapithecus/chocoflow/types"
)

// applyArchitectureIgnoreRule implements spec.md §4.5.1: exe files under
// tools\x86 or tools\x64 that don't match the target architecture get a
// sibling ".ignore" file written next to them, unless the target-matching
// directory is empty and the other one isn't — in which case the
// off-architecture copies are shimmed instead of ignored. Returns the
// predicate the Shim Service uses at step 8 to skip the ignored exes.
func applyArchitectureIgnoreRule(installLocation string, platform types.PlatformInfo) (func(exePath string) bool, error) {
	x86Dir := filepath.Join(installLocation, "tools", "x86")
	x64Dir := filepath.Join(installLocation, "tools", "x64")

	x86Exes, err := listExes(x86Dir)
	if err != nil {
		return nil, err
	}
	x64Exes, err := listExes(x64Dir)
	if err != nil {
		return nil, err
	}

	target64 := platform.Is64Bit && !platform.ForceX86

	var wrongArch []string
	exception := false
	switch {
	case target64:
		if len(x64Exes) == 0 && len(x86Exes) > 0 {
			exception = true
		} else {
			wrongArch = x86Exes
		}
	default:
		if len(x86Exes) == 0 && len(x64Exes) > 0 {
			exception = true
		} else {
			wrongArch = x64Exes
		}
	}

	ignoreSet := make(map[string]bool, len(wrongArch))
	if !exception {
		for _, exe := range wrongArch {
			if err := os.WriteFile(exe+".ignore", nil, 0o644); err != nil {
				return nil, err
			}
			ignoreSet[exe] = true
		}
	}

	return func(exePath string) bool { return ignoreSet[exePath] }, nil
}

func listExes(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var exes []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".exe") {
			continue
		}
		exes = append(exes, filepath.Join(dir, e.Name()))
	}
	return exes, nil
}
