// Package validate implements the Name Validator (spec.md §4.10): rejects
// package names that are actually local/UNC paths or package files, with
// guidance toward the correct --source usage. Runs before any expansion.
package validate

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/justapithecus/chocoflow/types"
)

const (
	packageArchiveExtension = ".nupkg"
	manifestExtension       = ".nuspec"
)

// FileExists is overridable for tests; defaults to a real filesystem
// stat.
var FileExists = func(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Validate checks every ";"-split token in packageNames, returning the
// first violation found.
func Validate(packageNames string) error {
	for _, token := range strings.Split(packageNames, ";") {
		if token == "" {
			continue
		}
		if err := validateToken(token); err != nil {
			return err
		}
	}
	return nil
}

func validateToken(token string) error {
	lower := strings.ToLower(token)

	if strings.HasSuffix(lower, packageArchiveExtension) {
		if isPathLike(token) {
			return fmt.Errorf("%w: %q looks like a path, not a package name.\n%s",
				types.ErrInvalidPackageName, token, exampleCommand(token))
		}
		return nil
	}

	if strings.HasSuffix(lower, manifestExtension) {
		return fmt.Errorf("%w: %q is a package manifest; run 'choco pack' first to build a .nupkg",
			types.ErrInvalidPackageName, token)
	}

	return nil
}

// isPathLike reports whether token is a local path, a UNC path, or an
// existing file — any of which means the caller meant --source, not a
// package name.
func isPathLike(token string) bool {
	if strings.HasPrefix(token, `\\`) {
		return true
	}
	if filepath.IsAbs(token) {
		return true
	}
	if strings.Contains(token, `/`) || strings.Contains(token, `\`) {
		return true
	}
	return FileExists(token)
}

// exampleCommand reconstructs a corrected invocation, extracting <name> and
// <version> from the filename via progressive dot-splitting.
func exampleCommand(token string) string {
	base := filepath.Base(token)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	dir := filepath.Dir(token)

	name, version := splitNameVersion(base)
	if version != "" {
		return fmt.Sprintf(`choco install %s --version="%s" --source=%q`, name, version, dir)
	}
	return fmt.Sprintf(`choco install %s --source=%q`, name, dir)
}

// splitNameVersion tries successive dot-separated suffixes of base as a
// version string, from the largest to the smallest, returning at the first
// suffix that parses as a version-shaped token (numeric dot components).
func splitNameVersion(base string) (name, version string) {
	parts := strings.Split(base, ".")
	for i := 1; i < len(parts); i++ {
		candidate := strings.Join(parts[i:], ".")
		if looksLikeVersion(candidate) {
			return strings.Join(parts[:i], "."), candidate
		}
	}
	return base, ""
}

func looksLikeVersion(s string) bool {
	components := strings.Split(s, "-")[0]
	for _, c := range strings.Split(components, ".") {
		if c == "" {
			return false
		}
		if _, err := strconv.Atoi(c); err != nil {
			return false
		}
	}
	return true
}
