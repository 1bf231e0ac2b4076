// Package winstate is the platform-specific RegistryService collaborator
// (spec.md §6): it reads installed-program registry entries and the
// user/machine Environment registry keys. On non-Windows builds every
// operation returns an empty snapshot and performs no registry reads, per
// spec.md §4.1.
package winstate

import "github.com/justapithecus/chocoflow/types"

// UninstallKeyPaths are the well-known installed-program registry roots,
// both 32-bit and 64-bit views, per-user and per-machine.
var UninstallKeyPaths = []string{
	`SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall`,
	`SOFTWARE\WOW6432Node\Microsoft\Windows\CurrentVersion\Uninstall`,
}

// EnvironmentKeyPath is the registry path holding machine-scope environment
// variables (user-scope lives directly under HKCU\Environment).
const EnvironmentKeyPath = `SYSTEM\CurrentControlSet\Control\Session Manager\Environment`

// Reader reads installer and environment state from the Windows registry.
type Reader interface {
	// ReadInstallerKeys returns every installed-program entry across the
	// per-user and per-machine Uninstall keys (both registry views).
	ReadInstallerKeys() (types.RegistrySnapshot, error)

	// ReadEnvironment returns the user + machine environment variable
	// tuples from the registry (not process environment, which can diverge
	// from what a freshly spawned child process would inherit after a
	// broadcasted WM_SETTINGCHANGE).
	ReadEnvironment() (types.EnvironmentSnapshot, error)
}

// hasQuietUninstallString reports whether an uninstall command line looks
// capable of running without user interaction, used to populate
// InstallerEntry.HasQuietUninstall (spec.md §3: "a hasQuietUninstall flag
// derived from the uninstall command").
func hasQuietUninstallString(uninstallString string) bool {
	if uninstallString == "" {
		return false
	}
	for _, marker := range []string{"/quiet", "/qn", "/S", "/SILENT", "/VERYSILENT", "-silent"} {
		if containsFold(uninstallString, marker) {
			return true
		}
	}
	return false
}

func containsFold(haystack, needle string) bool {
	hl, nl := len(haystack), len(needle)
	if nl == 0 || nl > hl {
		return false
	}
	for i := 0; i+nl <= hl; i++ {
		if equalFold(haystack[i:i+nl], needle) {
			return true
		}
	}
	return false
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
