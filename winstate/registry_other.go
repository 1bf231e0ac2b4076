//go:build !windows

package winstate

import "github.com/justapithecus/chocoflow/types"

// NoopReader is the Reader implementation used on non-Windows builds. It
// performs no registry reads and always returns empty snapshots, per
// spec.md §4.1: "On non-Windows platforms, all operations return empty
// snapshots and emit no registry reads."
type NoopReader struct{}

// NewReader returns the platform registry reader for the current build.
func NewReader() Reader {
	return NoopReader{}
}

// ReadInstallerKeys always returns an empty snapshot on non-Windows builds.
func (NoopReader) ReadInstallerKeys() (types.RegistrySnapshot, error) {
	return types.RegistrySnapshot{}, nil
}

// ReadEnvironment always returns an empty snapshot on non-Windows builds.
func (NoopReader) ReadEnvironment() (types.EnvironmentSnapshot, error) {
	return types.EnvironmentSnapshot{}, nil
}
