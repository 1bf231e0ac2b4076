// Package state implements the State Snapshotter (spec.md §4.1): capturing
// and diffing installed-program registry entries and environment variables
// before and after an operation. It is pure and non-persisting — callers
// own the before/after snapshots, the same discipline the teacher's
// policy.Stats snapshot/copy pattern uses for its own point-in-time state.
package state

import (
	"github.com/justapithecus/chocoflow/types"
	"github.com/justapithecus/chocoflow/winstate"
)

// Snapshotter captures and diffs EnvironmentSnapshot and RegistrySnapshot.
type Snapshotter struct {
	registry winstate.Reader
}

// NewSnapshotter creates a Snapshotter backed by the platform registry
// reader (a no-op on non-Windows builds).
func NewSnapshotter() *Snapshotter {
	return &Snapshotter{registry: winstate.NewReader()}
}

// NewSnapshotterWithReader allows tests to inject a fake Reader.
func NewSnapshotterWithReader(r winstate.Reader) *Snapshotter {
	return &Snapshotter{registry: r}
}

// SnapshotEnv captures the current environment variable state.
func (s *Snapshotter) SnapshotEnv() (types.EnvironmentSnapshot, error) {
	return s.registry.ReadEnvironment()
}

// SnapshotInstallers captures the current installed-program registry state.
func (s *Snapshotter) SnapshotInstallers() (types.RegistrySnapshot, error) {
	return s.registry.ReadInstallerKeys()
}

type envKey struct {
	parentKey string
	name      string
}

// DiffEnv returns (addedOrChanged, removed). The diff is set-based on
// (parentKey, name); a value difference for an existing key counts as
// "changed" and is included in addedOrChanged, per spec.md §4.1.
func DiffEnv(before, after types.EnvironmentSnapshot) (addedOrChanged, removed types.EnvironmentSnapshot) {
	beforeByKey := make(map[envKey]string, len(before.Vars))
	for _, v := range before.Vars {
		beforeByKey[envKey{v.ParentKey, v.Name}] = v.Value
	}

	afterKeys := make(map[envKey]struct{}, len(after.Vars))
	for _, v := range after.Vars {
		key := envKey{v.ParentKey, v.Name}
		afterKeys[key] = struct{}{}

		prevValue, existed := beforeByKey[key]
		if !existed || prevValue != v.Value {
			addedOrChanged.Vars = append(addedOrChanged.Vars, v)
		}
	}

	for _, v := range before.Vars {
		if _, stillPresent := afterKeys[envKey{v.ParentKey, v.Name}]; !stillPresent {
			removed.Vars = append(removed.Vars, v)
		}
	}

	return addedOrChanged, removed
}

// DiffInstallers returns only the new keys present in after but absent from
// before (spec.md §4.1: "new keys only").
func DiffInstallers(before, after types.RegistrySnapshot) types.RegistrySnapshot {
	beforeKeys := make(map[string]struct{}, len(before.Entries))
	for _, e := range before.Entries {
		beforeKeys[e.KeyPath] = struct{}{}
	}

	var diff types.RegistrySnapshot
	for _, e := range after.Entries {
		if _, existed := beforeKeys[e.KeyPath]; !existed {
			diff.Entries = append(diff.Entries, e)
		}
	}
	return diff
}
