package state

import (
	"testing"

	"github.com/justapithecus/chocoflow/types"
)

func TestDiffInstallersIdempotent(t *testing.T) {
	snap := types.RegistrySnapshot{Entries: []types.InstallerEntry{
		{KeyPath: `Uninstall\Foo`, DisplayName: "Foo"},
	}}

	diff := DiffInstallers(snap, snap)
	if len(diff.Entries) != 0 {
		t.Fatalf("DiffInstallers(s, s) = %d entries, want 0", len(diff.Entries))
	}
}

func TestDiffInstallersNewKeysOnly(t *testing.T) {
	before := types.RegistrySnapshot{Entries: []types.InstallerEntry{
		{KeyPath: `Uninstall\Foo`},
	}}
	after := types.RegistrySnapshot{Entries: []types.InstallerEntry{
		{KeyPath: `Uninstall\Foo`},
		{KeyPath: `Uninstall\Bar`, HasQuietUninstall: true},
	}}

	diff := DiffInstallers(before, after)
	if len(diff.Entries) != 1 || diff.Entries[0].KeyPath != `Uninstall\Bar` {
		t.Fatalf("DiffInstallers = %+v, want only Bar", diff.Entries)
	}
}

func TestDiffEnvIdempotent(t *testing.T) {
	snap := types.EnvironmentSnapshot{Vars: []types.EnvVar{
		{ParentKey: "user", Name: "PATH", Value: "C:\\tools"},
	}}

	addedOrChanged, removed := DiffEnv(snap, snap)
	if len(addedOrChanged.Vars) != 0 || len(removed.Vars) != 0 {
		t.Fatalf("DiffEnv(s, s) = (%d, %d), want (0, 0)", len(addedOrChanged.Vars), len(removed.Vars))
	}
}

func TestDiffEnvAddedChangedRemoved(t *testing.T) {
	before := types.EnvironmentSnapshot{Vars: []types.EnvVar{
		{ParentKey: "user", Name: "FOO", Value: "1"},
		{ParentKey: "user", Name: "GONE", Value: "bye"},
	}}
	after := types.EnvironmentSnapshot{Vars: []types.EnvVar{
		{ParentKey: "user", Name: "FOO", Value: "2"}, // changed
		{ParentKey: "user", Name: "NEW", Value: "hi"}, // added
	}}

	addedOrChanged, removed := DiffEnv(before, after)

	if len(addedOrChanged.Vars) != 2 {
		t.Fatalf("expected 2 added/changed vars, got %d: %+v", len(addedOrChanged.Vars), addedOrChanged.Vars)
	}
	if len(removed.Vars) != 1 || removed.Vars[0].Name != "GONE" {
		t.Fatalf("expected GONE to be removed, got %+v", removed.Vars)
	}
}
