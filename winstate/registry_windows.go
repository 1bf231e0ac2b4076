//go:build windows

package winstate

import (
	"golang.org/x/sys/windows/registry"

	"github.com/justapithecus/chocoflow/types"
)

// WindowsReader is the Reader implementation backed by
// golang.org/x/sys/windows/registry.
type WindowsReader struct{}

// NewReader returns the platform registry reader for the current build.
func NewReader() Reader {
	return WindowsReader{}
}

// ReadInstallerKeys walks every Uninstall subkey under both HKCU and HKLM,
// and under both registry views named in UninstallKeyPaths.
func (WindowsReader) ReadInstallerKeys() (types.RegistrySnapshot, error) {
	var snap types.RegistrySnapshot

	roots := []registry.Key{registry.CURRENT_USER, registry.LOCAL_MACHINE}
	for _, root := range roots {
		for _, base := range UninstallKeyPaths {
			entries, err := readUninstallKeys(root, base)
			if err != nil {
				continue
			}
			snap.Entries = append(snap.Entries, entries...)
		}
	}
	return snap, nil
}

func readUninstallKeys(root registry.Key, base string) ([]types.InstallerEntry, error) {
	k, err := registry.OpenKey(root, base, registry.READ)
	if err != nil {
		return nil, err
	}
	defer k.Close()

	names, err := k.ReadSubKeyNames(-1)
	if err != nil {
		return nil, err
	}

	entries := make([]types.InstallerEntry, 0, len(names))
	for _, name := range names {
		sub, err := registry.OpenKey(root, base+`\`+name, registry.READ)
		if err != nil {
			continue
		}
		displayName, _, _ := sub.GetStringValue("DisplayName")
		if displayName == "" {
			sub.Close()
			continue
		}
		displayVersion, _, _ := sub.GetStringValue("DisplayVersion")
		uninstallString, _, _ := sub.GetStringValue("UninstallString")
		installLocation, _, _ := sub.GetStringValue("InstallLocation")
		sub.Close()

		entries = append(entries, types.InstallerEntry{
			KeyPath:           base + `\` + name,
			DisplayName:       displayName,
			DisplayVersion:    displayVersion,
			UninstallString:   uninstallString,
			InstallLocation:   installLocation,
			HasQuietUninstall: hasQuietUninstallString(uninstallString),
		})
	}
	return entries, nil
}

// ReadEnvironment reads HKCU\Environment (user scope) and
// HKLM\...\Session Manager\Environment (machine scope).
func (WindowsReader) ReadEnvironment() (types.EnvironmentSnapshot, error) {
	var snap types.EnvironmentSnapshot

	userVars, err := readEnvironmentValues(registry.CURRENT_USER, `Environment`, "user")
	if err == nil {
		snap.Vars = append(snap.Vars, userVars...)
	}

	machineVars, err := readEnvironmentValues(registry.LOCAL_MACHINE, EnvironmentKeyPath, "machine")
	if err == nil {
		snap.Vars = append(snap.Vars, machineVars...)
	}

	return snap, nil
}

func readEnvironmentValues(root registry.Key, path, parentKey string) ([]types.EnvVar, error) {
	k, err := registry.OpenKey(root, path, registry.READ)
	if err != nil {
		return nil, err
	}
	defer k.Close()

	names, err := k.ReadValueNames(-1)
	if err != nil {
		return nil, err
	}

	vars := make([]types.EnvVar, 0, len(names))
	for _, name := range names {
		value, _, err := k.GetStringValue(name)
		if err != nil {
			continue
		}
		vars = append(vars, types.EnvVar{ParentKey: parentKey, Name: name, Value: value})
	}
	return vars, nil
}
