package shim

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/justapithecus/chocoflow/types"
)

func TestInstallWritesDescriptorPerExe(t *testing.T) {
	root := t.TempDir()
	installLocation := filepath.Join(root, "lib", "foo")
	toolsDir := filepath.Join(installLocation, "tools")
	if err := os.MkdirAll(toolsDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(toolsDir, "foo.exe"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	shimRoot := filepath.Join(root, "bin")
	svc := New()
	r := &types.PackageResult{Name: "foo", InstallLocation: installLocation}

	if err := svc.Install(context.Background(), r, &types.Configuration{}, shimRoot, nil); err != nil {
		t.Fatalf("Install: %v", err)
	}

	if _, err := os.Stat(filepath.Join(shimRoot, "foo.exe.shim")); err != nil {
		t.Fatalf("expected shim descriptor: %v", err)
	}
}

func TestInstallSkipsIgnoredExes(t *testing.T) {
	root := t.TempDir()
	installLocation := filepath.Join(root, "lib", "foo")
	toolsDir := filepath.Join(installLocation, "tools")
	if err := os.MkdirAll(toolsDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(toolsDir, "foo.exe"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	shimRoot := filepath.Join(root, "bin")
	svc := New()
	r := &types.PackageResult{Name: "foo", InstallLocation: installLocation}

	if err := svc.Install(context.Background(), r, &types.Configuration{}, shimRoot, func(string) bool { return true }); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if _, err := os.Stat(filepath.Join(shimRoot, "foo.exe.shim")); !os.IsNotExist(err) {
		t.Fatal("expected ignored exe to not get a shim descriptor")
	}
}

func TestUninstallRemovesMatchingDescriptors(t *testing.T) {
	root := t.TempDir()
	shimRoot := filepath.Join(root, "bin")
	if err := os.MkdirAll(shimRoot, 0o755); err != nil {
		t.Fatal(err)
	}
	installLocation := filepath.Join(root, "lib", "foo")
	descriptor := filepath.Join(shimRoot, "foo.exe.shim")
	if err := os.WriteFile(descriptor, []byte("path="+filepath.Join(installLocation, "tools", "foo.exe")+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	svc := New()
	r := &types.PackageResult{Name: "foo", InstallLocation: installLocation}
	if err := svc.Uninstall(context.Background(), r, &types.Configuration{}, shimRoot); err != nil {
		t.Fatalf("Uninstall: %v", err)
	}
	if _, err := os.Stat(descriptor); !os.IsNotExist(err) {
		t.Fatal("expected shim descriptor to be removed")
	}
}
