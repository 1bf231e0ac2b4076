package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/justapithecus/chocoflow/types"
)

func TestCaptureHashesFilesRelativeToInstallLocation(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "tool.exe"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sub", "lib.dll"), []byte("world"), 0o644); err != nil {
		t.Fatal(err)
	}

	svc := New()
	r := &types.PackageResult{Name: "foo", InstallLocation: dir}
	snapshot, err := svc.Capture(r, &types.Configuration{})
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}

	if len(snapshot.Files) != 2 {
		t.Fatalf("expected 2 captured files, got %d: %v", len(snapshot.Files), snapshot.Files)
	}
	if _, ok := snapshot.Files["tool.exe"]; !ok {
		t.Fatal("expected tool.exe in snapshot")
	}
	if _, ok := snapshot.Files[filepath.Join("sub", "lib.dll")]; !ok {
		t.Fatal("expected sub/lib.dll in snapshot")
	}
}

func TestCaptureOfMissingLocationIsEmpty(t *testing.T) {
	svc := New()
	r := &types.PackageResult{Name: "foo"}
	snapshot, err := svc.Capture(r, &types.Configuration{})
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if len(snapshot.Files) != 0 {
		t.Fatalf("expected empty snapshot, got %v", snapshot.Files)
	}
}

func TestNormalizeAttributesDoesNotError(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "tool.exe"), []byte("hello"), 0o444); err != nil {
		t.Fatal(err)
	}

	svc := New()
	r := &types.PackageResult{Name: "foo", InstallLocation: dir}
	if err := svc.NormalizeAttributes(r, &types.Configuration{}); err != nil {
		t.Fatalf("NormalizeAttributes: %v", err)
	}
}
