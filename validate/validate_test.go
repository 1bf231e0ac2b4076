package validate

import (
	"errors"
	"testing"

	"github.com/justapithecus/chocoflow/types"
)

func TestValidateRejectsExistingArchivePath(t *testing.T) {
	orig := FileExists
	FileExists = func(path string) bool { return path == "/tmp/foo.1.2.3.nupkg" }
	defer func() { FileExists = orig }()

	err := Validate("/tmp/foo.1.2.3.nupkg")
	if err == nil {
		t.Fatal("expected an error for a path-like package archive")
	}
	if !errors.Is(err, types.ErrInvalidPackageName) {
		t.Fatalf("expected ErrInvalidPackageName, got %v", err)
	}
}

func TestValidateRejectsManifest(t *testing.T) {
	err := Validate("foo.nuspec")
	if err == nil || !errors.Is(err, types.ErrInvalidPackageName) {
		t.Fatalf("expected manifest rejection, got %v", err)
	}
}

func TestValidateAllowsOrdinaryName(t *testing.T) {
	if err := Validate("foo;bar"); err != nil {
		t.Fatalf("expected ordinary package names to pass, got %v", err)
	}
}

func TestValidateAllowsNonExistentArchiveName(t *testing.T) {
	orig := FileExists
	FileExists = func(string) bool { return false }
	defer func() { FileExists = orig }()

	// "foo.nupkg" with no path separators and a non-existent file is just
	// an (unusual but not rejected) package name.
	if err := Validate("foo.nupkg"); err != nil {
		t.Fatalf("expected non-path non-existent archive name to pass, got %v", err)
	}
}

func TestSplitNameVersionExtractsVersion(t *testing.T) {
	name, version := splitNameVersion("foo-bar.1.2.3")
	if name != "foo-bar" || version != "1.2.3" {
		t.Fatalf("got name=%q version=%q", name, version)
	}
}
