package types

import "testing"

func TestConfigurationCloneIsIndependent(t *testing.T) {
	original := &Configuration{
		PackageNames: "foo;bar",
		Features:     Features{PrereleaseAllowed: true},
	}

	clone := original.Clone()
	clone.PackageNames = "baz"
	clone.Features.PrereleaseAllowed = false

	if original.PackageNames != "foo;bar" {
		t.Fatalf("mutating clone changed original PackageNames: %q", original.PackageNames)
	}
	if !original.Features.PrereleaseAllowed {
		t.Fatalf("mutating clone changed original Features")
	}
}

func TestPackageResultRebootCode(t *testing.T) {
	cases := []struct {
		exitCode int
		want     bool
	}{
		{0, false},
		{1, false},
		{1641, true},
		{3010, true},
		{1602, false},
	}

	for _, tc := range cases {
		r := &PackageResult{ExitCode: tc.exitCode}
		if got := r.RebootCode(); got != tc.want {
			t.Errorf("RebootCode() with exit code %d = %v, want %v", tc.exitCode, got, tc.want)
		}
	}
}

func TestPackageResultFirstMessage(t *testing.T) {
	r := &PackageResult{}
	r.AddMessage(MessageInfo, "starting")
	r.AddMessage(MessageError, "boom")
	r.AddMessage(MessageError, "second error")

	if got := r.FirstMessage(MessageError); got != "boom" {
		t.Errorf("FirstMessage(error) = %q, want %q", got, "boom")
	}
	if got := r.FirstMessage(MessageWarning); got != "" {
		t.Errorf("FirstMessage(warning) = %q, want empty", got)
	}
}
