package log

import (
	"testing"

	"github.com/justapithecus/chocoflow/types"
)

func TestEnvFieldsRedactsByDefault(t *testing.T) {
	vars := []types.EnvVar{{ParentKey: "user", Name: "PATH", Value: "secret-stuff"}}

	redacted := EnvFields(vars, false)
	if redacted[0]["value"] != "[redacted]" {
		t.Fatalf("expected redacted value, got %v", redacted[0]["value"])
	}

	visible := EnvFields(vars, true)
	if visible[0]["value"] != "secret-stuff" {
		t.Fatalf("expected visible value with LogEnvironmentValues set, got %v", visible[0]["value"])
	}
}
